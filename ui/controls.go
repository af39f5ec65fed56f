package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlActions reports what the user asked for this frame.
type ControlActions struct {
	TogglePause    bool
	SaveBest       bool
	MutationChance float64
	ChanceChanged  bool
	GensPerUpdate  int
}

// ControlsPanel renders the raygui buttons and sliders.
type ControlsPanel struct {
	renderer  *Renderer
	x, y      int32
	width     int32
	maxChance float32

	chance        float32
	chancePending bool
	gensPerUpdate float32
}

// NewControlsPanel creates a controls panel seeded with the current settings.
func NewControlsPanel(x, y, width int32, chance float64, gensPerUpdate int) *ControlsPanel {
	return &ControlsPanel{
		renderer:      NewRenderer(),
		x:             x,
		y:             y,
		width:         width,
		maxChance:     max(0.1, float32(chance)*4),
		chance:        float32(chance),
		gensPerUpdate: float32(gensPerUpdate),
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// SetChance syncs the slider after the chance was changed elsewhere.
func (c *ControlsPanel) SetChance(p float64) {
	c.chance = float32(p)
}

// Draw renders the panel and returns the actions triggered this frame.
func (c *ControlsPanel) Draw(paused bool) ControlActions {
	r := c.renderer
	pad := float32(r.Theme.Padding)
	x := float32(c.x) + pad
	y := float32(c.y)
	w := float32(c.width) - pad*2

	r.DrawSectionHeader(int32(x), int32(y), "Controls")
	y += float32(r.Theme.LineHeight) + 4

	var out ControlActions

	pauseLabel := "Pause"
	if paused {
		pauseLabel = "Resume"
	}
	half := (w - pad) / 2
	if gui.Button(rl.NewRectangle(x, y, half, 24), pauseLabel) {
		out.TogglePause = true
	}
	if gui.Button(rl.NewRectangle(x+half+pad, y, half, 24), "Save best") {
		out.SaveBest = true
	}
	y += 34

	// Slider labels sit outside the bar, so leave room on both sides.
	sliderX := x + 60
	sliderW := w - 110

	prev := c.chance
	c.chance = gui.SliderBar(rl.NewRectangle(sliderX, y, sliderW, 16),
		"mutation", fmt.Sprintf("%.4f", c.chance), c.chance, 0, c.maxChance)
	if c.chance != prev {
		c.chancePending = true
	}
	// Apply once the drag ends rather than on every frame of it.
	if c.chancePending && !rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		c.chancePending = false
		out.ChanceChanged = true
	}
	y += 24

	c.gensPerUpdate = gui.SliderBar(rl.NewRectangle(sliderX, y, sliderW, 16),
		"gens/frame", fmt.Sprintf("%d", int(c.gensPerUpdate)), c.gensPerUpdate, 1, 50)

	out.MutationChance = float64(c.chance)
	out.GensPerUpdate = max(1, int(c.gensPerUpdate))
	return out
}
