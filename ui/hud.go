package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/glyphs/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title          string
	Generation     int
	Best           float64
	Mean           float64
	Diversity      float64
	MutationChance float64
	GensPerSecond  float64
	Elapsed        time.Duration
	FPS            int32
	Paused         bool
	Status         string
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHUD creates a new HUD renderer.
func NewHUD(x, y, width int32) *HUD {
	return &HUD{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// Draw renders the HUD and returns the Y position below it.
func (h *HUD) Draw(data HUDData) int32 {
	r := h.renderer
	x := h.x + r.Theme.Padding
	y := h.y + r.Theme.Padding

	rl.DrawText(data.Title, x, y, 20, rl.White)
	y += 26

	y = r.DrawSectionHeader(x, y, "Run")
	y = r.DrawLabelValue(x, y, "Generation", fmt.Sprintf("%d", data.Generation))
	y = r.DrawLabelValue(x, y, "Best", fmt.Sprintf("%.0f", data.Best))
	y = r.DrawLabelValue(x, y, "Mean", fmt.Sprintf("%.0f", data.Mean))
	y = r.DrawBar(x, y, "Diversity", float32(data.Diversity), h.width-r.Theme.Padding*2)
	y = r.DrawLabelValue(x, y, "Mutation", fmt.Sprintf("%.4f", data.MutationChance))
	y = r.DrawLabelValue(x, y, "Gens/sec", fmt.Sprintf("%.1f", data.GensPerSecond))
	y = r.DrawLabelValue(x, y, "Elapsed", data.Elapsed.Round(time.Second).String())
	y = r.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%d", data.FPS))

	statusText := "Running"
	color := rl.Green
	if data.Paused {
		statusText = "PAUSED"
		color = rl.Yellow
	}
	rl.DrawText(statusText, x, y, 16, color)
	y += 20

	if data.Status != "" {
		rl.DrawText(data.Status, x, y, r.Theme.FontSize, r.Theme.HighlightColor)
		y += r.Theme.LineHeight
	}
	return y + r.Theme.Padding
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-20, 14, rl.Gray)
}

// PerfPanel renders the per-phase generation timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

var perfPhases = []string{
	telemetry.PhaseSelection,
	telemetry.PhaseOffspring,
	telemetry.PhaseEvaluation,
	telemetry.PhaseSort,
	telemetry.PhaseTelemetry,
	telemetry.PhaseExport,
}

// Draw renders the performance panel and returns the Y position below it.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) int32 {
	r := p.renderer
	x := p.x + r.Theme.Padding
	y := p.y

	y = r.DrawSectionHeader(x, y, "Generation Time")
	rl.DrawText(fmt.Sprintf("avg %s  min %s  max %s",
		stats.AvgGeneration.Round(time.Microsecond),
		stats.MinGeneration.Round(time.Microsecond),
		stats.MaxGeneration.Round(time.Microsecond)),
		x, y, r.Theme.FontSize, r.Theme.ValueColor)
	y += r.Theme.LineHeight

	for _, phase := range perfPhases {
		pct := stats.PhasePct[phase]
		y = r.DrawBar(x, y, phase, float32(pct/100), p.width-r.Theme.Padding*2)
	}
	return y
}
