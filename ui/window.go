package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/glyphs/session"
)

const (
	panelWidth = 300
	margin     = 12
	legend     = "[Space] Pause  [S] Save best  [Q] Quit"
)

// Window is the interactive raylib presenter for a session.
type Window struct {
	s      *session.Session
	paused bool
	quit   bool

	gensPerUpdate int
	topK          int
	previewSize   int

	strip   previewTexture
	compare previewTexture

	stripRect   rl.Rectangle
	compareRect rl.Rectangle
	bestRect    rl.Rectangle
	width       int32
	height      int32

	hud       *HUD
	perf      *PerfPanel
	controls  *ControlsPanel
	inspector *TileInspector
	renderer  *Renderer

	status      string
	statusUntil time.Time
}

// NewWindow lays out the presenter for s. It does not open the window.
func NewWindow(s *session.Session) *Window {
	cfg := s.Config()
	w := &Window{
		s:             s,
		gensPerUpdate: max(1, cfg.Preview.GenerationsPerUpdate),
		topK:          max(1, cfg.Preview.TopK),
		previewSize:   max(64, cfg.Preview.PreviewSize),
		renderer:      NewRenderer(),
	}

	target := s.Bundle().Target()
	areaW := float32(2 * w.previewSize)
	stripW := float32(w.topK * target.Width)
	stripH := float32(target.Height) * areaW / stripW

	w.stripRect = rl.NewRectangle(margin, margin, areaW, stripH)
	w.compareRect = rl.NewRectangle(margin, margin*2+stripH, areaW, float32(w.previewSize))
	w.bestRect = rl.NewRectangle(margin+float32(w.previewSize), w.compareRect.Y, float32(w.previewSize), float32(w.previewSize))

	w.width = int32(areaW) + margin*3 + panelWidth
	w.height = max(int32(w.compareRect.Y+w.compareRect.Height)+margin+24, 600)

	px := w.width - panelWidth - margin
	w.hud = NewHUD(px, margin, panelWidth)
	w.perf = NewPerfPanel(px, 0, panelWidth)
	w.controls = NewControlsPanel(px, 0, panelWidth, s.Population().MutationChance(), w.gensPerUpdate)
	w.inspector = NewTileInspector(px, 0, panelWidth)
	return w
}

// Run opens the window and steps the session until the window is closed,
// Q is pressed or ctx is cancelled.
func (w *Window) Run(ctx context.Context) error {
	cfg := w.s.Config()
	rl.SetConfigFlags(rl.FlagMsaa4xHint)
	rl.InitWindow(w.width, w.height, "glyphs")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(max(1, cfg.Preview.TargetFPS)))
	defer w.strip.unload()
	defer w.compare.unload()

	for !rl.WindowShouldClose() && !w.quit && ctx.Err() == nil {
		w.handleInput()
		if !w.paused {
			w.s.StepN(w.gensPerUpdate)
		}
		w.s.RecordFrame()

		w.strip.update(w.s.TopStrip(w.topK))
		w.compare.update(w.s.Comparison(w.previewSize))
		w.draw()
	}
	return nil
}

func (w *Window) handleInput() {
	if rl.IsKeyPressed(rl.KeyQ) {
		w.quit = true
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		w.togglePause()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		w.saveBest()
	}
}

func (w *Window) togglePause() {
	w.paused = !w.paused
	slog.Info("pause toggled", "paused", w.paused, "generation", w.s.Generation())
}

func (w *Window) saveBest() {
	path, err := w.s.SaveBest()
	if err != nil {
		slog.Error("failed to save best", "error", err)
		w.setStatus("save failed: " + err.Error())
		return
	}
	w.setStatus("saved " + path)
}

func (w *Window) setStatus(msg string) {
	w.status = msg
	w.statusUntil = time.Now().Add(3 * time.Second)
}

func (w *Window) draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()
	rl.ClearBackground(w.renderer.Theme.Background)

	w.strip.draw(w.stripRect)
	w.compare.draw(w.compareRect)
	rl.DrawText(fmt.Sprintf("top %d", w.topK), int32(w.stripRect.X), int32(w.stripRect.Y+w.stripRect.Height)+1, 10, rl.Gray)
	rl.DrawText("target", int32(w.compareRect.X)+4, int32(w.compareRect.Y)+4, 10, rl.Gray)
	rl.DrawText("best", int32(w.bestRect.X)+4, int32(w.bestRect.Y)+4, 10, rl.Gray)

	px := w.width - panelWidth - margin
	w.renderer.DrawPanel(px, margin, panelWidth, w.height-margin*2-24)

	if time.Now().After(w.statusUntil) {
		w.status = ""
	}
	pop := w.s.Population()
	stats := w.s.LastStats()
	perf := w.s.Perf()
	y := w.hud.Draw(HUDData{
		Title:          "Glyphs",
		Generation:     pop.Generation(),
		Best:           pop.Best().CachedFitness(),
		Mean:           stats.Mean,
		Diversity:      stats.Diversity,
		MutationChance: pop.MutationChance(),
		GensPerSecond:  perf.GensPerSecond,
		Elapsed:        w.s.Summary().Elapsed,
		FPS:            rl.GetFPS(),
		Paused:         w.paused,
		Status:         w.status,
	})

	w.perf.SetPosition(px, y)
	y = w.perf.Draw(perf) + margin

	w.controls.SetPosition(px, y)
	actions := w.controls.Draw(w.paused)
	y += 100
	w.applyActions(actions)

	w.inspector.SetPosition(px, y)
	w.inspector.Draw(rl.GetMousePosition(), w.bestRect, pop.Best(), w.s.Bundle())

	w.hud.DrawControls(w.height, legend)
}

func (w *Window) applyActions(a ControlActions) {
	if a.TogglePause {
		w.togglePause()
	}
	if a.SaveBest {
		w.saveBest()
	}
	if a.ChanceChanged {
		if err := w.s.SetMutationChance(a.MutationChance); err != nil {
			slog.Error("failed to set mutation chance", "error", err)
			w.controls.SetChance(w.s.Population().MutationChance())
		}
	}
	w.gensPerUpdate = a.GensPerUpdate
}
