// Package tui is the terminal presenter: a bubbletea program that steps the
// session on a timer and shows run stats, a fitness chart and a coarse
// preview of the best chromosome.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/pthm-cable/glyphs/raster"
	"github.com/pthm-cable/glyphs/session"
)

// chanceStep is the factor applied by the +/- keys.
const chanceStep = 1.25

// TickMsg drives one update of the model.
type TickMsg time.Time

// Model is the bubbletea model for a running session.
type Model struct {
	s             *session.Session
	interval      time.Duration
	gensPerUpdate int
	previewWidth  int
	running       bool
	status        string
}

// NewModel builds a model stepping s according to its preview config.
func NewModel(s *session.Session) Model {
	cfg := s.Config().Preview
	fps := max(1, cfg.TargetFPS)
	return Model{
		s:             s,
		interval:      time.Second / time.Duration(fps),
		gensPerUpdate: max(1, cfg.GenerationsPerUpdate),
		previewWidth:  48,
		running:       true,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Init starts the update timer.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles keys and steps the session on each tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "s":
			path, err := m.s.SaveBest()
			if err != nil {
				m.status = "save failed: " + err.Error()
			} else {
				m.status = "saved " + path
			}
		case "+", "=":
			m.scaleChance(chanceStep)
		case "-", "_":
			m.scaleChance(1 / chanceStep)
		}
	case TickMsg:
		if m.running {
			m.s.StepN(m.gensPerUpdate)
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) scaleChance(f float64) {
	p := min(1, m.s.Population().MutationChance()*f)
	if p == 0 {
		p = 0.001
	}
	if err := m.s.SetMutationChance(p); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("mutation chance %.4f", p)
}

// View renders the stats panel next to the best preview.
func (m Model) View() string {
	pop := m.s.Population()
	stats := m.s.LastStats()
	perf := m.s.Perf()

	var s strings.Builder
	s.WriteString(titleStyle.Render("GLYPHS") + "\n")

	state := runningStyle.Render("RUNNING")
	if !m.running {
		state = pausedStyle.Render("PAUSED")
	}
	s.WriteString(state + "\n\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Generation", fmt.Sprintf("%d", pop.Generation()))
	row("Best", fmt.Sprintf("%.0f", pop.Best().CachedFitness()))
	row("Mean", fmt.Sprintf("%.0f", stats.Mean))
	row("Diversity", fmt.Sprintf("%.3f", stats.Diversity))
	row("Mutation", fmt.Sprintf("%.4f", pop.MutationChance()))
	row("Gens/sec", fmt.Sprintf("%.1f", perf.GensPerSecond))
	row("Elapsed", m.s.Summary().Elapsed.Round(time.Second).String())

	if h := m.s.BestHistory(); len(h) >= 2 {
		chart := asciigraph.Plot(h, asciigraph.Height(6), asciigraph.Width(40), asciigraph.Caption("best fitness"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if m.status != "" {
		s.WriteString(statusStyle.Render(m.status) + "\n")
	}
	s.WriteString(helpStyle.Render("[space] pause  [s] save  [+/-] mutation  [q] quit"))

	preview := HalfBlocks(pop.Best().Image(m.s.Bundle()), m.previewWidth)
	return lipgloss.JoinHorizontal(lipgloss.Top, panelStyle.Render(s.String()), panelStyle.Render(preview))
}

// HalfBlocks draws img scaled to width columns using upper half blocks, so
// each character cell shows two vertically stacked pixels.
func HalfBlocks(img raster.Image, width int) string {
	if img.Width == 0 || img.Height == 0 || width < 1 {
		return ""
	}
	height := max(2, img.Height*width/img.Width)
	height += height % 2
	scaled := img.ScaleNearest(width, height)

	var b strings.Builder
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			tr, tg, tb := scaled.At(x, y)
			br, bg, bb := scaled.At(x, y+1)
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(hex(tr, tg, tb))).
				Background(lipgloss.Color(hex(br, bg, bb))).
				Render("▀"))
		}
		if y+2 < height {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func hex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// Run starts the terminal program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, s *session.Session) error {
	p := tea.NewProgram(NewModel(s), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	slog.Info("terminal preview closed", "generation", s.Generation())
	return nil
}
