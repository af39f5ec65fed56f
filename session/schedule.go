package session

// ExportSchedule decides when to write a periodic frame. The first frame is
// due after the initial goal; each export multiplies the goal by the growth
// factor (truncated), so frames thin out as the search slows down.
type ExportSchedule struct {
	goal   int
	growth float64
	count  int
}

// NewExportSchedule creates a schedule. goal < 1 disables exports.
func NewExportSchedule(goal int, growth float64) ExportSchedule {
	return ExportSchedule{goal: goal, growth: growth}
}

// Tick counts one generation and reports whether a frame is due.
func (s *ExportSchedule) Tick() bool {
	if s.goal < 1 {
		return false
	}
	s.count++
	if s.count < s.goal {
		return false
	}
	s.count = 0
	s.goal = max(1, int(float64(s.goal)*s.growth))
	return true
}

// Goal returns the number of generations between the previous and next frame.
func (s ExportSchedule) Goal() int { return s.goal }
