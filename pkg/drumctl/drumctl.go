// Package drumctl selects a drum pattern from decoded beat records.
//
// The bar tracker's per-beat pattern decisions are noisy around pattern
// boundaries; the [Selector] smooths them with a majority vote over a
// sliding window before committing to a pattern change, and holds
// playback commands back during a configurable warm-up. The physical
// drum hardware is an external collaborator behind the [Output]
// interface; [LogOutput] ships for development.
package drumctl

import (
	"log/slog"

	"github.com/00001101-xt/bartrack/pkg/tracker"
)

// Command instructs the actuator to play one beat of a drum pattern.
type Command struct {
	Beat    int // 1-based beat number within the bar
	Pattern int // selected drum pattern index
}

// Output receives playback commands. Implementations drive hardware or
// software drum machines.
type Output interface {
	Play(Command)
}

// Config controls pattern selection.
type Config struct {
	// SmoothWin is the length of the majority-vote window over recently
	// decoded patterns (default 5).
	SmoothWin int

	// Delay is the number of beats to swallow before the first command,
	// giving the tracker time to settle (default 0).
	Delay int
}

// DefaultConfig mirrors the live drummer pipeline.
func DefaultConfig() Config {
	return Config{SmoothWin: 5}
}

// Selector smooths decoded beats into drum playback commands. It holds
// per-stream state; use one per session.
type Selector struct {
	cfg     Config
	out     Output
	recent  []int // ring of recently decoded pattern indices
	next    int
	seen    int
	current int // committed pattern
}

// NewSelector creates a Selector feeding the given output.
func NewSelector(cfg Config, out Output) *Selector {
	if cfg.SmoothWin < 1 {
		cfg.SmoothWin = 1
	}
	return &Selector{
		cfg:     cfg,
		out:     out,
		recent:  make([]int, cfg.SmoothWin),
		current: -1,
	}
}

// Pattern returns the currently committed pattern, or -1 before the first
// vote completes.
func (s *Selector) Pattern() int { return s.current }

// Process consumes one decoded beat. Records without a pattern
// (rec.Pattern < 0) keep the committed pattern. Once the warm-up delay
// has passed a command is sent for every beat.
func (s *Selector) Process(rec tracker.BeatRecord) {
	if rec.Pattern >= 0 {
		s.recent[s.next] = rec.Pattern
		s.next = (s.next + 1) % len(s.recent)
		if s.seen < len(s.recent) {
			s.seen++
		}
		if vote := s.majority(); vote >= 0 {
			s.current = vote
		}
	}
	if s.cfg.Delay > 0 {
		s.cfg.Delay--
		return
	}
	if s.current < 0 && rec.Pattern >= 0 {
		s.current = rec.Pattern
	}
	pattern := s.current
	if pattern < 0 {
		pattern = 0
	}
	s.out.Play(Command{Beat: rec.Number, Pattern: pattern})
}

// majority returns the most frequent pattern in the window once the
// window is full, -1 before that.
func (s *Selector) majority() int {
	if s.seen < len(s.recent) {
		return -1
	}
	counts := make(map[int]int)
	best, bestCount := -1, 0
	for _, p := range s.recent {
		counts[p]++
		if counts[p] > bestCount {
			best, bestCount = p, counts[p]
		}
	}
	return best
}

// LogOutput logs commands instead of driving hardware.
type LogOutput struct {
	Log *slog.Logger // defaults to slog.Default
}

// Play implements [Output].
func (o *LogOutput) Play(cmd Command) {
	log := o.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("drum", "beat", cmd.Beat, "pattern", cmd.Pattern)
}
