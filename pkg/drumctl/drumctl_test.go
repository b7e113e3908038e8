package drumctl

import (
	"testing"

	"github.com/00001101-xt/bartrack/pkg/tracker"
)

type captureOutput struct {
	commands []Command
}

func (c *captureOutput) Play(cmd Command) { c.commands = append(c.commands, cmd) }

func rec(number, pattern int) tracker.BeatRecord {
	return tracker.BeatRecord{Number: number, Pattern: pattern}
}

func TestSelectorSmoothsSpuriousSwitch(t *testing.T) {
	out := &captureOutput{}
	s := NewSelector(DefaultConfig(), out)

	// Pattern 0 with a single spurious vote for pattern 1: the majority
	// window must never commit to pattern 1.
	patterns := []int{0, 0, 0, 0, 0, 1, 0, 0, 0, 0}
	for i, p := range patterns {
		s.Process(rec(i%4+1, p))
	}
	for i, cmd := range out.commands {
		if cmd.Pattern != 0 {
			t.Errorf("command %d: pattern %d, want 0", i, cmd.Pattern)
		}
	}
	if s.Pattern() != 0 {
		t.Errorf("committed pattern %d, want 0", s.Pattern())
	}
}

func TestSelectorCommitsSustainedSwitch(t *testing.T) {
	out := &captureOutput{}
	s := NewSelector(DefaultConfig(), out)

	for i := 0; i < 8; i++ {
		s.Process(rec(i%4+1, 0))
	}
	for i := 0; i < 5; i++ {
		s.Process(rec(i%4+1, 1))
	}
	if s.Pattern() != 1 {
		t.Errorf("committed pattern %d after sustained switch, want 1", s.Pattern())
	}
}

func TestSelectorDelay(t *testing.T) {
	out := &captureOutput{}
	cfg := DefaultConfig()
	cfg.Delay = 3
	s := NewSelector(cfg, out)

	for i := 0; i < 5; i++ {
		s.Process(rec(i+1, 0))
	}
	if len(out.commands) != 2 {
		t.Fatalf("%d commands, want 2 (3 swallowed by delay)", len(out.commands))
	}
	if out.commands[0].Beat != 4 {
		t.Errorf("first command beat %d, want 4", out.commands[0].Beat)
	}
}

func TestSelectorNoPatternRecords(t *testing.T) {
	out := &captureOutput{}
	s := NewSelector(DefaultConfig(), out)

	// Records without pattern info (tracker without ReturnPattern) still
	// produce commands, defaulting to pattern 0.
	for i := 0; i < 4; i++ {
		s.Process(rec(i+1, -1))
	}
	if len(out.commands) != 4 {
		t.Fatalf("%d commands, want 4", len(out.commands))
	}
	for i, cmd := range out.commands {
		if cmd.Pattern != 0 {
			t.Errorf("command %d: pattern %d, want 0", i, cmd.Pattern)
		}
		if cmd.Beat != i+1 {
			t.Errorf("command %d: beat %d, want %d", i, cmd.Beat, i+1)
		}
	}
}
