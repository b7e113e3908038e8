package commands

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/00001101-xt/bartrack/pkg/beatsync"
	"github.com/00001101-xt/bartrack/pkg/drumctl"
	"github.com/00001101-xt/bartrack/pkg/pattern"
	"github.com/00001101-xt/bartrack/pkg/tracker"
)

var (
	trackPatterns   string
	trackChangeProb float64
	trackFPS        float64
	trackDownbeats  bool
	trackBump       bool
	trackPatternOut bool
	trackDrums      bool
	trackSmoothWin  int
	trackDelay      int
)

var trackCmd = &cobra.Command{
	Use:   "track --patterns <file>",
	Short: "Streaming bar tracking from stdin",
	Long: `Track bar positions on a live stream.

Reads one "beat_time feature" pair per audio frame from stdin at the
feature frame rate. A beat time of 0 marks a frame without a beat; the
sender must emit a line for every frame so this command can stay in
sync. The first unparseable line (including EOF) ends the stream
gracefully.

For every decoded beat one "time<TAB>number" line is written to stdout;
--pattern-out appends the decoded pattern index. With --drums, smoothed
drum pattern commands are additionally logged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := buildTracker()
		if err != nil {
			return err
		}
		session := tr.NewSession()

		var selector *drumctl.Selector
		if trackDrums {
			cfg := drumctl.DefaultConfig()
			cfg.SmoothWin = trackSmoothWin
			cfg.Delay = trackDelay
			selector = drumctl.NewSelector(cfg, &drumctl.LogOutput{})
		}

		out := bufio.NewWriter(os.Stdout)
		defer out.Flush()

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			beat, feature, ok := parseFrame(scanner.Text())
			if !ok {
				// Anything unparseable is the end-of-stream signal.
				break
			}
			rec, err := session.Feed(beat, []float64{feature})
			if err != nil {
				// A corrupt step stays local; the session remains usable.
				slog.Warn("skipping beat", "err", err)
				continue
			}
			if rec == nil {
				continue
			}
			writeRecord(out, rec)
			out.Flush()
			if selector != nil {
				selector.Process(*rec)
			}
		}
		return scanner.Err()
	},
}

// parseFrame parses one "beat_time feature" input line. A beat time of 0
// means no beat on this frame.
func parseFrame(line string) (beatsync.Beat, float64, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return beatsync.NoBeat(), 0, false
	}
	beatTime, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return beatsync.NoBeat(), 0, false
	}
	feature, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return beatsync.NoBeat(), 0, false
	}
	beat := beatsync.NoBeat()
	if beatTime != 0 {
		beat = beatsync.At(beatTime)
	}
	return beat, feature, true
}

func writeRecord(out *bufio.Writer, rec *tracker.BeatRecord) {
	if rec.Pattern >= 0 {
		fmt.Fprintf(out, "%.3f\t%d\t%d\n", rec.Time, rec.Number, rec.Pattern)
		return
	}
	fmt.Fprintf(out, "%.3f\t%d\n", rec.Time, rec.Number)
}

// buildTracker loads the pattern file and constructs a tracker from the
// shared tracking flags.
func buildTracker() (*tracker.Tracker, error) {
	if trackPatterns == "" {
		return nil, fmt.Errorf("flag --patterns is required")
	}
	file, err := pattern.Load(trackPatterns)
	if err != nil {
		return nil, err
	}
	cfg := tracker.DefaultConfig()
	cfg.PatternChangeProb = trackChangeProb
	cfg.FPS = trackFPS
	cfg.Downbeats = trackDownbeats
	cfg.BumpBeatNumber = trackBump
	cfg.ReturnPattern = trackPatternOut || trackDrums
	return tracker.New(file, cfg)
}

func addTrackingFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&trackPatterns, "patterns", "", "pattern model file (.yaml or .mpk)")
	cmd.Flags().Float64Var(&trackChangeProb, "change-prob", 1e-7, "per-beat pattern change probability")
	cmd.Flags().Float64Var(&trackFPS, "fps", 100, "feature frame rate in Hz")
	cmd.Flags().BoolVar(&trackDownbeats, "downbeats", false, "output downbeats only")
	cmd.Flags().BoolVar(&trackBump, "bump", false, "bump beat numbers by one beat (streaming label convention)")
	cmd.Flags().BoolVar(&trackPatternOut, "pattern-out", false, "append the decoded pattern index to each record")
}

func init() {
	addTrackingFlags(trackCmd)
	trackCmd.Flags().BoolVar(&trackDrums, "drums", false, "log smoothed drum pattern commands")
	trackCmd.Flags().IntVar(&trackSmoothWin, "smooth", 5, "drum pattern majority-vote window (beats)")
	trackCmd.Flags().IntVar(&trackDelay, "delay", 0, "drum command warm-up delay (beats)")
	rootCmd.AddCommand(trackCmd)
}
