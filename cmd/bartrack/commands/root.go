package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "bartrack",
	Short: "Bar position and rhythmic pattern tracking",
	Long: `bartrack - beat-synchronous downbeat and rhythmic pattern tracking.

Given beat timestamps from an external beat tracker and a per-frame
onset feature, bartrack decides which beat of the bar is sounding and
which rhythmic pattern is being played, using a hidden Markov model over
(pattern, bar position) states with Gaussian mixture observations.

Pattern model files hold the fitted mixtures (YAML or msgpack); see
'bartrack patterns' to inspect them.

Examples:
  # live: one "beat_time feature" line per frame on stdin, 0 = no beat
  beattracker --stream | bartrack track --patterns guitar.yaml

  # offline: decode a whole recording
  bartrack decode --patterns guitar.yaml --beats song.beats --features song.flux

  # downbeats only
  bartrack decode --patterns guitar.yaml --beats song.beats --features song.flux --downbeats`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
