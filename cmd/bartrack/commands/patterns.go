package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/00001101-xt/bartrack/pkg/pattern"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect and convert pattern model files",
}

var patternsShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Validate and summarize a pattern model file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := pattern.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Println(titleStyle.Render(args[0]))
		fmt.Printf("%s %d    %s %d    %s %d\n",
			dimStyle.Render("patterns:"), len(file.Patterns),
			dimStyle.Render("subdivisions:"), file.Patterns[0].Subdivisions(),
			dimStyle.Render("feature dim:"), file.FeatDim())
		for _, p := range file.Patterns {
			components := 0
			for _, mixes := range p.GMMs {
				for _, mix := range mixes {
					components += len(mix.Components)
				}
			}
			fmt.Printf("  %s  %s %d  %s %d\n",
				titleStyle.Render(p.Name),
				dimStyle.Render("beats/bar:"), p.BeatsPerBar,
				dimStyle.Render("components:"), components)
		}
		return nil
	},
}

var patternsConvertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Re-encode a pattern file (yaml <-> msgpack, by extension)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := pattern.Load(args[0])
		if err != nil {
			return err
		}
		if err := pattern.Save(args[1], file); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", args[1])
		return nil
	},
}

func init() {
	patternsCmd.AddCommand(patternsShowCmd)
	patternsCmd.AddCommand(patternsConvertCmd)
	rootCmd.AddCommand(patternsCmd)
}
