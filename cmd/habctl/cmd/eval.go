package cmd

import (
	"github.com/spf13/cobra"

	"github.com/navlab-tools/habctl/internal/launch"
)

var evalExpConfig string

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval [exp-config]",
	Short: "Run evaluation of a trained agent",
	Long: `Activates the configured conda environment and runs habitat-lab
evaluation against an experiment config. With no argument the configured
default objectnav config is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalExpConfig, "exp-config", "", "experiment config path (same as the positional argument)")
}

func runEval(cmd *cobra.Command, args []string) error {
	s := currentSettings()

	expConfig := s.DefaultEvalConfig
	if len(args) == 1 {
		expConfig = args[0]
	}
	if evalExpConfig != "" {
		expConfig = evalExpConfig
	}

	return dispatch(launch.EvalSpec{
		Entry:     s.EvalEntry,
		ExpConfig: expConfig,
	})
}
