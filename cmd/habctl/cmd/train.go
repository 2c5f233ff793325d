package cmd

import (
	"github.com/spf13/cobra"

	"github.com/navlab-tools/habctl/internal/launch"
)

var trainExpConfig string

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run training for an experiment config",
	Long:  `Activates the configured conda environment and runs habitat-lab training.`,
	Args:  cobra.NoArgs,
	RunE:  runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().StringVar(&trainExpConfig, "exp-config", "", "experiment config path")
	trainCmd.MarkFlagRequired("exp-config")
}

func runTrain(cmd *cobra.Command, args []string) error {
	s := currentSettings()
	return dispatch(launch.TrainSpec{
		Entry:     s.EvalEntry,
		ExpConfig: trainExpConfig,
	})
}
