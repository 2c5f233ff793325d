package cmd

import (
	"github.com/spf13/cobra"

	"github.com/navlab-tools/habctl/internal/launch"
)

var (
	validateTaskConfig   string
	validateScenes       string
	validatePrevEpisodes string

	replayPath       string
	replayOutputPath string
)

// datasetCmd represents the dataset command
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Generate, validate and convert episode datasets",
}

// datasetGenerateCmd represents the dataset generate command
var datasetGenerateCmd = &cobra.Command{
	Use:   "generate <scene> <task> <episodes-path> [flag]",
	Short: "Generate training episodes for a scene/task pair",
	Long: `Generates training episodes into the given path. Passing the literal
flag value "semantic" as the fourth argument enables semantic scene
annotations; any other value (or none) leaves them off.`,
	Args: cobra.RangeArgs(3, 4),
	RunE: runDatasetGenerate,
}

// datasetValidateCmd represents the dataset validate command
var datasetValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate generated episodes against a task config",
	Args:  cobra.NoArgs,
	RunE:  runDatasetValidate,
}

// datasetReplayParseCmd represents the dataset replay-parse command
var datasetReplayParseCmd = &cobra.Command{
	Use:   "replay-parse",
	Short: "Convert crowdsourced replay data into episodes",
	Args:  cobra.NoArgs,
	RunE:  runDatasetReplayParse,
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetGenerateCmd)
	datasetCmd.AddCommand(datasetValidateCmd)
	datasetCmd.AddCommand(datasetReplayParseCmd)

	datasetValidateCmd.Flags().StringVar(&validateTaskConfig, "task-config", "psiturk_dataset/rearrangement.yaml", "task config for initializing the environment")
	datasetValidateCmd.Flags().StringVar(&validateScenes, "scenes", "", "scene dataset path")
	datasetValidateCmd.Flags().StringVar(&validatePrevEpisodes, "prev-episodes", "data/tasks", "previously generated episodes to validate")

	datasetReplayParseCmd.Flags().StringVar(&replayPath, "replay-path", "data/hit_data", "raw replay data directory")
	datasetReplayParseCmd.Flags().StringVar(&replayOutputPath, "output-path", "data/episodes/data.json", "output episodes file")
}

func runDatasetGenerate(cmd *cobra.Command, args []string) error {
	s := currentSettings()

	flag := ""
	if len(args) == 4 {
		flag = args[3]
	}

	return dispatch(launch.DatasetSpec{
		Entry:        s.DatasetEntry,
		Scene:        args[0],
		Task:         args[1],
		EpisodesPath: args[2],
		Flag:         flag,
	})
}

func runDatasetValidate(cmd *cobra.Command, args []string) error {
	s := currentSettings()
	return dispatch(launch.ValidateSpec{
		Entry:        s.ValidateEntry,
		TaskConfig:   validateTaskConfig,
		Scenes:       validateScenes,
		PrevEpisodes: validatePrevEpisodes,
	})
}

func runDatasetReplayParse(cmd *cobra.Command, args []string) error {
	s := currentSettings()
	return dispatch(launch.ReplayParseSpec{
		Entry:      s.ReplayParserEntry,
		ReplayPath: replayPath,
		OutputPath: replayOutputPath,
	})
}
