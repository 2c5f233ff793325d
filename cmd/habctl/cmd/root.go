package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/navlab-tools/habctl/pkg/logging"
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string
	statusAddr   string
	envOverride  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "habctl",
	Short: "Launcher for habitat-lab training, evaluation and dataset workflows",
	Long: `habctl activates a configured conda environment, dispatches habitat-lab
training/evaluation/dataset-generation runs, keeps a local run history and
enforces the project's formatting hooks.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.habctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&statusAddr, "status-addr", "", "serve run status and metrics on this address while a run is active (e.g. :9721)")
	rootCmd.PersistentFlags().StringVar(&envOverride, "env", "", "conda environment name (overrides config)")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
		os.Exit(1)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".habctl"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("habctl")
	viper.AutomaticEnv()

	viper.SetDefault("conda.root", filepath.Join(home, "miniconda3"))
	viper.SetDefault("conda.env", "habitat")
	viper.SetDefault("conda.env_file", "")
	viper.SetDefault("project.root", filepath.Join(home, "habitat-lab"))
	viper.SetDefault("entry.eval", "habitat_baselines/run.py")
	viper.SetDefault("entry.dataset", "psiturk_dataset/generate_dataset.py")
	viper.SetDefault("entry.validate", "psiturk_dataset/validate_episodes.py")
	viper.SetDefault("entry.replay_parser", "psiturk_dataset/parser.py")
	viper.SetDefault("eval.default_config", "habitat_baselines/config/objectnav/il_objectnav.yaml")
	viper.SetDefault("store.path", filepath.Join(home, ".habctl", "runs.db"))
	viper.SetDefault("metrics.textfile_dir", "")
	viper.SetDefault("hooks.config", "")

	// Missing config file is fine, defaults apply.
	viper.ReadInConfig()
}

// settings is the resolved launcher configuration.
type settings struct {
	CondaRoot   string
	CondaEnv    string
	EnvFile     string
	ProjectRoot string

	EvalEntry         string
	DatasetEntry      string
	ValidateEntry     string
	ReplayParserEntry string
	DefaultEvalConfig string

	StorePath  string
	MetricsDir string
	HooksPath  string
}

func currentSettings() settings {
	s := settings{
		CondaRoot:         viper.GetString("conda.root"),
		CondaEnv:          viper.GetString("conda.env"),
		EnvFile:           viper.GetString("conda.env_file"),
		ProjectRoot:       viper.GetString("project.root"),
		EvalEntry:         viper.GetString("entry.eval"),
		DatasetEntry:      viper.GetString("entry.dataset"),
		ValidateEntry:     viper.GetString("entry.validate"),
		ReplayParserEntry: viper.GetString("entry.replay_parser"),
		DefaultEvalConfig: viper.GetString("eval.default_config"),
		StorePath:         viper.GetString("store.path"),
		MetricsDir:        viper.GetString("metrics.textfile_dir"),
		HooksPath:         viper.GetString("hooks.config"),
	}
	if envOverride != "" {
		s.CondaEnv = envOverride
	}
	return s
}

func newLogger() *logging.Logger {
	return logging.NewLogger(logging.ParseLevel(logLevel), false)
}

// newRunLogger also appends to the habctl log file, so dispatched runs
// stay traceable after the terminal scrolls away.
func newRunLogger() *logging.Logger {
	log, err := logging.NewFileLogger("habctl", logging.ParseLevel(logLevel), false)
	if err != nil {
		return newLogger()
	}
	return log
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}
