package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/navlab-tools/habctl/internal/hooks"
)

var initForce bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config and hooks file",
	Long: `Writes ~/.habctl/config.yaml with the default launcher settings and a
starter ` + hooks.DefaultConfigName + ` in the current directory. Existing
files are left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing files")
}

const defaultConfig = `# habctl launcher configuration
conda:
  root: %s/miniconda3
  env: habitat
  # env_file: .env        # optional dotenv overlay applied after activation

project:
  root: %s/habitat-lab

entry:
  eval: habitat_baselines/run.py
  dataset: psiturk_dataset/generate_dataset.py
  validate: psiturk_dataset/validate_episodes.py
  replay_parser: psiturk_dataset/parser.py

eval:
  default_config: habitat_baselines/config/objectnav/il_objectnav.yaml

store:
  path: %s/.habctl/runs.db

metrics:
  # textfile_dir: /var/lib/node_exporter/textfile_collector
  textfile_dir: ""
`

const defaultHooks = `# Formatting and lint rules, applied to the changeset in order.
hooks:
  - id: black
    name: black
    entry: black
    files: \.py$
    exclude: ^(data/|outputs/)
  - id: isort
    name: isort
    entry: isort
    files: \.py$
    exclude: ^(data/|outputs/)
  - id: flake8
    name: flake8
    entry: flake8
    args: ["--max-line-length", "100"]
    files: \.py$
  - id: yamllint
    name: yamllint
    entry: yamllint
    types: [yaml]

# Paired tutorial sync: scripts are piped through the filter chain in
# order, then converted into their notebook representation.
sync:
  id: sync-tutorials
  name: sync tutorial notebooks
  script_dir: examples/tutorials/nb_python
  notebook_dir: examples/tutorials/colabs
  filters:
    - python scripts/update_nb_metadata.py
    - black -q -
    - sed "s/cv2.imshow/# cv2.imshow/"
    - isort -
  convert: jupytext --from py:percent --to ipynb --output - -
`

func runInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".habctl")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if err := writeIfAbsent(configPath, fmt.Sprintf(defaultConfig, home, home, home)); err != nil {
		return err
	}

	if err := writeIfAbsent(hooks.DefaultConfigName, defaultHooks); err != nil {
		return err
	}
	return nil
}

func writeIfAbsent(path, content string) error {
	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Printf("kept existing %s\n", path)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
