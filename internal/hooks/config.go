// Package hooks runs a declarative, ordered set of formatting and
// linting rules over a changeset, plus a synchronization rule for
// paired script/notebook tutorial content.
package hooks

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultConfigName is the hooks file looked up in the project root.
const DefaultConfigName = ".habctl-hooks.yaml"

// Config is the parsed hooks file.
type Config struct {
	Hooks []Rule    `yaml:"hooks" validate:"dive"`
	Sync  *SyncRule `yaml:"sync,omitempty"`
}

// Rule is one external tool applied to matching files. Rules are
// evaluated independently, in declared order.
type Rule struct {
	ID            string   `yaml:"id" validate:"required"`
	Name          string   `yaml:"name,omitempty"`
	Entry         string   `yaml:"entry" validate:"required"`
	Args          []string `yaml:"args,omitempty"`
	Files         string   `yaml:"files,omitempty"`
	Exclude       string   `yaml:"exclude,omitempty"`
	Types         []string `yaml:"types,omitempty"`
	PassFilenames *bool    `yaml:"pass_filenames,omitempty"`
	AlwaysRun     bool     `yaml:"always_run,omitempty"`

	filesRe   *regexp.Regexp
	excludeRe *regexp.Regexp
}

// SyncRule keeps paired plain-script and notebook representations of
// tutorial content in step. Scripts in ScriptDir pair with notebooks
// of the same stem in NotebookDir. Filters form an ordered chain of
// stdin-to-stdout commands applied to the script body; Convert
// produces the notebook representation from the final script body.
type SyncRule struct {
	ID          string   `yaml:"id" validate:"required"`
	Name        string   `yaml:"name,omitempty"`
	ScriptDir   string   `yaml:"script_dir" validate:"required"`
	NotebookDir string   `yaml:"notebook_dir" validate:"required"`
	Filters     []string `yaml:"filters" validate:"min=1,dive,required"`
	Convert     string   `yaml:"convert" validate:"required"`
}

// LoadConfig reads and validates a hooks file.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading hooks config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing hooks config %s: %w", path, err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid hooks config %s: %w", path, err)
	}

	for i := range cfg.Hooks {
		if err := cfg.Hooks[i].compile(); err != nil {
			return nil, fmt.Errorf("hook %q: %w", cfg.Hooks[i].ID, err)
		}
	}

	return &cfg, nil
}

func (r *Rule) compile() error {
	if r.Files != "" {
		re, err := regexp.Compile(r.Files)
		if err != nil {
			return fmt.Errorf("bad files pattern: %w", err)
		}
		r.filesRe = re
	}
	if r.Exclude != "" {
		re, err := regexp.Compile(r.Exclude)
		if err != nil {
			return fmt.Errorf("bad exclude pattern: %w", err)
		}
		r.excludeRe = re
	}
	return nil
}
