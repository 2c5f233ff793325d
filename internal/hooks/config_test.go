package hooks

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
hooks:
  - id: black
    name: black
    entry: black
    files: \.py$
    exclude: ^data/
  - id: yamllint
    entry: yamllint
    types: [yaml]
sync:
  id: sync-tutorials
  script_dir: tutorials/nb_python
  notebook_dir: tutorials/colabs
  filters:
    - black -q -
    - isort -
  convert: jupytext --to ipynb --output - -
`

func writeConfig(t *testing.T, content string) (afero.Fs, string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".habctl-hooks.yaml", []byte(content), 0644))
	return fs, ".habctl-hooks.yaml"
}

func TestLoadConfig(t *testing.T) {
	fs, path := writeConfig(t, sampleConfig)

	cfg, err := LoadConfig(fs, path)
	require.NoError(t, err)

	require.Len(t, cfg.Hooks, 2)
	assert.Equal(t, "black", cfg.Hooks[0].ID)
	assert.Equal(t, []string{"yaml"}, cfg.Hooks[1].Types)

	require.NotNil(t, cfg.Sync)
	assert.Equal(t, []string{"black -q -", "isort -"}, cfg.Sync.Filters)
}

func TestLoadConfig_MissingID(t *testing.T) {
	fs, path := writeConfig(t, `
hooks:
  - entry: black
`)
	_, err := LoadConfig(fs, path)
	require.Error(t, err)
}

func TestLoadConfig_MissingEntry(t *testing.T) {
	fs, path := writeConfig(t, `
hooks:
  - id: black
`)
	_, err := LoadConfig(fs, path)
	require.Error(t, err)
}

func TestLoadConfig_BadPattern(t *testing.T) {
	fs, path := writeConfig(t, `
hooks:
  - id: black
    entry: black
    files: "(["
`)
	_, err := LoadConfig(fs, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "black")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(afero.NewMemMapFs(), "nope.yaml")
	require.Error(t, err)
}

func TestRuleMatches(t *testing.T) {
	fs, path := writeConfig(t, sampleConfig)
	cfg, err := LoadConfig(fs, path)
	require.NoError(t, err)

	black := cfg.Hooks[0]
	assert.True(t, black.Matches("habitat/core/env.py"))
	assert.False(t, black.Matches("data/episodes/gen.py"), "exclude wins over files")
	assert.False(t, black.Matches("README.md"))

	yamllint := cfg.Hooks[1]
	assert.True(t, yamllint.Matches("configs/tasks/objectnav.yaml"))
	assert.True(t, yamllint.Matches("a.yml"))
	assert.False(t, yamllint.Matches("a.py"))
}
