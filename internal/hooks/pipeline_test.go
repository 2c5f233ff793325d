package hooks

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecer records invocations and fails commands by name.
type fakeExecer struct {
	calls [][]string
	fail  map[string]string // argv[0] -> output
}

func (f *fakeExecer) Run(ctx context.Context, argv []string, stdin io.Reader) ([]byte, error) {
	f.calls = append(f.calls, argv)
	if out, ok := f.fail[argv[0]]; ok {
		return []byte(out), errors.New("exit status 1")
	}
	return nil, nil
}

func testPipeline(t *testing.T, execer Execer) *Pipeline {
	t.Helper()
	fs, path := writeConfig(t, sampleConfig)
	cfg, err := LoadConfig(fs, path)
	require.NoError(t, err)
	return NewPipeline(cfg, WithFs(fs), WithExecer(execer))
}

func TestPipelineRun_MatchedFilesOnly(t *testing.T) {
	execer := &fakeExecer{}
	p := testPipeline(t, execer)

	results, failed := p.Run(context.Background(), []string{
		"habitat/agent.py",
		"configs/objectnav.yaml",
		"data/excluded.py",
	})

	assert.False(t, failed)
	require.Len(t, results, 2)

	assert.Equal(t, "black", results[0].RuleID)
	assert.True(t, results[0].Passed)
	assert.Equal(t, []string{"habitat/agent.py"}, results[0].Files)

	assert.Equal(t, "yamllint", results[1].RuleID)
	assert.Equal(t, []string{"configs/objectnav.yaml"}, results[1].Files)

	// black gets only the python file, yamllint only the yaml file
	require.Len(t, execer.calls, 2)
	assert.Equal(t, []string{"black", "habitat/agent.py"}, execer.calls[0])
	assert.Equal(t, []string{"yamllint", "configs/objectnav.yaml"}, execer.calls[1])
}

func TestPipelineRun_SkipsWithoutMatches(t *testing.T) {
	execer := &fakeExecer{}
	p := testPipeline(t, execer)

	results, failed := p.Run(context.Background(), []string{"README.md"})

	assert.False(t, failed)
	for _, res := range results {
		assert.True(t, res.Skipped, "rule %s should be skipped", res.RuleID)
	}
	assert.Empty(t, execer.calls, "no tool may run for an empty match set")
}

// A failing rule fails the pipeline but later rules still run.
func TestPipelineRun_FailureDoesNotStopLaterRules(t *testing.T) {
	execer := &fakeExecer{fail: map[string]string{"black": "would reformat agent.py"}}
	p := testPipeline(t, execer)

	results, failed := p.Run(context.Background(), []string{
		"habitat/agent.py",
		"configs/objectnav.yaml",
	})

	assert.True(t, failed)
	require.Len(t, results, 2)
	assert.False(t, results[0].Passed)
	assert.Contains(t, results[0].Output, "would reformat")
	assert.True(t, results[1].Passed, "yamllint must still have run")
	require.Len(t, execer.calls, 2)
}

func TestRuleArgv_EntryLexing(t *testing.T) {
	rule := Rule{
		ID:    "flake8",
		Entry: `flake8 --config "setup cfg/flake8.ini"`,
		Args:  []string{"--max-line-length", "100"},
	}
	require.NoError(t, rule.compile())

	argv, err := rule.argv([]string{"a.py", "b.py"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"flake8", "--config", "setup cfg/flake8.ini",
		"--max-line-length", "100",
		"a.py", "b.py",
	}, argv)
}

func TestRuleArgv_NoFilenames(t *testing.T) {
	no := false
	rule := Rule{ID: "check", Entry: "make lint", PassFilenames: &no}
	require.NoError(t, rule.compile())

	argv, err := rule.argv([]string{"a.py"})
	require.NoError(t, err)
	assert.Equal(t, []string{"make", "lint"}, argv)
}

func TestPipelineRun_Deterministic(t *testing.T) {
	files := []string{"habitat/agent.py", "configs/objectnav.yaml"}

	first := &fakeExecer{}
	testPipeline(t, first).Run(context.Background(), files)
	second := &fakeExecer{}
	testPipeline(t, second).Run(context.Background(), files)

	assert.Equal(t, first.calls, second.calls)
}

func TestAlwaysRun(t *testing.T) {
	fs, path := writeConfig(t, strings.Replace(sampleConfig,
		"  - id: yamllint\n    entry: yamllint\n    types: [yaml]",
		"  - id: check-all\n    entry: make check\n    always_run: true\n    pass_filenames: false", 1))
	cfg, err := LoadConfig(fs, path)
	require.NoError(t, err)

	execer := &fakeExecer{}
	p := NewPipeline(cfg, WithFs(fs), WithExecer(execer))

	results, failed := p.Run(context.Background(), nil)
	assert.False(t, failed)
	require.Len(t, results, 2)
	assert.True(t, results[0].Skipped)
	assert.False(t, results[1].Skipped, "always_run rule engages with an empty changeset")
	require.Len(t, execer.calls, 1)
	assert.Equal(t, []string{"make", "check"}, execer.calls[0])
}
