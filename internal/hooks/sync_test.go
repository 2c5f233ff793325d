package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainExecer applies a labeled text transform per command so filter
// ordering is observable in the output.
type chainExecer struct {
	calls [][]string
	fail  string
}

func (c *chainExecer) Run(ctx context.Context, argv []string, stdin io.Reader) ([]byte, error) {
	c.calls = append(c.calls, argv)
	if argv[0] == c.fail {
		return nil, errors.New("exit status 1")
	}
	in, err := io.ReadAll(stdin)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("%s(%s)", argv[0], string(in))), nil
}

func syncPipeline(t *testing.T, execer Execer) (*Pipeline, afero.Fs) {
	t.Helper()
	fs, path := writeConfig(t, sampleConfig)
	cfg, err := LoadConfig(fs, path)
	require.NoError(t, err)
	return NewPipeline(cfg, WithFs(fs), WithExecer(execer)), fs
}

func TestSync_FilterChainOrder(t *testing.T) {
	execer := &chainExecer{}
	p, fs := syncPipeline(t, execer)

	script := "tutorials/nb_python/ecp.py"
	require.NoError(t, afero.WriteFile(fs, script, []byte("src"), 0644))

	outcomes, err := p.Sync(context.Background(), []string{script})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, script, outcomes[0].Script)
	assert.Equal(t, "tutorials/colabs/ecp.ipynb", outcomes[0].Notebook)

	// black then isort over the script body, jupytext over the result
	body, err := afero.ReadFile(fs, script)
	require.NoError(t, err)
	assert.Equal(t, "isort(black(src))", string(body))

	nb, err := afero.ReadFile(fs, "tutorials/colabs/ecp.ipynb")
	require.NoError(t, err)
	assert.Equal(t, "jupytext(isort(black(src)))", string(nb))
}

// A changed notebook resolves to its paired script.
func TestSync_NotebookResolvesToPair(t *testing.T) {
	execer := &chainExecer{}
	p, fs := syncPipeline(t, execer)

	require.NoError(t, afero.WriteFile(fs, "tutorials/nb_python/demo.py", []byte("x"), 0644))

	outcomes, err := p.Sync(context.Background(), []string{"tutorials/colabs/demo.ipynb"})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "tutorials/nb_python/demo.py", outcomes[0].Script)
}

func TestSync_OnlyEngagesForPairedFiles(t *testing.T) {
	execer := &chainExecer{}
	p, _ := syncPipeline(t, execer)

	outcomes, err := p.Sync(context.Background(), []string{"habitat/agent.py", "README.md"})
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Empty(t, execer.calls)
}

func TestSync_FilterFailureAborts(t *testing.T) {
	execer := &chainExecer{fail: "isort"}
	p, fs := syncPipeline(t, execer)

	script := "tutorials/nb_python/ecp.py"
	require.NoError(t, afero.WriteFile(fs, script, []byte("src"), 0644))

	_, err := p.Sync(context.Background(), []string{script})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "isort")

	// failed chain must not write back a partial script
	body, readErr := afero.ReadFile(fs, script)
	require.NoError(t, readErr)
	assert.Equal(t, "src", string(body))
}

func TestSync_DeduplicatesPairs(t *testing.T) {
	execer := &chainExecer{}
	p, fs := syncPipeline(t, execer)

	require.NoError(t, afero.WriteFile(fs, "tutorials/nb_python/demo.py", []byte("x"), 0644))

	outcomes, err := p.Sync(context.Background(), []string{
		"tutorials/nb_python/demo.py",
		"tutorials/colabs/demo.ipynb",
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	var converts int
	for _, call := range execer.calls {
		if strings.HasPrefix(call[0], "jupytext") {
			converts++
		}
	}
	assert.Equal(t, 1, converts)
}
