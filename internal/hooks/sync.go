package hooks

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	shlex "github.com/anmitsu/go-shlex"

	"github.com/spf13/afero"
)

// SyncOutcome reports one synchronized pair.
type SyncOutcome struct {
	Script   string
	Notebook string
}

// Sync runs the filter chain over every paired tutorial touched by
// the changeset and writes back both representations. It engages only
// for files that belong to a pair; an empty changeset is a no-op.
func (p *Pipeline) Sync(ctx context.Context, files []string) ([]SyncOutcome, error) {
	rule := p.cfg.Sync
	if rule == nil {
		return nil, nil
	}

	scripts := rule.pairedScripts(files)
	if len(scripts) == 0 {
		return nil, nil
	}

	var outcomes []SyncOutcome
	for _, script := range scripts {
		notebook := rule.notebookFor(script)
		if err := p.syncPair(ctx, rule, script, notebook); err != nil {
			return outcomes, fmt.Errorf("sync %s: %w", script, err)
		}
		outcomes = append(outcomes, SyncOutcome{Script: script, Notebook: notebook})
	}
	return outcomes, nil
}

func (p *Pipeline) syncPair(ctx context.Context, rule *SyncRule, script, notebook string) error {
	content, err := afero.ReadFile(p.fs, script)
	if err != nil {
		return err
	}

	// Filters are applied in declared order, each consuming the
	// previous one's output.
	for _, filter := range rule.Filters {
		argv, err := shlex.Split(filter, true)
		if err != nil {
			return fmt.Errorf("bad filter %q: %w", filter, err)
		}
		out, err := p.exec.Run(ctx, argv, bytes.NewReader(content))
		if err != nil {
			return fmt.Errorf("filter %q: %w", filter, err)
		}
		content = out
	}

	if err := afero.WriteFile(p.fs, script, content, 0644); err != nil {
		return err
	}

	convertArgv, err := shlex.Split(rule.Convert, true)
	if err != nil {
		return fmt.Errorf("bad convert command %q: %w", rule.Convert, err)
	}
	nb, err := p.exec.Run(ctx, convertArgv, bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	if err := p.fs.MkdirAll(filepath.Dir(notebook), 0755); err != nil {
		return err
	}
	return afero.WriteFile(p.fs, notebook, nb, 0644)
}

// pairedScripts maps changed files to their canonical script paths,
// deduplicated and sorted. A changed notebook resolves to its paired
// script; files outside both directories are ignored.
func (r *SyncRule) pairedScripts(files []string) []string {
	seen := make(map[string]bool)
	for _, f := range files {
		f = filepath.ToSlash(f)
		switch {
		case inDir(f, r.ScriptDir) && strings.HasSuffix(f, ".py"):
			seen[f] = true
		case inDir(f, r.NotebookDir) && strings.HasSuffix(f, ".ipynb"):
			stem := strings.TrimSuffix(filepath.Base(f), ".ipynb")
			seen[filepath.ToSlash(filepath.Join(r.ScriptDir, stem+".py"))] = true
		}
	}

	scripts := make([]string, 0, len(seen))
	for s := range seen {
		scripts = append(scripts, s)
	}
	sort.Strings(scripts)
	return scripts
}

func (r *SyncRule) notebookFor(script string) string {
	stem := strings.TrimSuffix(filepath.Base(script), ".py")
	return filepath.ToSlash(filepath.Join(r.NotebookDir, stem+".ipynb"))
}

func inDir(path, dir string) bool {
	dir = filepath.ToSlash(dir)
	return strings.HasPrefix(path, dir+"/")
}
