package hooks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/spf13/afero"

	"github.com/navlab-tools/habctl/pkg/logging"
)

// Execer runs one tool invocation. Injectable so rule evaluation can
// be tested without the tools installed.
type Execer interface {
	Run(ctx context.Context, argv []string, stdin io.Reader) ([]byte, error)
}

type systemExecer struct{}

func (systemExecer) Run(ctx context.Context, argv []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdin
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

// RuleResult is the outcome of one rule over the changeset.
type RuleResult struct {
	RuleID  string
	Name    string
	Files   []string
	Skipped bool
	Passed  bool
	Output  string
}

// Pipeline evaluates the configured rules.
type Pipeline struct {
	cfg  *Config
	fs   afero.Fs
	exec Execer
	log  *logging.Logger
}

// Option customizes a pipeline.
type Option func(*Pipeline)

// WithFs overrides the filesystem (tests).
func WithFs(fs afero.Fs) Option {
	return func(p *Pipeline) { p.fs = fs }
}

// WithExecer overrides tool execution (tests).
func WithExecer(e Execer) Option {
	return func(p *Pipeline) { p.exec = e }
}

// WithLogger attaches a logger.
func WithLogger(log *logging.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// NewPipeline builds a pipeline for a loaded config.
func NewPipeline(cfg *Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:  cfg,
		fs:   afero.NewOsFs(),
		exec: systemExecer{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Rules returns the configured rules in declared order.
func (p *Pipeline) Rules() []Rule {
	return p.cfg.Hooks
}

// SyncRule returns the configured sync rule, if any.
func (p *Pipeline) SyncRule() *SyncRule {
	return p.cfg.Sync
}

// Run evaluates every rule against the changeset. A failing rule does
// not stop the remaining rules; the second return value reports
// whether any rule failed.
func (p *Pipeline) Run(ctx context.Context, files []string) ([]RuleResult, bool) {
	results := make([]RuleResult, 0, len(p.cfg.Hooks))
	failed := false

	for i := range p.cfg.Hooks {
		rule := &p.cfg.Hooks[i]
		res := p.runRule(ctx, rule, files)
		if !res.Skipped && !res.Passed {
			failed = true
		}
		results = append(results, res)
	}
	return results, failed
}

func (p *Pipeline) runRule(ctx context.Context, rule *Rule, files []string) RuleResult {
	res := RuleResult{RuleID: rule.ID, Name: rule.displayName()}

	matched := rule.matchingFiles(files)
	if len(matched) == 0 && !rule.AlwaysRun {
		res.Skipped = true
		return res
	}
	res.Files = matched

	argv, err := rule.argv(matched)
	if err != nil {
		res.Output = err.Error()
		return res
	}

	if p.log != nil {
		p.log.Debug("running hook", map[string]interface{}{"id": rule.ID, "files": len(matched)})
	}

	out, err := p.exec.Run(ctx, argv, nil)
	res.Output = string(out)
	res.Passed = err == nil
	if err != nil && res.Output == "" {
		res.Output = err.Error()
	}
	return res
}

func (r *Rule) displayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// argv assembles the rule's command line: lexed entry, extra args,
// then the matched files unless pass_filenames is disabled.
func (r *Rule) argv(files []string) ([]string, error) {
	entry, err := shlex.Split(r.Entry, true)
	if err != nil {
		return nil, fmt.Errorf("bad entry %q: %w", r.Entry, err)
	}
	if len(entry) == 0 {
		return nil, fmt.Errorf("empty entry for hook %q", r.ID)
	}

	argv := append(entry, r.Args...)
	if r.PassFilenames == nil || *r.PassFilenames {
		argv = append(argv, files...)
	}
	return argv, nil
}
