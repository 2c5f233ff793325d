// Package conda prepares the process environment for launching tools
// that live inside a named conda environment. Activation is modeled as
// a pure transform over an environ slice so it can be tested without
// touching the real process state.
package conda

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// Options selects the environment to activate.
type Options struct {
	Root    string // conda installation root, e.g. /opt/miniconda3
	Name    string // environment name, e.g. "habitat"
	EnvFile string // optional dotenv overlay applied after activation
}

// Env is an activated environment ready to be handed to a child process.
type Env struct {
	Name    string
	Prefix  string
	environ []string
}

// Activate resolves the named environment and returns the environ a
// child process should run with. The transform is unconditional:
// any previously active environment is deactivated first, whether or
// not one was active.
func Activate(opts Options) (*Env, error) {
	return ActivateFs(afero.NewOsFs(), os.Environ(), opts)
}

// ActivateFs is Activate with an injectable filesystem and base environ.
func ActivateFs(fs afero.Fs, base []string, opts Options) (*Env, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("conda: environment name is empty")
	}

	prefix := filepath.Join(opts.Root, "envs", opts.Name)
	if opts.Name == "base" {
		prefix = opts.Root
	}

	info, err := fs.Stat(prefix)
	if err != nil {
		return nil, fmt.Errorf("conda: environment %q not found: %w", opts.Name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("conda: environment path %s is not a directory", prefix)
	}

	environ := apply(Deactivate(base), opts.Name, prefix)

	if opts.EnvFile != "" {
		overlay, err := godotenv.Read(opts.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("conda: reading env file %s: %w", opts.EnvFile, err)
		}
		for k, v := range overlay {
			environ = Set(environ, k, v)
		}
	}

	return &Env{Name: opts.Name, Prefix: prefix, environ: environ}, nil
}

// Deactivate strips any active conda environment from environ: all
// CONDA_* variables are dropped and the old prefix's bin directories
// are removed from PATH. Safe to call when nothing is active.
func Deactivate(environ []string) []string {
	oldPrefix, _ := Lookup(environ, "CONDA_PREFIX")

	out := make([]string, 0, len(environ))
	for _, kv := range environ {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if strings.HasPrefix(key, "CONDA_") {
			continue
		}
		out = append(out, kv)
	}

	if oldPrefix != "" {
		if path, ok := Lookup(out, "PATH"); ok {
			out = Set(out, "PATH", stripPrefixEntries(path, oldPrefix))
		}
	}
	return out
}

func apply(environ []string, name, prefix string) []string {
	path, _ := Lookup(environ, "PATH")
	bin := filepath.Join(prefix, "bin")
	if path == "" {
		path = bin
	} else {
		path = bin + string(os.PathListSeparator) + path
	}

	environ = Set(environ, "PATH", path)
	environ = Set(environ, "CONDA_PREFIX", prefix)
	environ = Set(environ, "CONDA_DEFAULT_ENV", name)
	environ = Set(environ, "CONDA_SHLVL", "1")
	return environ
}

func stripPrefixEntries(path, prefix string) string {
	sep := string(os.PathListSeparator)
	parts := strings.Split(path, sep)
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || strings.HasPrefix(p, prefix+string(os.PathSeparator)) || p == prefix {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, sep)
}

// Lookup finds a variable in an environ slice.
func Lookup(environ []string, key string) (string, bool) {
	for _, kv := range environ {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// Set replaces or appends a variable in an environ slice.
func Set(environ []string, key, value string) []string {
	entry := key + "=" + value
	for i, kv := range environ {
		if strings.HasPrefix(kv, key+"=") {
			environ[i] = entry
			return environ
		}
	}
	return append(environ, entry)
}

// Environ returns a copy of the activated environ.
func (e *Env) Environ() []string {
	out := make([]string, len(e.environ))
	copy(out, e.environ)
	return out
}

// Lookup finds a variable in the activated environ.
func (e *Env) Lookup(key string) (string, bool) {
	return Lookup(e.environ, key)
}

// Pythonpath returns the inherited PYTHONPATH. Echoed for diagnostics
// only, never validated.
func (e *Env) Pythonpath() string {
	v, _ := e.Lookup("PYTHONPATH")
	return v
}

// Python returns the interpreter path inside the environment.
func (e *Env) Python() string {
	return filepath.Join(e.Prefix, "bin", "python")
}

// EnterProject changes the working directory to the project root.
// Must run after activation and before dispatch.
func EnterProject(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("conda: project root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("conda: project root %s is not a directory", dir)
	}
	return os.Chdir(dir)
}
