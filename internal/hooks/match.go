package hooks

import (
	"path/filepath"
	"strings"
)

// extensions by file type, pre-commit style identifiers
var typeExtensions = map[string][]string{
	"python":   {".py"},
	"notebook": {".ipynb"},
	"yaml":     {".yaml", ".yml"},
	"json":     {".json"},
	"markdown": {".md"},
	"shell":    {".sh", ".bash"},
	"go":       {".go"},
}

// Matches reports whether a rule applies to a path. Exclusion wins
// over inclusion; an empty files pattern matches everything.
func (r *Rule) Matches(path string) bool {
	path = filepath.ToSlash(path)

	if r.excludeRe != nil && r.excludeRe.MatchString(path) {
		return false
	}
	if r.filesRe != nil && !r.filesRe.MatchString(path) {
		return false
	}
	if len(r.Types) > 0 && !matchesType(path, r.Types) {
		return false
	}
	return true
}

func matchesType(path string, types []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, t := range types {
		if t == "text" {
			return true
		}
		for _, e := range typeExtensions[t] {
			if ext == e {
				return true
			}
		}
	}
	return false
}

// matchingFiles filters a changeset down to what the rule touches.
func (r *Rule) matchingFiles(files []string) []string {
	var matched []string
	for _, f := range files {
		if r.Matches(f) {
			matched = append(matched, f)
		}
	}
	return matched
}
