// Package constraints loads project-wide constraints that apply to every
// plan, kept as text files under .kickoff/constraints/.
package constraints

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jywlabs/kickoff/internal/template"
)

var extensions = map[string]bool{".md": true, ".txt": true}

// Dir returns the constraints directory under dir.
func Dir(dir string) string {
	return filepath.Join(dir, template.KickoffDir, template.ConstraintsDir)
}

// Load reads every .md and .txt file in the constraints directory, in path
// order, and returns one constraint per line. Blank lines, headings and
// HTML comments are skipped and list markers are stripped.
// A missing directory yields no constraints.
func Load(dir string) ([]string, error) {
	files, err := list(Dir(dir))
	if err != nil {
		return nil, err
	}

	out := []string{}
	for _, path := range files {
		lines, err := readLines(path)
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}
	return out, nil
}

// Count returns the number of constraint files.
func Count(dir string) (int, error) {
	files, err := list(Dir(dir))
	return len(files), err
}

// Merge appends extra to base, dropping repeats (case-insensitive) and
// keeping first-seen order.
func Merge(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, c := range append(append([]string{}, base...), extra...) {
		key := strings.ToLower(strings.TrimSpace(c))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(c))
	}
	return out
}

func list(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && extensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load constraints: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read constraint file %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	inComment := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case inComment:
			if strings.Contains(line, "-->") {
				inComment = false
			}
			continue
		case strings.HasPrefix(line, "<!--"):
			inComment = !strings.Contains(line, "-->")
			continue
		case line == "", strings.HasPrefix(line, "#"):
			continue
		}
		for _, marker := range []string{"- [ ] ", "- ", "* ", "+ "} {
			if strings.HasPrefix(line, marker) {
				line = strings.TrimSpace(strings.TrimPrefix(line, marker))
				break
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read constraint file %s: %w", path, err)
	}
	return out, nil
}
