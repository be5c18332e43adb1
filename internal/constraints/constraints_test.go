package constraints

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConstraint(t *testing.T, dir, relPath, content string) {
	t.Helper()
	full := filepath.Join(Dir(dir), relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", relPath, err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", relPath, err)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
		want  []string
	}{
		{
			name:  "no constraints directory",
			setup: func(t *testing.T, dir string) {},
			want:  []string{},
		},
		{
			name: "empty constraints directory",
			setup: func(t *testing.T, dir string) {
				if err := os.MkdirAll(Dir(dir), 0755); err != nil {
					t.Fatal(err)
				}
			},
			want: []string{},
		},
		{
			name: "markdown list",
			setup: func(t *testing.T, dir string) {
				writeConstraint(t, dir, "stack.md", "# Stack\n\n- Go backend\n* PostgreSQL only\n\n<!-- team defaults -->\n")
			},
			want: []string{"Go backend", "PostgreSQL only"},
		},
		{
			name: "files in path order",
			setup: func(t *testing.T, dir string) {
				writeConstraint(t, dir, "team/budget.txt", "Budget under $500 per month\n")
				writeConstraint(t, dir, "deploy.txt", "Deploy on Kubernetes\n")
			},
			want: []string{"Deploy on Kubernetes", "Budget under $500 per month"},
		},
		{
			name: "multi-line comments and other files skipped",
			setup: func(t *testing.T, dir string) {
				writeConstraint(t, dir, "a.md", "<!--\nignored\n-->\n- Offline first\n")
				writeConstraint(t, dir, "index.yml", "ignored: true\n")
			},
			want: []string{"Offline first"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)

			got, err := Load(dir)
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if got == nil {
				t.Fatal("Load() returned nil, want empty slice")
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Load() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCount(t *testing.T) {
	dir := t.TempDir()
	if n, err := Count(dir); err != nil || n != 0 {
		t.Errorf("Count() = %d, %v; want 0", n, err)
	}

	writeConstraint(t, dir, "a.md", "- one")
	writeConstraint(t, dir, "b/c.txt", "two")
	writeConstraint(t, dir, "notes.yml", "three")
	if n, err := Count(dir); err != nil || n != 2 {
		t.Errorf("Count() = %d, %v; want 2", n, err)
	}
}

func TestMerge(t *testing.T) {
	got := Merge([]string{"Go backend", "  "}, []string{"go backend", "Mobile first", "Mobile first "})
	want := []string{"Go backend", "Mobile first"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Merge() = %q, want %q", got, want)
	}

	if got := Merge(nil, nil); got == nil || len(got) != 0 {
		t.Errorf("Merge(nil, nil) = %#v, want empty slice", got)
	}
}
