package confkit_test

import (
	"os"
	"path/filepath"
	"testing"

	"quantbt/pkg/confkit"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		file     string
		expected string
	}{
		{
			name:     "absolute path wins",
			base:     "/base/dir",
			file:     "/abs/file.yaml",
			expected: "/abs/file.yaml",
		},
		{
			name:     "relative path joins base",
			base:     "/base/dir",
			file:     "etc/file.yaml",
			expected: "/base/dir/etc/file.yaml",
		},
		{
			name:     "env var expansion",
			base:     "/base/dir",
			file:     "${CONFKIT_TEST_DIR}/file.yaml",
			expected: "/base/dir/sub/file.yaml",
		},
	}

	os.Setenv("CONFKIT_TEST_DIR", "sub")
	defer os.Unsetenv("CONFKIT_TEST_DIR")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := confkit.ResolvePath(tt.base, tt.file); got != tt.expected {
				t.Errorf("ResolvePath() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBaseDir(t *testing.T) {
	if got := confkit.BaseDir("/a/b/quantbt.yaml"); got != "/a/b" {
		t.Errorf("BaseDir() = %v, want /a/b", got)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module.yaml")
	data := []byte("name: ${CONFKIT_LOADFILE_NAME}\ncount: 3\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write module.yaml: %v", err)
	}
	t.Setenv("CONFKIT_LOADFILE_NAME", "expanded")

	type payload struct {
		Name  string
		Count int
	}

	got, err := confkit.LoadFile[payload](path, true)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Name != "expanded" || got.Count != 3 {
		t.Errorf("LoadFile with env = %+v", got)
	}

	raw, err := confkit.LoadFile[payload](path, false)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if raw.Name != "${CONFKIT_LOADFILE_NAME}" {
		t.Errorf("LoadFile without env expanded anyway: %q", raw.Name)
	}

	if _, err := confkit.LoadFile[payload](filepath.Join(dir, "missing.yaml"), false); err == nil {
		t.Error("LoadFile on missing file must fail")
	}
}

func TestProjectRoot(t *testing.T) {
	root, err := confkit.ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err != nil {
		t.Errorf("ProjectRoot %q does not contain go.mod: %v", root, err)
	}

	if got, want := confkit.MustProjectPath("etc/quantbt.yaml"), filepath.Join(root, "etc/quantbt.yaml"); got != want {
		t.Errorf("MustProjectPath() = %v, want %v", got, want)
	}
}

func TestSectionHydrate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "section.yaml")
	if err := os.WriteFile(path, []byte("value: 7\n"), 0o600); err != nil {
		t.Fatalf("write section file: %v", err)
	}

	type payload struct {
		Value int `yaml:"value"`
	}
	loaded := false
	s := confkit.Section[payload]{File: "section.yaml"}
	err := s.Hydrate(dir, func(p string) (*payload, error) {
		loaded = true
		if p != path {
			t.Errorf("loader got %v, want %v", p, path)
		}
		return &payload{Value: 7}, nil
	})
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if !loaded || s.Value == nil || s.Value.Value != 7 {
		t.Errorf("Hydrate did not populate section: %+v", s)
	}
}

func TestSectionHydrate_EmptyFileIsNoop(t *testing.T) {
	type payload struct{}
	var s confkit.Section[payload]
	err := s.Hydrate("/anywhere", func(string) (*payload, error) {
		t.Fatal("loader must not be called")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
}
