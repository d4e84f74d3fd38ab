package resolver

import (
	"os"
	"path/filepath"
	"testing"
)

// existsOnly returns an ExistsFunc accepting exactly the given paths and
// recording every probe.
func existsOnly(probed *[]string, paths ...string) ExistsFunc {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(p string) bool {
		if probed != nil {
			*probed = append(*probed, p)
		}
		return set[p]
	}
}

func TestResolve_RootedPathsUnchanged(t *testing.T) {
	tests := []string{
		`C:\abs\path`,
		`c:/abs/path`,
		`\rooted\path`,
		`\\server\share\nlog.yaml`,
		"/etc/nlog/nlog.yaml",
	}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			var probed []string
			r := New(StaticEnvironment{"/base"}, existsOnly(&probed))

			if got := r.Resolve(name); got != name {
				t.Errorf("Resolve(%q) = %q, want unchanged", name, got)
			}
			if len(probed) != 0 {
				t.Errorf("Resolve(%q) probed %v, want no existence checks", name, probed)
			}
		})
	}
}

func TestResolve_RelativeHit(t *testing.T) {
	base := filepath.Join("srv", "app")
	want := filepath.Join(base, "rel.cfg")
	r := New(StaticEnvironment{base}, existsOnly(nil, want))

	if got := r.Resolve("rel.cfg"); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolve_RelativeMissReturnsInput(t *testing.T) {
	r := New(StaticEnvironment{"/a", "/b"}, existsOnly(nil))

	if got := r.Resolve("rel.cfg"); got != "rel.cfg" {
		t.Errorf("Resolve() = %q, want %q", got, "rel.cfg")
	}
}

func TestResolve_FirstMatchWins(t *testing.T) {
	var probed []string
	r := New(
		StaticEnvironment{"/first", "/second", "/third"},
		existsOnly(&probed, "/second/nlog.yaml", "/third/nlog.yaml"),
	)

	if got := r.Resolve("nlog.yaml"); got != "/second/nlog.yaml" {
		t.Errorf("Resolve() = %q, want %q", got, "/second/nlog.yaml")
	}

	want := []string{"/first/nlog.yaml", "/second/nlog.yaml"}
	if len(probed) != len(want) {
		t.Fatalf("probed = %v, want %v", probed, want)
	}
	for idx := range want {
		if probed[idx] != want[idx] {
			t.Errorf("probed[%d] = %q, want %q", idx, probed[idx], want[idx])
		}
	}
}

func TestResolve_WindowsBaseKeepsSeparator(t *testing.T) {
	r := New(StaticEnvironment{`C:\app\`}, existsOnly(nil, `C:\app\nlog.config`))

	if got := r.Resolve("nlog.config"); got != `C:\app\nlog.config` {
		t.Errorf("Resolve() = %q, want %q", got, `C:\app\nlog.config`)
	}
}

func TestResolve_EmptyName(t *testing.T) {
	r := New(StaticEnvironment{"/a"}, existsOnly(nil, "/a"))

	if got := r.Resolve(""); got != "" {
		t.Errorf("Resolve(\"\") = %q, want empty", got)
	}
}

func TestDiscover(t *testing.T) {
	r := New(
		StaticEnvironment{"/a", "/b"},
		existsOnly(nil, "/b/nlog.yaml", "/a/app.nlog.yaml", "/abs/found.yaml"),
	)

	tests := []struct {
		name   string
		names  []string
		want   string
		wantOK bool
	}{
		{"first name preferred over later names", []string{"nlog.yaml", "app.nlog.yaml"}, "/b/nlog.yaml", true},
		{"falls through to later names", []string{"missing.yaml", "app.nlog.yaml"}, "/a/app.nlog.yaml", true},
		{"rooted name checked directly", []string{"/abs/found.yaml"}, "/abs/found.yaml", true},
		{"rooted missing skipped", []string{"/abs/missing.yaml", "nlog.yaml"}, "/b/nlog.yaml", true},
		{"nothing found", []string{"none.yaml"}, "", false},
		{"no names", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Discover(tt.names...)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Discover(%v) = (%q, %v), want (%q, %v)", tt.names, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsRooted(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/etc/nlog.yaml", true},
		{`C:\nlog.yaml`, true},
		{"D:/nlog.yaml", true},
		{`\nlog.yaml`, true},
		{"C:nlog.yaml", false},
		{"nlog.yaml", false},
		{"./nlog.yaml", false},
		{"configs/nlog.yaml", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsRooted(tt.path); got != tt.want {
				t.Errorf("IsRooted(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestOSEnvironment_BaseDirectories(t *testing.T) {
	extra := t.TempDir()
	env := OSEnvironment{SearchDirs: []string{"", extra, extra}}

	dirs := env.BaseDirectories()
	if len(dirs) < 2 {
		t.Fatalf("BaseDirectories() = %v, want executable dir and search dir", dirs)
	}
	if dirs[len(dirs)-1] != filepath.Clean(extra) {
		t.Errorf("last directory = %q, want %q", dirs[len(dirs)-1], extra)
	}

	count := 0
	for _, d := range dirs {
		if d == "" {
			t.Error("BaseDirectories() contains an empty entry")
		}
		if d == filepath.Clean(extra) {
			count++
		}
	}
	if count != 1 {
		t.Errorf("search dir appears %d times, want 1", count)
	}
}

func TestOSEnvironment_WorkingDir(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}

	dirs := OSEnvironment{IncludeWorkingDir: true}.BaseDirectories()

	found := false
	for _, d := range dirs {
		if d == filepath.Clean(wd) {
			found = true
		}
	}
	if !found {
		t.Errorf("BaseDirectories() = %v, want to include working dir %q", dirs, wd)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "nlog.yaml")
	if err := os.WriteFile(file, []byte("level: info\n"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if !FileExists(file) {
		t.Error("FileExists() = false for a regular file")
	}
	if FileExists(dir) {
		t.Error("FileExists() = true for a directory")
	}
	if FileExists(filepath.Join(dir, "missing.yaml")) {
		t.Error("FileExists() = true for a missing file")
	}
}

func TestResolve_RealFilesystem(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	want := filepath.Join(second, "nlog.yaml")
	if err := os.WriteFile(want, []byte("level: info\n"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	r := New(OSEnvironment{SearchDirs: []string{first, second}}, nil)

	if got := r.Resolve("nlog.yaml"); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}
