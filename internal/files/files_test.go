package files

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ppiankov/hostgate/internal/fault"
)

func TestReadDirReportsDirectories(t *testing.T) {
	dir := t.TempDir()
	os.Mkdir(filepath.Join(dir, "sub"), 0o755)
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644)

	entries, err := ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, e := range entries {
		got[e.Name] = e.IsDirectory
	}
	if len(got) != 2 || !got["sub"] || got["a.txt"] {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	os.WriteFile(file, []byte("hello"), 0o640)

	info, err := Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsFile || info.IsDirectory || info.Size != 5 {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Mode&0o777 != 0o640 || info.Mode&modeRegular == 0 {
		t.Errorf("unexpected mode %o", info.Mode)
	}
	if info.MtimeMs <= 0 || info.Nlink == 0 {
		t.Errorf("expected times and link count, got %+v", info)
	}

	info, err = Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDirectory || info.Mode&modeDir == 0 {
		t.Errorf("expected directory, got %+v", info)
	}
}

func TestStatFollowsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	os.WriteFile(target, []byte("x"), 0o644)
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}
	info, err := Stat(link)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsFile || !info.IsSymbolicLink {
		t.Fatalf("expected followed symlink, got %+v", info)
	}
}

func TestMkdir(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")

	if err := Mkdir(nested, false, 0); Code(err) != "ENOENT" {
		t.Fatalf("expected ENOENT without recursive, got %v", err)
	}
	if err := Mkdir(nested, true, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := Mkdir(nested, true, 0); err != nil {
		t.Fatalf("recursive mkdir of existing dir: %v", err)
	}
	if err := Mkdir(nested, false, 0); fault.CodeOf(err) != "EEXIST" {
		t.Fatalf("expected EEXIST, got %v", err)
	}
}

func TestUnlinkRefusesDirectories(t *testing.T) {
	dir := t.TempDir()
	err := Unlink(dir)
	if err == nil {
		t.Fatal("expected error unlinking a directory")
	}
	if !fault.Is(err, fault.FS) {
		t.Fatalf("expected FsError, got %v", err)
	}
	if _, statErr := os.Stat(dir); statErr != nil {
		t.Fatal("directory must survive unlink")
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	tree := filepath.Join(dir, "tree")
	os.MkdirAll(filepath.Join(tree, "x"), 0o755)

	if err := Remove(tree, false, false); fault.CodeOf(err) != "ERR_FS_EISDIR" {
		t.Fatalf("expected ERR_FS_EISDIR, got %v", err)
	}
	if err := Remove(tree, true, false); err != nil {
		t.Fatal(err)
	}
	if err := Remove(tree, true, false); fault.CodeOf(err) != "ENOENT" {
		t.Fatalf("expected ENOENT for missing path, got %v", err)
	}
	if err := Remove(tree, true, true); err != nil {
		t.Fatalf("force must ignore a missing path: %v", err)
	}
}

func TestReadWriteRename(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")

	if err := WriteFile(a, []byte{0, 1, 2, 255}); err != nil {
		t.Fatal(err)
	}
	if err := Rename(a, b); err != nil {
		t.Fatal(err)
	}
	data, err := ReadFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "\x00\x01\x02\xff" {
		t.Fatalf("unexpected contents %v", data)
	}
	_, err = ReadFile(a)
	if !strings.HasPrefix(err.Error(), "FsError: ENOENT: ") {
		t.Fatalf("expected ENOENT prefix, got %q", err.Error())
	}
}

func TestDirs(t *testing.T) {
	sep := string(filepath.Separator)
	home := filepath.Join(sep+"home", "ada")
	env := map[string]string{}
	d := Dirs{
		Identifier: "io.phcode",
		home:       func() (string, error) { return home, nil },
		getenv:     func(k string) string { return env[k] },
	}

	tests := []struct {
		goos string
		env  map[string]string
		want string
	}{
		{"linux", nil, filepath.Join(home, ".local", "share", "io.phcode") + sep},
		{"linux", map[string]string{"XDG_DATA_HOME": filepath.Join(sep+"data")}, filepath.Join(sep+"data", "io.phcode") + sep},
		{"darwin", nil, filepath.Join(home, "Library", "Application Support", "io.phcode") + sep},
		{"windows", nil, filepath.Join(home, "AppData", "Local", "io.phcode") + sep},
		{"windows", map[string]string{"LOCALAPPDATA": filepath.Join(sep+"local")}, filepath.Join(sep+"local", "io.phcode") + sep},
	}
	for _, tt := range tests {
		clear(env)
		for k, v := range tt.env {
			env[k] = v
		}
		d.goos = tt.goos
		got, err := d.AppData()
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%s %v: got %q, want %q", tt.goos, tt.env, got, tt.want)
		}
	}

	d.goos = "linux"
	if got, _ := d.Home(); got != home+sep {
		t.Errorf("home = %q", got)
	}
	if got, _ := d.Documents(); got != filepath.Join(home, "Documents")+sep {
		t.Errorf("documents = %q", got)
	}
	if got, _ := d.Assets(); got != filepath.Join(home, ".local", "share", "io.phcode", "assets") {
		t.Errorf("assets = %q", got)
	}
	if drives := d.WindowsDrives(); drives != nil {
		t.Errorf("expected no drives off windows, got %v", drives)
	}
}
