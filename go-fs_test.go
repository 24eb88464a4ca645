package fat12

import (
	"io"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
)

func newTestGoFS(t *testing.T) *GoFS {
	t.Helper()
	memFs := afero.NewMemMapFs()
	img := NewBlankImage()
	vol, err := FormatWithOptions(img, "", FormatOptions{Clock: fixedClock, Serial: func() uint32 { return 1 }})
	if err != nil {
		t.Fatal(err)
	}
	if err := vol.WriteFile("/A.TXT", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := vol.Mkdir("/DIR", 0755); err != nil {
		t.Fatal(err)
	}
	if err := img.Save(memFs, "disk.img"); err != nil {
		t.Fatal(err)
	}

	gfs, err := NewGoFS(memFs, "disk.img")
	if err != nil {
		t.Fatal(err)
	}
	return gfs
}

func TestGoFSOpenAndRead(t *testing.T) {
	gfs := newTestGoFS(t)
	f, err := gfs.Open("A.TXT")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestGoFSReadDirRoot(t *testing.T) {
	gfs := newTestGoFS(t)
	entries, err := gfs.ReadDir(".")
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	if !names["A.TXT"] || !names["DIR"] {
		t.Errorf("ReadDir(.) = %v, missing expected entries", names)
	}
}

func TestGoFSStat(t *testing.T) {
	gfs := newTestGoFS(t)
	info, err := gfs.Stat("A.TXT")
	if err != nil {
		t.Fatal(err)
	}
	if info.IsDir() {
		t.Error("A.TXT should not stat as a directory")
	}
	if info.Size() != 5 {
		t.Errorf("Size() = %d, want 5", info.Size())
	}
}

var _ fs.FS = (*GoFS)(nil)
