package fat12

import (
	"errors"
	"io/fs"

	"github.com/spf13/afero"
)

// GoDirEntry adapts an os.FileInfo to fs.DirEntry, for GoFile.ReadDir.
type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

// GoFile adapts *File to fs.File/fs.ReadDirFile.
type GoFile struct {
	*File
}

func (g GoFile) Stat() (fs.FileInfo, error) {
	return g.File.Stat()
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := g.File.Readdir(n)
	goEntries := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		goEntries[i] = GoDirEntry{e}
	}
	return goEntries, err
}

// GoFS wraps *FS to be compatible with io/fs.FS, for callers that want to
// hand a FAT12 image to generic fs.FS-consuming code (e.g. html/template,
// archive walkers).
type GoFS struct {
	*FS
}

// NewGoFS opens a FAT12 image from name using fsys as an io/fs.FS.
func NewGoFS(fsys afero.Fs, name string) (*GoFS, error) {
	f, err := Open(fsys, name)
	if err != nil {
		return nil, err
	}
	return &GoFS{f}, nil
}

func (g *GoFS) Open(name string) (fs.File, error) {
	file, err := g.FS.Open(fsPath(name))
	if err != nil {
		return nil, err
	}
	f, ok := file.(*File)
	if !ok {
		return nil, errors.New("fat12: unexpected afero.File implementation")
	}
	return GoFile{f}, nil
}

func (g *GoFS) ReadDir(name string) ([]fs.DirEntry, error) {
	f, err := g.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rdf, ok := f.(fs.ReadDirFile)
	if !ok {
		return nil, errors.New("fat12: not a directory")
	}
	return rdf.ReadDir(-1)
}

func (g *GoFS) Stat(name string) (fs.FileInfo, error) {
	return g.FS.Stat(fsPath(name))
}

// fsPath adapts an io/fs-style relative path (no leading slash, "." for
// the root) to this package's leading-slash-optional convention.
func fsPath(name string) string {
	if name == "." {
		return "/"
	}
	return name
}

var _ fs.FS = (*GoFS)(nil)
var _ fs.ReadDirFS = (*GoFS)(nil)
var _ fs.StatFS = (*GoFS)(nil)
