package fat12

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hisahi/fat12/checkpoint"
	"github.com/spf13/afero"
)

// Entry is one row of FS.List: the decoded view of a directory entry a
// caller of the domain-level API sees, independent of its on-disk slot.
type Entry struct {
	Name    string
	Size    int64
	Attr    Attr
	ModTime time.Time
	IsDir   bool
}

// FS is the top-level facade over a formatted Image: it implements
// afero.Fs for general-purpose tooling and additionally exposes the
// FAT12-specific surface (List/ReadFile/WriteFile/Delete/Move/Copy/
// Label/...). Every public method is guarded by mu so an FS can be
// shared across goroutines.
type FS struct {
	img   *Image
	fat   *fatTable
	clock Clock

	mu sync.Mutex
}

func newFS(img *Image, fat *fatTable, clock Clock) *FS {
	if clock == nil {
		clock = time.Now
	}
	return &FS{img: img, fat: fat, clock: clock}
}

// Open loads a formatted image from name using the given afero.Fs,
// validates its boot sector and loads its FAT.
func Open(fsys afero.Fs, name string) (*FS, error) {
	img, err := LoadImage(fsys, name)
	if err != nil {
		return nil, err
	}
	return OpenImage(img)
}

// OpenImage validates img's boot sector, loads its FAT, and returns an FS
// backed by it.
func OpenImage(img *Image) (*FS, error) {
	sector0, err := img.ReadSector(0)
	if err != nil {
		return nil, err
	}
	if _, err := ParseBootSector(sector0); err != nil {
		return nil, err
	}
	fat, err := loadFAT(img)
	if err != nil {
		return nil, err
	}
	return newFS(img, fat, time.Now), nil
}

// Image returns the FS's underlying Image, for callers that want to Save it
// through an afero.Fs themselves.
func (fs *FS) Image() *Image {
	return fs.img
}

func isKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

func sameDir(a, b *Directory) bool {
	if a.isRoot || b.isRoot {
		return a.isRoot == b.isRoot
	}
	return a.startCluster == b.startCluster
}

// ---- afero.Fs ----

var _ afero.Fs = (*FS)(nil)

func (fs *FS) Create(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (fs *FS) Open(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

func (fs *FS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if isRootPath(name) {
		if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
			return nil, newErr(KindIsADirectory, name, "cannot open the root directory for writing")
		}
		return &File{fs: fs, path: "/", isRoot: true, isDir: true, readOnly: true}, nil
	}

	parent, compName, trailing, err := resolveParent(fs.img, fs.fat, name)
	if err != nil {
		return nil, err
	}
	entry, idx, lookupErr := parent.Lookup(compName)
	exists := lookupErr == nil
	if !exists && !isKind(lookupErr, KindNotFound) {
		return nil, lookupErr
	}

	if !exists {
		if flag&os.O_CREATE == 0 {
			return nil, lookupErr
		}
		if trailing {
			return nil, newErrf(KindNotADirectory, name, "cannot create a plain file at a directory path")
		}
		now := fs.clock()
		entry = &DirEntry{Name: compName, Attr: AttrArchive, ModDate: FormatDate(now), ModTime: FormatTime(now)}
		idx, err = parent.Insert(entry)
		if err != nil {
			return nil, err
		}
	} else {
		if flag&(os.O_CREATE|os.O_EXCL) == os.O_CREATE|os.O_EXCL {
			return nil, newErrf(KindExists, name, "already exists")
		}
		if trailing && !entry.Attr.Directory() {
			return nil, newErrf(KindNotADirectory, name, "not a directory")
		}
	}

	f := &File{
		fs:       fs,
		path:     name,
		dir:      parent,
		idx:      idx,
		entry:    entry,
		isDir:    entry.Attr.Directory(),
		readOnly: flag&(os.O_WRONLY|os.O_RDWR) == 0,
		append:   flag&os.O_APPEND != 0,
	}
	if flag&os.O_TRUNC != 0 && !f.isDir && !f.readOnly {
		if err := f.Truncate(0); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (fs *FS) Mkdir(name string, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.mkdirLocked(name)
}

func (fs *FS) mkdirLocked(name string) error {
	parent, compName, trailing, err := resolveParent(fs.img, fs.fat, name)
	if err != nil {
		return err
	}
	if _, _, err := parent.Lookup(compName); err == nil {
		return newErrf(KindExists, name, "already exists")
	}
	_ = trailing // a trailing slash on a not-yet-existing path is fine for mkdir
	cluster, err := fs.fat.AllocOne()
	if err != nil {
		return err
	}
	parentCluster := 0
	if !parent.isRoot {
		parentCluster = parent.startCluster
	}
	if err := initSubDirectory(fs.img, fs.fat, cluster, parentCluster, fs.clock); err != nil {
		fs.fat.FreeChain(cluster)
		return err
	}
	now := fs.clock()
	entry := &DirEntry{Name: compName, Attr: AttrDirectory, StartCluster: uint16(cluster),
		ModDate: FormatDate(now), ModTime: FormatTime(now)}
	if _, err := parent.Insert(entry); err != nil {
		fs.fat.FreeChain(cluster)
		return err
	}
	return nil
}

func (fs *FS) MkdirAll(path string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	comps, _ := splitPath(path)
	var built strings.Builder
	for _, c := range comps {
		built.WriteByte('/')
		built.WriteString(c)
		if err := fs.mkdirLocked(built.String()); err != nil && !isKind(err, KindExists) {
			return err
		}
	}
	return nil
}

func (fs *FS) Remove(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.removeLocked(name)
}

func (fs *FS) removeLocked(name string) error {
	parent, compName, _, err := resolveParent(fs.img, fs.fat, name)
	if err != nil {
		return err
	}
	if compName == "." || compName == ".." {
		return newErrf(KindBadName, name, "cannot remove . or ..")
	}
	return parent.Remove(compName)
}

func (fs *FS) RemoveAll(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.removeAllLocked(path)
}

func (fs *FS) removeAllLocked(path string) error {
	parent, name, _, err := resolveParent(fs.img, fs.fat, path)
	if err != nil {
		if isKind(err, KindNotFound) {
			return nil
		}
		return err
	}
	entry, _, err := parent.Lookup(name)
	if err != nil {
		if isKind(err, KindNotFound) {
			return nil
		}
		return err
	}
	if entry.Attr.Directory() {
		sub, err := newSubDirectory(fs.img, fs.fat, int(entry.StartCluster))
		if err != nil {
			return err
		}
		slots, err := sub.Iter()
		if err != nil {
			return err
		}
		for _, s := range slots {
			if s.Entry.Name == "." || s.Entry.Name == ".." {
				continue
			}
			if err := fs.removeAllLocked(path + "/" + s.Entry.Name); err != nil {
				return err
			}
		}
	}
	return parent.Remove(name)
}

// Rename implements both an in-place rename and a cross-directory move; Move
// is a thin wrapper around this. A cross-directory move keeps the entry's
// cluster chain. Unlike os.Rename, it fails Exists if newname already names
// an entry instead of replacing it.
func (fs *FS) Rename(oldname, newname string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.renameLocked(oldname, newname)
}

func (fs *FS) renameLocked(oldname, newname string) error {
	oldParent, oldName, _, err := resolveParent(fs.img, fs.fat, oldname)
	if err != nil {
		return err
	}
	if oldName == "." || oldName == ".." {
		return newErrf(KindBadName, oldname, "cannot rename . or ..")
	}
	entry, oldIdx, err := oldParent.Lookup(oldName)
	if err != nil {
		return err
	}
	newParent, newName, trailing, err := resolveParent(fs.img, fs.fat, newname)
	if err != nil {
		return err
	}
	if trailing && !entry.Attr.Directory() {
		return newErrf(KindNotADirectory, newname, "not a directory")
	}
	if _, _, err := newParent.Lookup(newName); err == nil {
		return newErrf(KindExists, newname, "already exists")
	}

	if sameDir(oldParent, newParent) {
		return oldParent.Rename(oldName, newName)
	}

	moved := *entry
	moved.Name = newName
	if _, err := newParent.Insert(&moved); err != nil {
		return err
	}
	if entry.Attr.Directory() && entry.StartCluster >= FirstDataCluster {
		sub := &Directory{img: fs.img, fat: fs.fat, startCluster: int(entry.StartCluster)}
		dotdot, ok, err := sub.rawEntryAt(1)
		if err != nil || !ok {
			return newErr(KindCorruptDirectory, oldname, "sub-directory missing .. entry")
		}
		dotdot.StartCluster = 0
		if !newParent.isRoot {
			dotdot.StartCluster = uint16(newParent.startCluster)
		}
		if err := sub.Update(1, dotdot); err != nil {
			return err
		}
	}
	return oldParent.writeRawSlot(oldIdx, deletedSlot())
}

func (fs *FS) Stat(name string) (os.FileInfo, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if isRootPath(name) {
		return rootFileInfo{}, nil
	}
	_, entry, _, err := resolveEntry(fs.img, fs.fat, name)
	if err != nil {
		return nil, err
	}
	return entry.FileInfo(), nil
}

func (fs *FS) Name() string {
	return "fat12"
}

func (fs *FS) Chmod(name string, mode os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	parent, compName, _, err := resolveParent(fs.img, fs.fat, name)
	if err != nil {
		return err
	}
	entry, idx, err := parent.Lookup(compName)
	if err != nil {
		return err
	}
	if mode&0200 == 0 {
		entry.Attr |= AttrReadOnly
	} else {
		entry.Attr &^= AttrReadOnly
	}
	return parent.Update(idx, entry)
}

// Chown is a no-op: FAT12 directory entries carry no owner/group.
func (fs *FS) Chown(string, int, int) error {
	return nil
}

func (fs *FS) Chtimes(name string, _ time.Time, mtime time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	parent, compName, _, err := resolveParent(fs.img, fs.fat, name)
	if err != nil {
		return err
	}
	entry, idx, err := parent.Lookup(compName)
	if err != nil {
		return err
	}
	entry.ModDate = FormatDate(mtime)
	entry.ModTime = FormatTime(mtime)
	return parent.Update(idx, entry)
}

// ---- domain-level surface ----

// List returns the live entries of the directory at path, excluding "."/
// ".." and any volume-label pseudo-entry.
func (fs *FS) List(path string) ([]Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dir, err := resolveDir(fs.img, fs.fat, path)
	if err != nil {
		return nil, err
	}
	slots, err := dir.Iter()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, s := range slots {
		if s.Entry.Name == "." || s.Entry.Name == ".." || s.Entry.Attr.VolumeID() {
			continue
		}
		out = append(out, Entry{
			Name:    s.Entry.Name,
			Size:    int64(s.Entry.FileSize),
			Attr:    s.Entry.Attr,
			ModTime: s.Entry.FileInfo().ModTime(),
			IsDir:   s.Entry.Attr.Directory(),
		})
	}
	return out, nil
}

// ReadFile returns the full contents of the file at path.
func (fs *FS) ReadFile(path string) ([]byte, error) {
	f, err := fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, checkpoint.Wrap(err, newErr(KindOutOfRange, path, "could not read file completely"))
	}
	return data, nil
}

// WriteFile overwrites (or creates) the file at path with data: frees any
// existing chain, allocates ceil(len/512) clusters, and writes the new
// contents in one shot.
func (fs *FS) WriteFile(path string, data []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	parent, name, trailing, err := resolveParent(fs.img, fs.fat, path)
	if err != nil {
		return err
	}
	if trailing {
		return newErrf(KindNotADirectory, path, "not a directory")
	}
	return fs.writeFileToParent(parent, name, data)
}

func (fs *FS) writeFileToParent(parent *Directory, name string, data []byte) error {
	if len(data) > MaxFileSize {
		return newErrf(KindNoSpace, name, "file larger than %d bytes", MaxFileSize)
	}
	existing, idx, lookupErr := parent.Lookup(name)
	now := fs.clock()
	var entry *DirEntry
	if lookupErr == nil {
		if existing.Attr.Directory() {
			return newErrf(KindIsADirectory, name, "is a directory")
		}
		if existing.StartCluster >= FirstDataCluster {
			if err := fs.fat.FreeChain(int(existing.StartCluster)); err != nil {
				return err
			}
		}
		existing.StartCluster = 0
		entry = existing
	} else if isKind(lookupErr, KindNotFound) {
		entry = &DirEntry{Name: name, Attr: AttrArchive}
	} else {
		return lookupErr
	}

	if len(data) > 0 {
		n := (len(data) + BytesPerSector - 1) / BytesPerSector
		clusters, err := fs.fat.AllocChain(n)
		if err != nil {
			return err
		}
		entry.StartCluster = uint16(clusters[0])
		for i, c := range clusters {
			buf := make([]byte, BytesPerSector)
			start := i * BytesPerSector
			end := start + BytesPerSector
			if end > len(data) {
				end = len(data)
			}
			copy(buf, data[start:end])
			if err := fs.img.WriteSector(clusterSector(c), buf); err != nil {
				return err
			}
		}
	}
	entry.FileSize = uint32(len(data))
	entry.ModDate = FormatDate(now)
	entry.ModTime = FormatTime(now)

	if lookupErr == nil {
		return parent.Update(idx, entry)
	}
	_, err := parent.Insert(entry)
	return err
}

// Delete removes the file at path. It is an alias for Remove.
func (fs *FS) Delete(path string) error {
	return fs.Remove(path)
}

// Rmdir removes the (empty) directory at path.
func (fs *FS) Rmdir(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	parent, name, _, err := resolveParent(fs.img, fs.fat, path)
	if err != nil {
		return err
	}
	entry, _, err := parent.Lookup(name)
	if err != nil {
		return err
	}
	if !entry.Attr.Directory() {
		return newErrf(KindNotADirectory, path, "not a directory")
	}
	return parent.Remove(name)
}

// Move relocates the file or directory at srcPath into destDir, keeping
// its own name.
func (fs *FS) Move(srcPath, destDir string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, name, _, err := resolveParent(fs.img, fs.fat, srcPath)
	if err != nil {
		return err
	}
	dest := strings.TrimSuffix(destDir, "/") + "/" + name
	return fs.renameLocked(srcPath, dest)
}

// Copy copies the file at srcPath to destPath. If destPath names an
// existing directory, the copy is placed inside it under the source's own
// name. Copying a directory is not supported.
func (fs *FS) Copy(srcPath, destPath string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	srcParent, srcName, _, err := resolveParent(fs.img, fs.fat, srcPath)
	if err != nil {
		return err
	}
	srcEntry, _, err := srcParent.Lookup(srcName)
	if err != nil {
		return err
	}
	if srcEntry.Attr.Directory() {
		return newErrf(KindIsADirectory, srcPath, "cannot copy a directory")
	}

	destParent, destName, _, err := resolveParent(fs.img, fs.fat, destPath)
	if err != nil {
		return err
	}
	if destEntry, _, err := destParent.Lookup(destName); err == nil {
		if sameDir(srcParent, destParent) && destName == srcName {
			return newErrf(KindExists, destPath, "cannot copy a file onto itself")
		}
		if destEntry.Attr.Directory() {
			sub, err := newSubDirectory(fs.img, fs.fat, int(destEntry.StartCluster))
			if err != nil {
				return err
			}
			destParent, destName = sub, srcName
		}
	}

	data, err := fs.readFileEntry(srcEntry)
	if err != nil {
		return err
	}
	return fs.writeFileToParent(destParent, destName, data)
}

func (fs *FS) readFileEntry(entry *DirEntry) ([]byte, error) {
	size := int64(entry.FileSize)
	if size == 0 || entry.StartCluster < FirstDataCluster {
		return nil, nil
	}
	clusters, err := fs.fat.Walk(int(entry.StartCluster))
	if err != nil {
		return nil, err
	}
	data := make([]byte, size)
	var read int64
	for _, c := range clusters {
		if read >= size {
			break
		}
		sector, err := fs.img.ReadSector(clusterSector(c))
		if err != nil {
			return nil, err
		}
		n := copy(data[read:], sector)
		read += int64(n)
	}
	return data, nil
}

// Label returns the volume label, or "" if none is set.
func (fs *FS) Label() (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	root := newRootDirectory(fs.img, fs.fat)
	slots, err := root.Iter()
	if err != nil {
		return "", err
	}
	for _, s := range slots {
		if s.Entry.Attr.VolumeID() {
			raw, err := root.readRawSlot(s.Index)
			if err != nil {
				return "", err
			}
			return rawLabelText(raw), nil
		}
	}
	return "", nil
}

// SetLabel sets (or, given "", clears) the volume label.
func (fs *FS) SetLabel(label string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	field, err := normalizeLabel(label)
	if err != nil {
		return err
	}
	root := newRootDirectory(fs.img, fs.fat)
	slots, err := root.Iter()
	if err != nil {
		return err
	}
	clearing := strings.TrimSpace(label) == ""
	for _, s := range slots {
		if s.Entry.Attr.VolumeID() {
			if clearing {
				return root.writeRawSlot(s.Index, deletedSlot())
			}
			return root.writeRawSlot(s.Index, labelEntryBytes(field, fs.clock()))
		}
	}
	if clearing {
		return nil
	}
	total, err := root.totalSlots()
	if err != nil {
		return err
	}
	for i := 0; i < total; i++ {
		raw, err := root.readRawSlot(i)
		if err != nil {
			return err
		}
		if raw[deOffName] == nameNeverUsed || raw[deOffName] == nameDeleted {
			return root.writeRawSlot(i, labelEntryBytes(field, fs.clock()))
		}
	}
	return newErr(KindDirFull, "", "root directory is full")
}

// locate resolves path to its owning Directory and slot index, or reports
// isRoot for the root directory, which has neither.
func (fs *FS) locate(path string) (dir *Directory, idx int, isRoot bool, err error) {
	if isRootPath(path) {
		return nil, 0, true, nil
	}
	parent, _, idx, err := resolveEntry(fs.img, fs.fat, path)
	return parent, idx, false, err
}

// Exists reports whether path resolves to anything.
func (fs *FS) Exists(path string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if isRootPath(path) {
		return true, nil
	}
	_, _, _, err := resolveEntry(fs.img, fs.fat, path)
	if err == nil {
		return true, nil
	}
	if isKind(err, KindNotFound) || isKind(err, KindNotADirectory) {
		return false, nil
	}
	return false, err
}

// IsFile reports whether path resolves to a regular file.
func (fs *FS) IsFile(path string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if isRootPath(path) {
		return false, nil
	}
	_, entry, _, err := resolveEntry(fs.img, fs.fat, path)
	if err != nil {
		if isKind(err, KindNotFound) || isKind(err, KindNotADirectory) {
			return false, nil
		}
		return false, err
	}
	return !entry.Attr.Directory(), nil
}

// IsDir reports whether path resolves to a directory.
func (fs *FS) IsDir(path string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if isRootPath(path) {
		return true, nil
	}
	_, entry, _, err := resolveEntry(fs.img, fs.fat, path)
	if err != nil {
		if isKind(err, KindNotFound) || isKind(err, KindNotADirectory) {
			return false, nil
		}
		return false, err
	}
	return entry.Attr.Directory(), nil
}

// SameFile reports whether path1 and path2 resolve to the same directory
// slot.
func (fs *FS) SameFile(path1, path2 string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	d1, i1, r1, err := fs.locate(path1)
	if err != nil {
		return false, err
	}
	d2, i2, r2, err := fs.locate(path2)
	if err != nil {
		return false, err
	}
	if r1 || r2 {
		return r1 == r2, nil
	}
	return sameDir(d1, d2) && i1 == i2, nil
}

// SetAttributes sets the read-only/hidden/system/archive bits of the entry
// at path, leaving the directory bit untouched. Attempting to set attributes
// on "." or ".." fails BadName.
func (fs *FS) SetAttributes(path string, attr Attr) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	parent, name, _, err := resolveParent(fs.img, fs.fat, path)
	if err != nil {
		return err
	}
	if name == "." || name == ".." {
		return newErrf(KindBadName, path, "cannot set attributes of . or ..")
	}
	entry, idx, err := parent.Lookup(name)
	if err != nil {
		return err
	}
	const settable = AttrReadOnly | AttrHidden | AttrSystem | AttrArchive
	entry.Attr = (entry.Attr &^ settable) | (attr & settable)
	return parent.Update(idx, entry)
}

// Check validates that the two FAT copies agree, failing CorruptFAT
// otherwise. Unlike Open, Check is never run implicitly: callers decide
// when the cost of a full FAT comparison is worth paying.
func (fs *FS) Check() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	match, err := fs.fat.mirrorsMatch()
	if err != nil {
		return err
	}
	if !match {
		return newErr(KindCorruptFAT, "", "FAT1 and FAT2 do not match")
	}
	return nil
}
