package fat12

import (
	"io"
	"os"
	"time"

	"github.com/hisahi/fat12/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file, wrapped by checkpoint so
// the underlying *Error (or syscall error, for interface compliance) stays
// reachable through errors.As.
var (
	errReadFile = newErr(KindOutOfRange, "", "could not read file completely")
	errSeekFile = newErr(KindOutOfRange, "", "could not seek inside of file")
)

// File is a positioned handle onto a regular file or a directory, mapping
// byte offsets to clusters through the owning FS's FAT table.
// Write/WriteAt/Truncate/Sync are fully implemented, not stubbed, since
// the write path is the core of a file handle.
type File struct {
	fs   *FS
	path string

	dir   *Directory // parent directory; nil only for the root handle
	idx   int         // slot index of entry within dir
	entry *DirEntry   // nil for the root handle

	isRoot   bool
	isDir    bool
	readOnly bool
	append   bool

	offset int64
	dirty  bool
	closed bool
}

func (f *File) size() int64 {
	if f.isRoot {
		return 0
	}
	return int64(f.entry.FileSize)
}

func (f *File) startCluster() int {
	if f.isRoot || f.entry == nil {
		return 0
	}
	return int(f.entry.StartCluster)
}

// clusters returns the file's full cluster chain, or nil for an empty file.
func (f *File) clusters() ([]int, error) {
	sc := f.startCluster()
	if sc < FirstDataCluster {
		return nil, nil
	}
	return f.fs.fat.Walk(sc)
}

func (f *File) checkOpen() error {
	if f.closed {
		return newErr(KindInvalidated, f.path, "file is closed")
	}
	return nil
}

func (f *File) Close() error {
	if f.closed {
		return nil
	}
	err := f.flush()
	f.closed = true
	return err
}

func (f *File) flush() error {
	if !f.dirty || f.isRoot {
		return nil
	}
	now := f.fs.clock()
	f.entry.ModDate = FormatDate(now)
	f.entry.ModTime = FormatTime(now)
	if err := f.dir.Update(f.idx, f.entry); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

func (f *File) Sync() error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.flush()
}

func (f *File) Read(p []byte) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if f.isDir {
		return 0, checkpoint.Wrap(newErr(KindIsADirectory, f.path, "is a directory"), errReadFile)
	}
	n, err := f.readAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if f.isDir {
		return 0, checkpoint.Wrap(newErr(KindIsADirectory, f.path, "is a directory"), errReadFile)
	}
	return f.readAt(p, off)
}

func (f *File) readAt(p []byte, off int64) (int, error) {
	size := f.size()
	if off >= size {
		return 0, io.EOF
	}
	want := int64(len(p))
	if off+want > size {
		want = size - off
	}
	clusters, err := f.clusters()
	if err != nil {
		return 0, err
	}
	var read int64
	for read < want {
		pos := off + read
		ci := int(pos / BytesPerSector)
		if ci >= len(clusters) {
			break
		}
		boff := int(pos % BytesPerSector)
		sector := clusterSector(clusters[ci])
		data, err := f.fs.img.ReadSector(sector)
		if err != nil {
			return int(read), err
		}
		n := copy(p[read:want], data[boff:])
		read += int64(n)
	}
	var retErr error
	if read < want {
		retErr = io.ErrUnexpectedEOF
	}
	return int(read), retErr
}

// Seek moves the read/write cursor. Only Read/Write (not ReadAt/WriteAt)
// are affected.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.size() + offset
	default:
		return 0, checkpoint.Wrap(newErrf(KindOutOfRange, f.path, "invalid whence %d", whence), errSeekFile)
	}
	if offset < 0 {
		return 0, checkpoint.Wrap(newErrf(KindOutOfRange, f.path, "negative offset %d", offset), errSeekFile)
	}
	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if f.append {
		f.offset = f.size()
	}
	n, err := f.writeAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *File) WriteAt(p []byte, off int64) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	return f.writeAt(p, off)
}

func (f *File) writeAt(p []byte, off int64) (int, error) {
	if f.isDir {
		return 0, newErr(KindIsADirectory, f.path, "is a directory")
	}
	if f.readOnly {
		return 0, newErr(KindReadOnly, f.path, "file is not open for writing")
	}
	if off < 0 {
		return 0, newErrf(KindOutOfRange, f.path, "negative offset %d", off)
	}
	end := off + int64(len(p))
	if end > int64(MaxFileSize) {
		return 0, newErrf(KindNoSpace, f.path, "write would extend file past %d bytes", MaxFileSize)
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := f.growTo(end); err != nil {
		return 0, err
	}
	clusters, err := f.clusters()
	if err != nil {
		return 0, err
	}
	var written int64
	for written < int64(len(p)) {
		pos := off + written
		ci := int(pos / BytesPerSector)
		boff := int(pos % BytesPerSector)
		sector := clusterSector(clusters[ci])
		data, err := f.fs.img.ReadSector(sector)
		if err != nil {
			return int(written), err
		}
		n := copy(data[boff:], p[written:])
		if err := f.fs.img.WriteSector(sector, data); err != nil {
			return int(written), err
		}
		written += int64(n)
	}
	if end > int64(f.entry.FileSize) {
		f.entry.FileSize = uint32(end)
	}
	f.dirty = true
	return int(written), nil
}

// growTo ensures the file's chain has enough clusters to cover byte offset
// newSize, allocating and zero-filling clusters one at a time rather than
// pre-allocating the whole span up front.
func (f *File) growTo(newSize int64) error {
	if newSize <= 0 {
		return nil
	}
	needed := int((newSize + BytesPerSector - 1) / BytesPerSector)
	sc := f.startCluster()
	var have int
	if sc < FirstDataCluster {
		if needed == 0 {
			return nil
		}
		c, err := f.fs.fat.AllocOne()
		if err != nil {
			return err
		}
		if err := zeroCluster(f.fs.img, c); err != nil {
			return err
		}
		f.entry.StartCluster = uint16(c)
		sc = c
		have = 1
	} else {
		chain, err := f.fs.fat.Walk(sc)
		if err != nil {
			return err
		}
		have = len(chain)
	}
	if needed > have {
		added, err := f.fs.fat.Extend(sc, needed-have)
		if err != nil {
			return err
		}
		for _, c := range added {
			if err := zeroCluster(f.fs.img, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func zeroCluster(img *Image, cluster int) error {
	return img.WriteSector(clusterSector(cluster), make([]byte, BytesPerSector))
}

// Truncate resizes the file to size, freeing trailing clusters if it
// shrinks or growing (with zero-filled clusters) if it extends, matching
// the afero.File contract.
func (f *File) Truncate(size int64) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if f.isDir {
		return newErr(KindIsADirectory, f.path, "is a directory")
	}
	if f.readOnly {
		return newErr(KindReadOnly, f.path, "file is not open for writing")
	}
	if size < 0 || size > int64(MaxFileSize) {
		return newErrf(KindOutOfRange, f.path, "invalid truncate size %d", size)
	}
	cur := f.size()
	switch {
	case size > cur:
		if cur%BytesPerSector != 0 {
			clusters, err := f.clusters()
			if err != nil {
				return err
			}
			sector := clusterSector(clusters[cur/BytesPerSector])
			data, err := f.fs.img.ReadSector(sector)
			if err != nil {
				return err
			}
			copy(data[cur%BytesPerSector:], make([]byte, BytesPerSector))
			if err := f.fs.img.WriteSector(sector, data); err != nil {
				return err
			}
		}
		if err := f.growTo(size); err != nil {
			return err
		}
	case size < cur:
		keep := int((size + BytesPerSector - 1) / BytesPerSector)
		sc := f.startCluster()
		if sc >= FirstDataCluster {
			if err := f.fs.fat.Truncate(sc, keep); err != nil {
				return err
			}
			if keep == 0 {
				f.entry.StartCluster = 0
			}
		}
	}
	f.entry.FileSize = uint32(size)
	f.dirty = true
	if f.offset > size {
		f.offset = size
	}
	return nil
}

func (f *File) Name() string {
	return f.path
}

// Readdir lists the directory's live entries, excluding "." and "..", as
// os.FileInfo values.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if !f.isDir {
		return nil, newErr(KindNotADirectory, f.path, "not a directory")
	}
	dir, err := f.dirForListing()
	if err != nil {
		return nil, err
	}
	slots, err := dir.Iter()
	if err != nil {
		return nil, err
	}
	var infos []os.FileInfo
	for _, s := range slots {
		if s.Entry.Name == "." || s.Entry.Name == ".." {
			continue
		}
		infos = append(infos, s.Entry.FileInfo())
	}
	if count <= 0 {
		f.offset = 0
		return infos, nil
	}
	start := int(f.offset)
	if start >= len(infos) {
		return nil, io.EOF
	}
	end := start + count
	if end > len(infos) {
		end = len(infos)
	}
	f.offset = int64(end)
	return infos[start:end], nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	infos, err := f.Readdir(count)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

func (f *File) dirForListing() (*Directory, error) {
	if f.isRoot {
		return newRootDirectory(f.fs.img, f.fs.fat), nil
	}
	if f.entry.StartCluster < FirstDataCluster {
		return newRootDirectory(f.fs.img, f.fs.fat), nil
	}
	return newSubDirectory(f.fs.img, f.fs.fat, int(f.entry.StartCluster))
}

func (f *File) Stat() (os.FileInfo, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	if f.isRoot {
		return rootFileInfo{}, nil
	}
	return f.entry.FileInfo(), nil
}

func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

var _ afero.File = (*File)(nil)

// rootFileInfo is the synthetic os.FileInfo for the root directory, which
// has no directory entry of its own.
type rootFileInfo struct{}

func (rootFileInfo) Name() string       { return "/" }
func (rootFileInfo) Size() int64        { return 0 }
func (rootFileInfo) Mode() os.FileMode  { return os.ModeDir | 0755 }
func (rootFileInfo) ModTime() time.Time { return time.Time{} }
func (rootFileInfo) IsDir() bool        { return true }
func (rootFileInfo) Sys() interface{}   { return nil }
