package fat12

// entriesPerCluster is the number of directory slots that fit in one
// cluster (one sector, at this geometry).
const entriesPerCluster = BytesPerSector * SectorsPerCluster / DirEntrySize

// Directory is a logical view over either the fixed-size root directory or
// a cluster-chained sub-directory. It does not cache slot contents; every
// call re-reads from the Image so a Directory stays valid across
// mutations made through the same FAT table.
type Directory struct {
	img          *Image
	fat          *fatTable
	isRoot       bool
	startCluster int // meaningful only when !isRoot
}

// newRootDirectory returns a view over the fixed root directory.
func newRootDirectory(img *Image, fat *fatTable) *Directory {
	return &Directory{img: img, fat: fat, isRoot: true}
}

// newSubDirectory returns a view over the cluster chain starting at
// cluster, failing with CorruptDirectory if its first two entries are not
// the required "." and ".." pair.
func newSubDirectory(img *Image, fat *fatTable, cluster int) (*Directory, error) {
	d := &Directory{img: img, fat: fat, isRoot: false, startCluster: cluster}
	dot, okDot, err := d.rawEntryAt(0)
	if err != nil {
		return nil, err
	}
	dotdot, okDotDot, err := d.rawEntryAt(1)
	if err != nil {
		return nil, err
	}
	if !okDot || !okDotDot || dot.Name != "." || dotdot.Name != ".." {
		return nil, newErr(KindCorruptDirectory, "", "sub-directory missing ./.. pair")
	}
	return d, nil
}

// initSubDirectory zero-fills a freshly allocated cluster and writes its
// "." and ".." entries. parentCluster is 0 if the new directory's parent is
// the root.
func initSubDirectory(img *Image, fat *fatTable, cluster, parentCluster int, clock Clock) error {
	sector := clusterSector(cluster)
	if err := img.WriteSector(sector, make([]byte, BytesPerSector)); err != nil {
		return err
	}
	d := &Directory{img: img, fat: fat, isRoot: false, startCluster: cluster}
	now := clock()
	dot := &DirEntry{Name: ".", Attr: AttrDirectory, StartCluster: uint16(cluster),
		ModDate: FormatDate(now), ModTime: FormatTime(now)}
	dotdot := &DirEntry{Name: "..", Attr: AttrDirectory, StartCluster: uint16(parentCluster),
		ModDate: FormatDate(now), ModTime: FormatTime(now)}
	if err := d.writeRawSlot(0, dot.Bytes()); err != nil {
		return err
	}
	return d.writeRawSlot(1, dotdot.Bytes())
}

func clusterSector(cluster int) int {
	return DataStartSector + (cluster-FirstDataCluster)*SectorsPerCluster
}

// totalSlots returns the number of slots currently backing the directory:
// the fixed 224 for root, or chain-length*entriesPerCluster for a
// sub-directory.
func (d *Directory) totalSlots() (int, error) {
	if d.isRoot {
		return RootEntryCount, nil
	}
	chain, err := d.fat.Walk(d.startCluster)
	if err != nil {
		return 0, err
	}
	return len(chain) * entriesPerCluster, nil
}

func (d *Directory) slotLocation(idx int) (sector, offset int, err error) {
	if d.isRoot {
		if idx < 0 || idx >= RootEntryCount {
			return 0, 0, newErrf(KindOutOfRange, "", "root directory slot %d out of range", idx)
		}
		sector = RootDirStartSector + (idx*DirEntrySize)/BytesPerSector
		offset = (idx * DirEntrySize) % BytesPerSector
		return sector, offset, nil
	}
	chain, err := d.fat.Walk(d.startCluster)
	if err != nil {
		return 0, 0, err
	}
	ci := idx / entriesPerCluster
	if ci < 0 || ci >= len(chain) {
		return 0, 0, newErrf(KindOutOfRange, "", "directory slot %d out of range", idx)
	}
	sector = clusterSector(chain[ci])
	offset = (idx % entriesPerCluster) * DirEntrySize
	return sector, offset, nil
}

func (d *Directory) readRawSlot(idx int) ([]byte, error) {
	sector, offset, err := d.slotLocation(idx)
	if err != nil {
		return nil, err
	}
	data, err := d.img.ReadSector(sector)
	if err != nil {
		return nil, err
	}
	return data[offset : offset+DirEntrySize], nil
}

func (d *Directory) writeRawSlot(idx int, raw []byte) error {
	sector, offset, err := d.slotLocation(idx)
	if err != nil {
		return err
	}
	data, err := d.img.ReadSector(sector)
	if err != nil {
		return err
	}
	copy(data[offset:offset+DirEntrySize], raw)
	return d.img.WriteSector(sector, data)
}

// rawEntryAt decodes the slot at idx. ok is false for deleted/never-used/LFN
// slots, mirroring ParseDirEntry.
func (d *Directory) rawEntryAt(idx int) (*DirEntry, bool, error) {
	raw, err := d.readRawSlot(idx)
	if err != nil {
		return nil, false, err
	}
	return ParseDirEntry(raw)
}

// DirSlot pairs a decoded live entry with its slot index, for callers that
// need to address it again (rename, remove, stat refresh).
type DirSlot struct {
	Index int
	Entry *DirEntry
}

// Iter walks the directory from slot 0, decoding live (non-deleted,
// non-LFN) entries, and stops at the first never-used slot: a never-used
// slot terminates the directory and nothing past it is ever scanned.
func (d *Directory) Iter() ([]DirSlot, error) {
	total, err := d.totalSlots()
	if err != nil {
		return nil, err
	}
	var out []DirSlot
	for i := 0; i < total; i++ {
		raw, err := d.readRawSlot(i)
		if err != nil {
			return nil, err
		}
		switch classifySlot(raw) {
		case slotNeverUsed:
			return out, nil
		case slotDeleted, slotLFN:
			continue
		}
		entry, ok, err := ParseDirEntry(raw)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, DirSlot{Index: i, Entry: entry})
		}
	}
	return out, nil
}

// Lookup finds a live entry by its already-normalised 8.3 name
// (case-insensitive by construction, since normalised names are
// upper-case).
func (d *Directory) Lookup(name string) (*DirEntry, int, error) {
	slots, err := d.Iter()
	if err != nil {
		return nil, 0, err
	}
	for _, s := range slots {
		if s.Entry.Name == name {
			return s.Entry, s.Index, nil
		}
	}
	return nil, 0, newErrf(KindNotFound, name, "no such file or directory")
}

// isEmpty reports whether a sub-directory has no live entries besides "."
// and "..".
func (d *Directory) isEmpty() (bool, error) {
	slots, err := d.Iter()
	if err != nil {
		return false, err
	}
	for _, s := range slots {
		if s.Entry.Name != "." && s.Entry.Name != ".." {
			return false, nil
		}
	}
	return true, nil
}

// Insert fills the first never-used or deleted slot with entry, extending a
// sub-directory's chain by one zero-filled cluster if none is available; a
// full root directory fails DirFull . Fails Exists if a live
// entry with the same name is already present.
func (d *Directory) Insert(entry *DirEntry) (int, error) {
	if _, _, err := d.Lookup(entry.Name); err == nil {
		return 0, newErrf(KindExists, entry.Name, "already exists")
	}
	total, err := d.totalSlots()
	if err != nil {
		return 0, err
	}
	for i := 0; i < total; i++ {
		raw, err := d.readRawSlot(i)
		if err != nil {
			return 0, err
		}
		if raw[deOffName] == nameNeverUsed || raw[deOffName] == nameDeleted {
			if err := d.writeRawSlot(i, entry.Bytes()); err != nil {
				return 0, err
			}
			return i, nil
		}
	}
	if d.isRoot {
		return 0, newErr(KindDirFull, "", "root directory is full")
	}
	added, err := d.fat.Extend(d.startCluster, 1)
	if err != nil {
		return 0, err
	}
	newCluster := added[0]
	if err := d.img.WriteSector(clusterSector(newCluster), make([]byte, BytesPerSector)); err != nil {
		return 0, err
	}
	idx := total
	if err := d.writeRawSlot(idx, entry.Bytes()); err != nil {
		return 0, err
	}
	return idx, nil
}

// Remove marks the named entry's slot deleted and, if it owned a cluster
// chain, frees it. Removing a non-empty sub-directory fails DirNotEmpty.
func (d *Directory) Remove(name string) error {
	entry, idx, err := d.Lookup(name)
	if err != nil {
		return err
	}
	if entry.Attr.Directory() && entry.StartCluster >= FirstDataCluster {
		sub, err := newSubDirectory(d.img, d.fat, int(entry.StartCluster))
		if err != nil {
			return err
		}
		empty, err := sub.isEmpty()
		if err != nil {
			return err
		}
		if !empty {
			return newErrf(KindDirNotEmpty, name, "directory not empty")
		}
	}
	if err := d.writeRawSlot(idx, deletedSlot()); err != nil {
		return err
	}
	if entry.StartCluster >= FirstDataCluster {
		return d.fat.FreeChain(int(entry.StartCluster))
	}
	return nil
}

// Rename renames the slot holding name to newName in place, without moving
// any other field of the entry. Fails Exists if newName already names a
// live entry.
func (d *Directory) Rename(name, newName string) error {
	entry, idx, err := d.Lookup(name)
	if err != nil {
		return err
	}
	if name == newName {
		return nil
	}
	if _, _, err := d.Lookup(newName); err == nil {
		return newErrf(KindExists, newName, "already exists")
	}
	entry.Name = newName
	return d.writeRawSlot(idx, entry.Bytes())
}

// Update rewrites the slot at idx with entry, used by File.Close/Sync to
// persist a new size and modification time.
func (d *Directory) Update(idx int, entry *DirEntry) error {
	return d.writeRawSlot(idx, entry.Bytes())
}
