package fat12

// fatEntryCapacity is the number of 12-bit entries that physically fit in
// SectorsPerFAT sectors (each pair of entries packed into 3 bytes). It is
// larger than TotalSectors; the tail entries are always zero and never
// addressed.
const fatEntryCapacity = SectorsPerFAT * BytesPerSector * 2 / 3

// FAT entry value classes.
const (
	fatFree        = 0x000
	fatReservedOne = 0x001
	fatMinLink     = 0x002
	fatMaxLink     = 0xFEF
	fatMinReserved = 0xFF0
	fatMaxReserved = 0xFF6
	fatBad         = 0xFF7
	fatMinEOC      = 0xFF8
	fatMaxEOC      = 0xFFF

	fatMediaEntry0 = 0xF00 | MediaDescriptor // low byte is the media descriptor, stored as entry 0
	fatEOCEntry1   = 0xFFF
)

// sectorDevice is the sector-level seam fatTable needs from an Image. It
// exists so FAT allocation logic can be tested with a mock instead of a
// full Image.
//
//go:generate mockgen -source=fat.go -destination=fat_mock.go -package fat12
type sectorDevice interface {
	ReadSectors(n, count int) ([]byte, error)
	WriteSectors(n, count int, data []byte) error
}

// fatTable is the 12-bit-per-entry File Allocation Table. It keeps both FAT
// copies byte-identical by writing to both on every Set, and isolates the
// nibble-packing logic behind unpack/pack so no call site has to
// reason about bit offsets.
type fatTable struct {
	img     sectorDevice
	entries [fatEntryCapacity]uint16
}

// loadFAT reads and unpacks the first FAT copy from img. The caller is
// responsible for validating that FAT1 and FAT2 agree (see FS.Check).
func loadFAT(img sectorDevice) (*fatTable, error) {
	data, err := img.ReadSectors(FAT1StartSector, SectorsPerFAT)
	if err != nil {
		return nil, err
	}
	t := &fatTable{img: img}
	t.unpack(data)
	return t, nil
}

func (t *fatTable) unpack(data []byte) {
	for i := 0; i+3 <= len(data); i += 3 {
		b0, b1, b2 := data[i], data[i+1], data[i+2]
		a := uint16(b0) | (uint16(b1&0x0F) << 8)
		b := uint16(b1>>4) | (uint16(b2) << 4)
		idx := (i / 3) * 2
		t.entries[idx] = a
		if idx+1 < len(t.entries) {
			t.entries[idx+1] = b
		}
	}
}

func (t *fatTable) pack() []byte {
	data := make([]byte, SectorsPerFAT*BytesPerSector)
	for i := 0; i+1 < fatEntryCapacity; i += 2 {
		a, b := t.entries[i], t.entries[i+1]
		j := (i / 2) * 3
		data[j] = byte(a)
		data[j+1] = byte(a>>8) | byte(b<<4)
		data[j+2] = byte(b >> 4)
	}
	return data
}

// mirror writes the in-memory table to both FAT1 and FAT2.
func (t *fatTable) mirror() error {
	data := t.pack()
	if err := t.img.WriteSectors(FAT1StartSector, SectorsPerFAT, data); err != nil {
		return err
	}
	return t.img.WriteSectors(FAT2StartSector, SectorsPerFAT, data)
}

func (t *fatTable) checkIndex(n int) error {
	if n < 0 || n >= TotalSectors {
		return newErrf(KindBadCluster, "", "cluster %d out of range [0, %d)", n, TotalSectors)
	}
	return nil
}

// Get returns the raw 12-bit value stored for cluster n.
func (t *fatTable) Get(n int) (uint16, error) {
	if err := t.checkIndex(n); err != nil {
		return 0, err
	}
	return t.entries[n], nil
}

// Set writes v for cluster n into both FAT1 and FAT2, synchronously.
func (t *fatTable) Set(n int, v uint16) error {
	if err := t.checkIndex(n); err != nil {
		return err
	}
	t.entries[n] = v & 0xFFF
	return t.mirror()
}

func isFree(v uint16) bool        { return v == fatFree }
func isLink(v uint16) bool        { return v >= fatMinLink && v <= fatMaxLink }
func isReservedVal(v uint16) bool { return v == fatReservedOne || (v >= fatMinReserved && v <= fatMaxReserved) }
func isBad(v uint16) bool         { return v == fatBad }
func isEOC(v uint16) bool         { return v >= fatMinEOC && v <= fatMaxEOC }

// AllocOne scans ascending from cluster 2 for the first free entry, marks it
// end-of-chain, and returns its index. First-fit by ascending cluster number
// keeps formatted images deterministic.
func (t *fatTable) AllocOne() (int, error) {
	for i := FirstDataCluster; i <= MaxDataCluster; i++ {
		if isFree(t.entries[i]) {
			if err := t.Set(i, fatMaxEOC); err != nil {
				return 0, err
			}
			return i, nil
		}
	}
	return 0, newErr(KindNoSpace, "", "no free clusters")
}

// AllocChain allocates k clusters, linking each to the next with the last
// marked end-of-chain. On failure partway through, every cluster allocated
// so far is freed before the error is returned, keeping the table
// consistent.
func (t *fatTable) AllocChain(k int) ([]int, error) {
	if k <= 0 {
		return nil, nil
	}
	clusters := make([]int, 0, k)
	for i := 0; i < k; i++ {
		c, err := t.AllocOne()
		if err != nil {
			t.freeClusters(clusters)
			return nil, err
		}
		if len(clusters) > 0 {
			if err := t.Set(clusters[len(clusters)-1], uint16(c)); err != nil {
				clusters = append(clusters, c)
				t.freeClusters(clusters)
				return nil, err
			}
		}
		clusters = append(clusters, c)
	}
	return clusters, nil
}

func (t *fatTable) freeClusters(clusters []int) {
	for _, c := range clusters {
		t.Set(c, fatFree)
	}
}

// Walk returns the full chain of clusters starting at start, in order. It
// fails with BadChain if the chain touches a free or reserved entry, or
// cycles (detected via a visited set and a hard bound on chain length).
func (t *fatTable) Walk(start int) ([]int, error) {
	if start < FirstDataCluster {
		return nil, newErrf(KindBadChain, "", "chain cannot start at cluster %d", start)
	}
	visited := make(map[int]bool)
	chain := make([]int, 0, 8)
	cur := start
	for {
		if visited[cur] {
			return nil, newErrf(KindBadChain, "", "cycle detected at cluster %d", cur)
		}
		if len(chain) > MaxDataCluster-FirstDataCluster+1 {
			return nil, newErrf(KindBadChain, "", "chain longer than disk capacity")
		}
		visited[cur] = true
		v, err := t.Get(cur)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cur)
		if isEOC(v) {
			return chain, nil
		}
		if isFree(v) || isReservedVal(v) || isBad(v) {
			return nil, newErrf(KindBadChain, "", "cluster %d points to invalid successor 0x%03X", cur, v)
		}
		cur = int(v)
	}
}

// FreeChain walks the chain starting at start and resets every entry to
// free.
func (t *fatTable) FreeChain(start int) error {
	chain, err := t.Walk(start)
	if err != nil {
		return err
	}
	for _, c := range chain {
		if err := t.Set(c, fatFree); err != nil {
			return err
		}
	}
	return nil
}

// Truncate keeps the first keepK clusters of the chain starting at start and
// frees the rest, marking the new tail end-of-chain. If keepK is 0, every
// cluster in the chain is freed and the caller must clear the owning
// directory entry's start cluster.
func (t *fatTable) Truncate(start int, keepK int) error {
	chain, err := t.Walk(start)
	if err != nil {
		return err
	}
	if keepK >= len(chain) {
		return nil
	}
	if keepK > 0 {
		if err := t.Set(chain[keepK-1], fatMaxEOC); err != nil {
			return err
		}
	}
	for _, c := range chain[keepK:] {
		if err := t.Set(c, fatFree); err != nil {
			return err
		}
	}
	return nil
}

// Extend allocates addK additional clusters and appends them to the chain
// starting at start, returning the newly allocated clusters in order.
func (t *fatTable) Extend(start int, addK int) ([]int, error) {
	if addK <= 0 {
		return nil, nil
	}
	chain, err := t.Walk(start)
	if err != nil {
		return nil, err
	}
	tail := chain[len(chain)-1]
	added := make([]int, 0, addK)
	for i := 0; i < addK; i++ {
		c, err := t.AllocOne()
		if err != nil {
			t.freeClusters(added)
			return nil, err
		}
		if err := t.Set(tail, uint16(c)); err != nil {
			added = append(added, c)
			t.freeClusters(added)
			return nil, err
		}
		tail = c
		added = append(added, c)
	}
	return added, nil
}

// ChainLength returns the number of clusters in the chain starting at
// start, as counted by Walk.
func (t *fatTable) ChainLength(start int) (int, error) {
	chain, err := t.Walk(start)
	if err != nil {
		return 0, err
	}
	return len(chain), nil
}

// mirrorsMatch reports whether FAT1 and FAT2 currently agree byte-for-byte.
func (t *fatTable) mirrorsMatch() (bool, error) {
	a, err := t.img.ReadSectors(FAT1StartSector, SectorsPerFAT)
	if err != nil {
		return false, err
	}
	b, err := t.img.ReadSectors(FAT2StartSector, SectorsPerFAT)
	if err != nil {
		return false, err
	}
	for i := range a {
		if a[i] != b[i] {
			return false, nil
		}
	}
	return true, nil
}
