package fat12

import (
	"encoding/binary"
	"strings"
)

// DirEntrySize is the size in bytes of a single directory entry slot.
const DirEntrySize = 32

// byte offsets within a DirEntrySize-byte directory entry.
const (
	deOffName       = 0
	deOffExt        = 8
	deOffAttr       = 11
	deOffReserved   = 12
	deOffTime       = 22
	deOffDate       = 24
	deOffStartClust = 26
	deOffFileSize   = 28
)

// Attr is the one-byte attribute bitfield of a directory entry.
type Attr byte

// Attribute bits.
const (
	AttrReadOnly   Attr = 0x01
	AttrHidden     Attr = 0x02
	AttrSystem     Attr = 0x04
	AttrVolumeID   Attr = 0x08
	AttrDirectory  Attr = 0x10
	AttrArchive    Attr = 0x20
	attrLFN        Attr = 0x0F // ReadOnly|Hidden|System|VolumeID together
)

func (a Attr) ReadOnly() bool  { return a&AttrReadOnly != 0 }
func (a Attr) Hidden() bool    { return a&AttrHidden != 0 }
func (a Attr) System() bool    { return a&AttrSystem != 0 }
func (a Attr) VolumeID() bool  { return a&AttrVolumeID != 0 }
func (a Attr) Directory() bool { return a&AttrDirectory != 0 }
func (a Attr) Archive() bool   { return a&AttrArchive != 0 }
func (a Attr) isLFN() bool     { return a&attrLFN == attrLFN }

// nameFlag values for DirEntry.Name byte 0.
const (
	nameNeverUsed byte = 0x00
	nameDeleted   byte = 0xE5
	nameAliasedE5 byte = 0x05 // stand-in for a literal 0xE5 at position 0
)

// DirEntry is the decoded form of one 32-byte directory slot.
type DirEntry struct {
	Name         string // normalised "BASE" or "BASE.EXT", upper-case
	Attr         Attr
	ModTime      uint16 // raw packed last-modified time field
	ModDate      uint16 // raw packed last-modified date field
	StartCluster uint16
	FileSize     uint32
}

// slotState classifies a raw 32-byte slot before it is worth decoding into a
// DirEntry.
type slotState int

const (
	slotLive slotState = iota
	slotDeleted
	slotNeverUsed
	slotLFN
)

func classifySlot(raw []byte) slotState {
	switch raw[deOffName] {
	case nameNeverUsed:
		return slotNeverUsed
	case nameDeleted:
		return slotDeleted
	}
	if Attr(raw[deOffAttr]).isLFN() {
		return slotLFN
	}
	return slotLive
}

// illegal83 holds the bytes disallowed in an 8.3 component, beyond the
// 0x00-0x20 control range.
const illegal83 = "*+,/:;<=>?[\\]|\""

func validate83Component(s string) bool {
	if s == "" {
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= 0x20 || strings.IndexByte(illegal83, c) >= 0 {
			return false
		}
	}
	return true
}

// normalizeName validates and upper-cases a "BASE" or "BASE.EXT" component,
// returning the 8.3-normalised form. It fails with BadName if the base
// exceeds 8 characters, the extension exceeds 3, or either contains a
// forbidden byte.
func normalizeName(name string) (string, error) {
	if name == "" {
		return "", newErr(KindBadName, name, "empty name")
	}
	base, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		base, ext = name[:i], name[i+1:]
	}
	base = strings.ToUpper(base)
	ext = strings.ToUpper(ext)
	if len(base) == 0 || len(base) > 8 || len(ext) > 3 {
		return "", newErrf(KindBadName, name, "name component out of 8.3 length bounds")
	}
	if !validate83Component(base) || !validate83Component(ext) {
		return "", newErrf(KindBadName, name, "name contains a character illegal in an 8.3 name")
	}
	if ext == "" {
		return base, nil
	}
	return base + "." + ext, nil
}

// splitNormalized splits an already-normalised "BASE" or "BASE.EXT" name
// into its fixed-width 8-byte and 3-byte OEM fields. The "." and ".."
// entries of a sub-directory are stored whole in the base field.
func splitNormalized(name string) (base [8]byte, ext [3]byte) {
	for i := range base {
		base[i] = ' '
	}
	for i := range ext {
		ext[i] = ' '
	}
	b, e := name, ""
	if name != "." && name != ".." {
		if i := strings.IndexByte(name, '.'); i >= 0 {
			b, e = name[:i], name[i+1:]
		}
	}
	copy(base[:], b)
	copy(ext[:], e)
	return
}

// joinFields reassembles the normalised name string from the fixed-width
// name/extension fields, applying the 0x05-aliases-0xE5 rule in reverse and
// trimming padding.
func joinFields(raw []byte) string {
	nameBytes := make([]byte, 8)
	copy(nameBytes, raw[deOffName:deOffName+8])
	if nameBytes[0] == nameAliasedE5 {
		nameBytes[0] = nameDeleted
	}
	base := strings.TrimRight(string(nameBytes), " ")
	ext := strings.TrimRight(string(raw[deOffExt:deOffExt+3]), " ")
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// ParseDirEntry decodes a single DirEntrySize-byte slot. ok is false (with a
// nil entry and error) for a never-used or deleted slot; callers distinguish
// the two cases with classifySlot on the raw bytes if they need to.
// LFN slots decode as ok == false with no error, so callers simply skip them.
func ParseDirEntry(raw []byte) (entry *DirEntry, ok bool, err error) {
	if len(raw) != DirEntrySize {
		return nil, false, newErrf(KindBadSize, "", "directory entry must be %d bytes, got %d", DirEntrySize, len(raw))
	}
	switch classifySlot(raw) {
	case slotNeverUsed, slotDeleted, slotLFN:
		return nil, false, nil
	}
	e := &DirEntry{
		Name:         joinFields(raw),
		Attr:         Attr(raw[deOffAttr]),
		ModTime:      binary.LittleEndian.Uint16(raw[deOffTime:]),
		ModDate:      binary.LittleEndian.Uint16(raw[deOffDate:]),
		StartCluster: binary.LittleEndian.Uint16(raw[deOffStartClust:]),
		FileSize:     binary.LittleEndian.Uint32(raw[deOffFileSize:]),
	}
	return e, true, nil
}

// Bytes serialises the entry into a fresh DirEntrySize-byte slot. The Name
// must already be normalised (see normalizeName); Bytes does not validate
// it beyond applying the 0x05 alias for a literal leading 0xE5.
func (e *DirEntry) Bytes() []byte {
	raw := make([]byte, DirEntrySize)
	base, ext := splitNormalized(e.Name)
	if base[0] == nameDeleted {
		base[0] = nameAliasedE5
	}
	copy(raw[deOffName:deOffName+8], base[:])
	copy(raw[deOffExt:deOffExt+3], ext[:])
	raw[deOffAttr] = byte(e.Attr)
	binary.LittleEndian.PutUint16(raw[deOffTime:], e.ModTime)
	binary.LittleEndian.PutUint16(raw[deOffDate:], e.ModDate)
	binary.LittleEndian.PutUint16(raw[deOffStartClust:], e.StartCluster)
	binary.LittleEndian.PutUint32(raw[deOffFileSize:], e.FileSize)
	return raw
}

// neverUsedSlot and deletedSlot produce the minimal raw bytes marking a slot
// state; deletedSlot is the tombstone written when an entry is removed.
func neverUsedSlot() []byte { return make([]byte, DirEntrySize) }

func deletedSlot() []byte {
	raw := make([]byte, DirEntrySize)
	raw[deOffName] = nameDeleted
	return raw
}
