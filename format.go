package fat12

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SerialSource returns a 32-bit volume serial number. FormatOptions lets
// callers inject a deterministic one for tests instead of the real
// uuid-derived default, the same seam Clock provides for timestamps.
type SerialSource func() uint32

// defaultSerialSource derives a serial from a random UUID, grounded on the
// volume/filesystem UUID generation pattern other disk-image libraries in
// this ecosystem use (google/uuid's NewRandom).
func defaultSerialSource() uint32 {
	id, err := uuid.NewRandom()
	if err != nil {
		id = uuid.New()
	}
	return binary.LittleEndian.Uint32(id[:4])
}

// FormatOptions configures Format. The zero value uses time.Now as the
// Clock and a random UUID-derived SerialSource.
type FormatOptions struct {
	Clock  Clock
	Serial SerialSource
}

func (o FormatOptions) withDefaults() FormatOptions {
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Serial == nil {
		o.Serial = defaultSerialSource
	}
	return o
}

// Format writes a fresh boot sector, initialises both FAT copies with their
// reserved entries, zeroes the root directory, and optionally writes a
// volume-label entry. It returns an FS opened on the now-formatted image.
func Format(img *Image, label string) (*FS, error) {
	return FormatWithOptions(img, label, FormatOptions{})
}

// FormatWithOptions is Format with an injectable Clock/SerialSource.
func FormatWithOptions(img *Image, label string, opts FormatOptions) (*FS, error) {
	opts = opts.withDefaults()

	labelField, err := normalizeLabel(label)
	if err != nil {
		return nil, err
	}

	bs := &BootSector{
		DriveNumber:  0x00,
		VolumeSerial: opts.Serial(),
		FSType:       [8]byte{'F', 'A', 'T', '1', '2', ' ', ' ', ' '},
	}
	copy(bs.OEMName[:], "FAT12GO ")
	copy(bs.VolumeLabel[:], labelField[:])
	if err := img.WriteSector(0, bs.Bytes()); err != nil {
		return nil, err
	}

	fat := &fatTable{img: img}
	fat.entries[0] = fatMediaEntry0
	fat.entries[1] = fatEOCEntry1
	if err := fat.mirror(); err != nil {
		return nil, err
	}

	zero := make([]byte, BytesPerSector)
	for s := RootDirStartSector; s < RootDirStartSector+RootDirSectors; s++ {
		if err := img.WriteSector(s, zero); err != nil {
			return nil, err
		}
	}

	fs := newFS(img, fat, opts.Clock)

	if strings.TrimSpace(label) != "" {
		root := newRootDirectory(img, fat)
		if err := root.writeRawSlot(0, labelEntryBytes(labelField, opts.Clock())); err != nil {
			return nil, err
		}
	}

	return fs, nil
}

// normalizeLabel upper-cases and validates a volume label, which (unlike an
// 8.3 filename) occupies all 11 name bytes with no extension dot.
func normalizeLabel(label string) ([11]byte, error) {
	var field [11]byte
	for i := range field {
		field[i] = ' '
	}
	label = strings.ToUpper(strings.TrimSpace(label))
	if len(label) > 11 {
		return field, newErrf(KindBadName, label, "volume label longer than 11 characters")
	}
	if !validate83Component(label) {
		return field, newErrf(KindBadName, label, "volume label contains an illegal character")
	}
	copy(field[:], label)
	return field, nil
}

// labelEntryBytes builds the raw 32-byte volume-label directory entry.
// Unlike a filename entry, the 11-byte name field is written verbatim, not
// split into an 8-byte base and 3-byte extension joined by a dot.
func labelEntryBytes(field [11]byte, now time.Time) []byte {
	raw := make([]byte, DirEntrySize)
	copy(raw[deOffName:deOffName+11], field[:])
	raw[deOffAttr] = byte(AttrVolumeID)
	binary.LittleEndian.PutUint16(raw[deOffTime:], FormatTime(now))
	binary.LittleEndian.PutUint16(raw[deOffDate:], FormatDate(now))
	return raw
}

// rawLabelText reads the 11-byte name field of a raw directory slot as
// plain text, trimmed of padding, for volume-label entries.
func rawLabelText(raw []byte) string {
	return strings.TrimRight(string(raw[deOffName:deOffName+11]), " ")
}
