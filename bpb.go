package fat12

import "encoding/binary"

// Geometry constants for a 1.44 MB (3.5", high density) floppy disk image.
// This module supports only this geometry; anything else fails to parse
// with an UnsupportedGeometry error.
const (
	BytesPerSector    = 512
	SectorsPerCluster = 1
	ReservedSectors   = 1
	NumFATs           = 2
	RootEntryCount    = 224
	RootDirSectors    = RootEntryCount * DirEntrySize / BytesPerSector // 14
	TotalSectors      = 2880
	MediaDescriptor   = 0xF0
	SectorsPerFAT     = 9
	SectorsPerTrack   = 18
	NumberOfHeads     = 2

	ImageSize = TotalSectors * BytesPerSector // 1,474,560 bytes

	FAT1StartSector    = ReservedSectors                                  // 1
	FAT2StartSector    = FAT1StartSector + SectorsPerFAT                  // 10
	RootDirStartSector = FAT2StartSector + SectorsPerFAT                  // 19
	DataStartSector    = RootDirStartSector + RootDirSectors              // 33
	FirstDataCluster   = 2
	MaxDataCluster     = FirstDataCluster + (TotalSectors-DataStartSector)/SectorsPerCluster - 1 // 2,848
	MaxFileSize        = (MaxDataCluster - FirstDataCluster + 1) * BytesPerSector * SectorsPerCluster
)

// offsets within the 512-byte boot sector.
const (
	offJump           = 0x00
	offOEMName        = 0x03
	offBytesPerSector = 0x0B
	offSecPerCluster  = 0x0D
	offReservedSecs   = 0x0E
	offNumFATs        = 0x10
	offRootEntries    = 0x11
	offTotalSectors16 = 0x13
	offMedia          = 0x15
	offSectorsPerFAT  = 0x16
	offSectorsPerTrk  = 0x18
	offNumberOfHeads  = 0x1A
	offHiddenSectors  = 0x1C
	offTotalSectors32 = 0x20
	offDriveNumber    = 0x24
	offReserved1      = 0x25
	offBootSig        = 0x26
	offVolumeSerial   = 0x27
	offVolumeLabel    = 0x2B
	offFSType         = 0x36
	offBootstrapCode  = 0x3E
	offSignature      = 0x1FE

	extBootSignature = 0x29
	bootSectorSig0   = 0x55
	bootSectorSig1   = 0xAA
)

// BootSector is the parsed contents of sector 0 of the image: the jump
// instruction, OEM name, BIOS Parameter Block, extended (DOS 3.31) BPB, and
// the 0x55AA signature.
type BootSector struct {
	OEMName       [8]byte
	DriveNumber   byte
	VolumeSerial  uint32
	VolumeLabel   [11]byte
	FSType        [8]byte
	BootstrapCode [offSignature - offBootstrapCode]byte
}

// ParseBootSector validates and decodes a 512-byte boot sector. It fails
// with an UnsupportedGeometry error if the encoded BPB does not describe a
// standard 1.44 MB floppy.
func ParseBootSector(sector []byte) (*BootSector, error) {
	if len(sector) != BytesPerSector {
		return nil, newErrf(KindBadSize, "", "boot sector must be %d bytes, got %d", BytesPerSector, len(sector))
	}

	if sector[offSignature] != bootSectorSig0 || sector[offSignature+1] != bootSectorSig1 {
		return nil, newErr(KindUnsupportedGeometry, "", "missing 0x55AA boot signature")
	}

	bytesPerSector := binary.LittleEndian.Uint16(sector[offBytesPerSector:])
	sectorsPerCluster := sector[offSecPerCluster]
	reservedSectors := binary.LittleEndian.Uint16(sector[offReservedSecs:])
	numFATs := sector[offNumFATs]
	rootEntries := binary.LittleEndian.Uint16(sector[offRootEntries:])
	totalSectors := binary.LittleEndian.Uint16(sector[offTotalSectors16:])
	media := sector[offMedia]
	sectorsPerFAT := binary.LittleEndian.Uint16(sector[offSectorsPerFAT:])

	switch {
	case bytesPerSector != BytesPerSector,
		sectorsPerCluster != SectorsPerCluster,
		reservedSectors != ReservedSectors,
		numFATs != NumFATs,
		rootEntries != RootEntryCount,
		totalSectors != TotalSectors,
		media != MediaDescriptor,
		sectorsPerFAT != SectorsPerFAT:
		return nil, newErr(KindUnsupportedGeometry, "", "boot sector does not describe a 1.44 MB FAT12 floppy")
	}

	bs := &BootSector{}
	copy(bs.OEMName[:], sector[offOEMName:offOEMName+8])
	bs.DriveNumber = sector[offDriveNumber]

	if sector[offBootSig] == extBootSignature {
		bs.VolumeSerial = binary.LittleEndian.Uint32(sector[offVolumeSerial:])
		copy(bs.VolumeLabel[:], sector[offVolumeLabel:offVolumeLabel+11])
		copy(bs.FSType[:], sector[offFSType:offFSType+8])
	} else {
		for i := range bs.VolumeLabel {
			bs.VolumeLabel[i] = ' '
		}
	}
	copy(bs.BootstrapCode[:], sector[offBootstrapCode:offSignature])

	return bs, nil
}

// Bytes serialises the boot sector into a fresh 512-byte sector, including
// the fixed BPB for a 1.44 MB floppy and the 0x55AA signature.
func (bs *BootSector) Bytes() []byte {
	sector := make([]byte, BytesPerSector)

	sector[offJump+0], sector[offJump+1], sector[offJump+2] = 0xEB, 0x3C, 0x90
	copy(sector[offOEMName:offOEMName+8], bs.OEMName[:])

	binary.LittleEndian.PutUint16(sector[offBytesPerSector:], BytesPerSector)
	sector[offSecPerCluster] = SectorsPerCluster
	binary.LittleEndian.PutUint16(sector[offReservedSecs:], ReservedSectors)
	sector[offNumFATs] = NumFATs
	binary.LittleEndian.PutUint16(sector[offRootEntries:], RootEntryCount)
	binary.LittleEndian.PutUint16(sector[offTotalSectors16:], TotalSectors)
	sector[offMedia] = MediaDescriptor
	binary.LittleEndian.PutUint16(sector[offSectorsPerFAT:], SectorsPerFAT)
	binary.LittleEndian.PutUint16(sector[offSectorsPerTrk:], SectorsPerTrack)
	binary.LittleEndian.PutUint16(sector[offNumberOfHeads:], NumberOfHeads)
	binary.LittleEndian.PutUint32(sector[offHiddenSectors:], 0)
	binary.LittleEndian.PutUint32(sector[offTotalSectors32:], 0)

	sector[offDriveNumber] = bs.DriveNumber
	sector[offReserved1] = 0
	sector[offBootSig] = extBootSignature
	binary.LittleEndian.PutUint32(sector[offVolumeSerial:], bs.VolumeSerial)
	copy(sector[offVolumeLabel:offVolumeLabel+11], bs.VolumeLabel[:])
	copy(sector[offFSType:offFSType+8], bs.FSType[:])

	copy(sector[offBootstrapCode:offSignature], bs.BootstrapCode[:])

	sector[offSignature] = bootSectorSig0
	sector[offSignature+1] = bootSectorSig1

	return sector
}
