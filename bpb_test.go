package fat12

import "testing"

func TestBootSectorRoundTrip(t *testing.T) {
	bs := &BootSector{
		DriveNumber:  0x80,
		VolumeSerial: 0x12345678,
	}
	copy(bs.OEMName[:], "FAT12GO ")
	copy(bs.VolumeLabel[:], "MYDISK     ")
	copy(bs.FSType[:], "FAT12   ")

	raw := bs.Bytes()
	if len(raw) != BytesPerSector {
		t.Fatalf("boot sector is %d bytes, want %d", len(raw), BytesPerSector)
	}

	parsed, err := ParseBootSector(raw)
	if err != nil {
		t.Fatalf("ParseBootSector: %v", err)
	}
	if parsed.DriveNumber != bs.DriveNumber {
		t.Errorf("DriveNumber = 0x%02X, want 0x%02X", parsed.DriveNumber, bs.DriveNumber)
	}
	if parsed.VolumeSerial != bs.VolumeSerial {
		t.Errorf("VolumeSerial = 0x%08X, want 0x%08X", parsed.VolumeSerial, bs.VolumeSerial)
	}
	if parsed.OEMName != bs.OEMName {
		t.Errorf("OEMName = %q, want %q", parsed.OEMName, bs.OEMName)
	}
	if parsed.VolumeLabel != bs.VolumeLabel {
		t.Errorf("VolumeLabel = %q, want %q", parsed.VolumeLabel, bs.VolumeLabel)
	}
}

func TestParseBootSectorRejectsWrongSize(t *testing.T) {
	if _, err := ParseBootSector(make([]byte, 10)); !isKind(err, KindBadSize) {
		t.Errorf("expected KindBadSize, got %v", err)
	}
}

func TestParseBootSectorRejectsMissingSignature(t *testing.T) {
	raw := (&BootSector{}).Bytes()
	raw[offSignature] = 0x00
	if _, err := ParseBootSector(raw); !isKind(err, KindUnsupportedGeometry) {
		t.Errorf("expected KindUnsupportedGeometry, got %v", err)
	}
}

func TestParseBootSectorRejectsWrongGeometry(t *testing.T) {
	raw := (&BootSector{}).Bytes()
	raw[offSecPerCluster] = 4
	if _, err := ParseBootSector(raw); !isKind(err, KindUnsupportedGeometry) {
		t.Errorf("expected KindUnsupportedGeometry for altered geometry, got %v", err)
	}
}
