package fat12

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
)

func TestImageReadWriteSector(t *testing.T) {
	img := NewBlankImage()
	data := bytes.Repeat([]byte{0xAB}, BytesPerSector)
	if err := img.WriteSector(5, data); err != nil {
		t.Fatal(err)
	}
	got, err := img.ReadSector(5)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("read back did not match what was written")
	}
}

func TestImageWriteSectorRejectsWrongSize(t *testing.T) {
	img := NewBlankImage()
	if err := img.WriteSector(0, make([]byte, 10)); !isKind(err, KindBadSize) {
		t.Errorf("expected KindBadSize, got %v", err)
	}
}

func TestImageReadSectorOutOfRange(t *testing.T) {
	img := NewBlankImage()
	if _, err := img.ReadSector(TotalSectors); !isKind(err, KindOutOfRange) {
		t.Errorf("expected KindOutOfRange, got %v", err)
	}
	if _, err := img.ReadSector(-1); !isKind(err, KindOutOfRange) {
		t.Errorf("expected KindOutOfRange, got %v", err)
	}
}

func TestImageReadWriteSectors(t *testing.T) {
	img := NewBlankImage()
	data := bytes.Repeat([]byte{0x5A}, 3*BytesPerSector)
	if err := img.WriteSectors(2, 3, data); err != nil {
		t.Fatal(err)
	}
	got, err := img.ReadSectors(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("multi-sector read back did not match")
	}
}

func TestImageSaveAndLoadRoundTrip(t *testing.T) {
	img := NewBlankImage()
	if err := img.WriteSector(0, bytes.Repeat([]byte{0x42}, BytesPerSector)); err != nil {
		t.Fatal(err)
	}

	fs := afero.NewMemMapFs()
	if err := img.Save(fs, "disk.img"); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadImage(fs, "disk.img")
	if err != nil {
		t.Fatal(err)
	}
	got, err := loaded.ReadSector(0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, bytes.Repeat([]byte{0x42}, BytesPerSector)) {
		t.Error("loaded image does not match saved contents")
	}
}

func TestLoadImageRejectsWrongSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "short.img", []byte("too small"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadImage(fs, "short.img"); !isKind(err, KindBadImage) {
		t.Errorf("expected KindBadImage, got %v", err)
	}
}
