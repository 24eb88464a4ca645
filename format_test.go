package fat12

import "testing"

func TestFormatProducesOpenableImage(t *testing.T) {
	img := NewBlankImage()
	vol, err := FormatWithOptions(img, "MYDISK", FormatOptions{Clock: fixedClock, Serial: func() uint32 { return 7 }})
	if err != nil {
		t.Fatal(err)
	}
	if err := vol.Check(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenImage(img)
	if err != nil {
		t.Fatal(err)
	}
	label, err := reopened.Label()
	if err != nil {
		t.Fatal(err)
	}
	if label != "MYDISK" {
		t.Errorf("Label() = %q, want %q", label, "MYDISK")
	}
	entries, err := reopened.List("/")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("freshly formatted volume should list no files, got %+v", entries)
	}
}

func TestFormatWithEmptyLabelWritesNoVolumeEntry(t *testing.T) {
	img := NewBlankImage()
	vol, err := FormatWithOptions(img, "", FormatOptions{Clock: fixedClock, Serial: func() uint32 { return 1 }})
	if err != nil {
		t.Fatal(err)
	}
	label, err := vol.Label()
	if err != nil {
		t.Fatal(err)
	}
	if label != "" {
		t.Errorf("Label() = %q, want empty", label)
	}
}

func TestNormalizeLabelRejectsTooLong(t *testing.T) {
	if _, err := normalizeLabel("WAYTOOLONGLABEL"); !isKind(err, KindBadName) {
		t.Errorf("expected KindBadName, got %v", err)
	}
}

func TestFormatSeedsMediaDescriptorAndEOCEntries(t *testing.T) {
	img := NewBlankImage()
	if _, err := FormatWithOptions(img, "", FormatOptions{Clock: fixedClock, Serial: func() uint32 { return 1 }}); err != nil {
		t.Fatal(err)
	}
	fat, err := loadFAT(img)
	if err != nil {
		t.Fatal(err)
	}
	e0, _ := fat.Get(0)
	if e0 != fatMediaEntry0 {
		t.Errorf("entry 0 = 0x%03X, want 0x%03X", e0, fatMediaEntry0)
	}
	e1, _ := fat.Get(1)
	if e1 != fatEOCEntry1 {
		t.Errorf("entry 1 = 0x%03X, want 0x%03X", e1, fatEOCEntry1)
	}
}
