package fat12

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestFormatSetsLabel(t *testing.T) {
	vol := newTestVolume(t)
	label, err := vol.Label()
	if err != nil {
		t.Fatal(err)
	}
	if label != "TESTVOL" {
		t.Errorf("Label() = %q, want %q", label, "TESTVOL")
	}
}

func TestSetLabelClearAndReset(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.SetLabel(""); err != nil {
		t.Fatal(err)
	}
	label, err := vol.Label()
	if err != nil {
		t.Fatal(err)
	}
	if label != "" {
		t.Errorf("Label() after clearing = %q, want empty", label)
	}
	if err := vol.SetLabel("NEWLABEL"); err != nil {
		t.Fatal(err)
	}
	label, err = vol.Label()
	if err != nil {
		t.Fatal(err)
	}
	if label != "NEWLABEL" {
		t.Errorf("Label() = %q, want %q", label, "NEWLABEL")
	}
}

func TestMkdirAndList(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.Mkdir("/DOCS", 0755); err != nil {
		t.Fatal(err)
	}
	if err := vol.WriteFile("/DOCS/A.TXT", []byte("hi")); err != nil {
		t.Fatal(err)
	}

	entries, err := vol.List("/DOCS")
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{{Name: "A.TXT", Size: 2, Attr: AttrArchive}}
	if diff := cmp.Diff(want, entries, cmpopts.IgnoreFields(Entry{}, "ModTime")); diff != "" {
		t.Errorf("List(/DOCS) mismatch (-want +got):\n%s", diff)
	}

	root, err := vol.List("/")
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range root {
		if e.Name == "DOCS" && e.IsDir {
			found = true
		}
	}
	if !found {
		t.Error("root listing should contain DOCS")
	}
}

func TestMkdirRejectsDuplicate(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.Mkdir("/DOCS", 0755); err != nil {
		t.Fatal(err)
	}
	if err := vol.Mkdir("/DOCS", 0755); !isKind(err, KindExists) {
		t.Errorf("expected KindExists, got %v", err)
	}
}

func TestMkdirAll(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.MkdirAll("/A/B/C", 0755); err != nil {
		t.Fatal(err)
	}
	isDir, err := vol.IsDir("/A/B/C")
	if err != nil {
		t.Fatal(err)
	}
	if !isDir {
		t.Error("/A/B/C should be a directory")
	}
	if err := vol.MkdirAll("/A/B/C", 0755); err != nil {
		t.Errorf("MkdirAll should tolerate existing components, got %v", err)
	}
}

func TestRmdirRequiresEmpty(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.Mkdir("/DOCS", 0755); err != nil {
		t.Fatal(err)
	}
	if err := vol.WriteFile("/DOCS/A.TXT", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := vol.Rmdir("/DOCS"); !isKind(err, KindDirNotEmpty) {
		t.Errorf("expected KindDirNotEmpty, got %v", err)
	}
	if err := vol.Remove("/DOCS/A.TXT"); err != nil {
		t.Fatal(err)
	}
	if err := vol.Rmdir("/DOCS"); err != nil {
		t.Errorf("Rmdir of an empty directory should succeed, got %v", err)
	}
}

func TestRemoveAllRecursive(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.MkdirAll("/A/B", 0755); err != nil {
		t.Fatal(err)
	}
	if err := vol.WriteFile("/A/B/FILE.TXT", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := vol.RemoveAll("/A"); err != nil {
		t.Fatal(err)
	}
	exists, err := vol.Exists("/A")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("/A should be gone after RemoveAll")
	}
}

func TestRemoveAllOnMissingPathIsNotAnError(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.RemoveAll("/NOPE"); err != nil {
		t.Errorf("RemoveAll on a missing path should succeed, got %v", err)
	}
}

func TestRenameInPlaceAndCrossDirectory(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.WriteFile("/A.TXT", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := vol.Rename("/A.TXT", "/B.TXT"); err != nil {
		t.Fatal(err)
	}
	if exists, _ := vol.Exists("/A.TXT"); exists {
		t.Error("/A.TXT should no longer exist after rename")
	}
	if exists, _ := vol.Exists("/B.TXT"); !exists {
		t.Error("/B.TXT should exist after rename")
	}

	if err := vol.Mkdir("/DIR", 0755); err != nil {
		t.Fatal(err)
	}
	if err := vol.Rename("/B.TXT", "/DIR/B.TXT"); err != nil {
		t.Fatal(err)
	}
	if exists, _ := vol.Exists("/DIR/B.TXT"); !exists {
		t.Error("/DIR/B.TXT should exist after cross-directory rename")
	}
}

func TestMoveKeepsBasename(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.WriteFile("/A.TXT", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := vol.Mkdir("/DIR", 0755); err != nil {
		t.Fatal(err)
	}
	if err := vol.Move("/A.TXT", "/DIR"); err != nil {
		t.Fatal(err)
	}
	if exists, _ := vol.Exists("/DIR/A.TXT"); !exists {
		t.Error("Move should place the file under /DIR with its original name")
	}
}

func TestCopyFileAndIntoDirectory(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.WriteFile("/A.TXT", []byte("payload")); err != nil {
		t.Fatal(err)
	}

	if err := vol.Copy("/A.TXT", "/B.TXT"); err != nil {
		t.Fatal(err)
	}
	got, err := vol.ReadFile("/B.TXT")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Errorf("copied content = %q, want %q", got, "payload")
	}

	if err := vol.Mkdir("/DIR", 0755); err != nil {
		t.Fatal(err)
	}
	if err := vol.Copy("/A.TXT", "/DIR"); err != nil {
		t.Fatal(err)
	}
	if exists, _ := vol.Exists("/DIR/A.TXT"); !exists {
		t.Error("Copy into an existing directory should use the source's basename")
	}

	if err := vol.Copy("/A.TXT", "/A.TXT"); !isKind(err, KindExists) {
		t.Errorf("expected KindExists copying a file onto itself, got %v", err)
	}
}

func TestCopyDirectoryFails(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.Mkdir("/DIR", 0755); err != nil {
		t.Fatal(err)
	}
	if err := vol.Copy("/DIR", "/DIR2"); !isKind(err, KindIsADirectory) {
		t.Errorf("expected KindIsADirectory, got %v", err)
	}
}

func TestSetAttributesLeavesDirectoryBitAlone(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.WriteFile("/A.TXT", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := vol.SetAttributes("/A.TXT", AttrReadOnly|AttrHidden); err != nil {
		t.Fatal(err)
	}
	info, err := vol.Stat("/A.TXT")
	if err != nil {
		t.Fatal(err)
	}
	if info.IsDir() {
		t.Error("SetAttributes should not have set the directory bit")
	}
	if info.Mode()&0200 == 0200 {
		t.Error("SetAttributes(AttrReadOnly) should have cleared the write bit")
	}
}

func TestSameFile(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.WriteFile("/A.TXT", []byte("x")); err != nil {
		t.Fatal(err)
	}
	same, err := vol.SameFile("/A.TXT", "/A.TXT")
	if err != nil {
		t.Fatal(err)
	}
	if !same {
		t.Error("a path should be the same file as itself")
	}
	same, err = vol.SameFile("/", "/")
	if err != nil {
		t.Fatal(err)
	}
	if !same {
		t.Error("the root should be the same file as itself")
	}
}

func TestCheckDetectsMismatchedFATCopies(t *testing.T) {
	vol := newTestVolume(t)
	if err := vol.Check(); err != nil {
		t.Fatalf("freshly formatted volume should check out, got %v", err)
	}

	img := vol.Image()
	corrupt, err := img.ReadSector(FAT2StartSector)
	if err != nil {
		t.Fatal(err)
	}
	corrupt[0] ^= 0xFF
	if err := img.WriteSector(FAT2StartSector, corrupt); err != nil {
		t.Fatal(err)
	}
	if err := vol.Check(); !isKind(err, KindCorruptFAT) {
		t.Errorf("expected KindCorruptFAT, got %v", err)
	}
}

func TestOpenRejectsBadGeometry(t *testing.T) {
	img := NewBlankImage()
	if _, err := OpenImage(img); !isKind(err, KindUnsupportedGeometry) {
		t.Errorf("expected KindUnsupportedGeometry for a blank image, got %v", err)
	}
}
