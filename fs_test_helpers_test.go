package fat12

import "testing"

// newTestVolume formats a blank in-memory image with a deterministic clock
// and serial, for tests that need a fully wired *FS rather than the bare
// fatTable/Directory pieces exercised in fat_test.go/directory_test.go.
func newTestVolume(t *testing.T) *FS {
	t.Helper()
	img := NewBlankImage()
	vol, err := FormatWithOptions(img, "TESTVOL", FormatOptions{
		Clock:  fixedClock,
		Serial: func() uint32 { return 0xDEADBEEF },
	})
	if err != nil {
		t.Fatalf("FormatWithOptions: %v", err)
	}
	return vol
}
