package fat12

import "testing"

func TestSplitPath(t *testing.T) {
	cases := []struct {
		path      string
		wantComps []string
		wantTrail bool
	}{
		{"/", nil, false},
		{"", nil, false},
		{"/foo/bar", []string{"foo", "bar"}, false},
		{"/foo/bar/", []string{"foo", "bar"}, true},
		{"foo//bar", []string{"foo", "bar"}, false},
	}
	for _, c := range cases {
		comps, trail := splitPath(c.path)
		if len(comps) != len(c.wantComps) {
			t.Errorf("splitPath(%q) comps = %v, want %v", c.path, comps, c.wantComps)
			continue
		}
		for i := range comps {
			if comps[i] != c.wantComps[i] {
				t.Errorf("splitPath(%q) comps = %v, want %v", c.path, comps, c.wantComps)
				break
			}
		}
		if trail != c.wantTrail {
			t.Errorf("splitPath(%q) trailingSlash = %v, want %v", c.path, trail, c.wantTrail)
		}
	}
}

func TestIsRootPath(t *testing.T) {
	for _, p := range []string{"", "/", "/.", "/./"} {
		if !isRootPath(p) {
			t.Errorf("isRootPath(%q) = false, want true", p)
		}
	}
	if isRootPath("/foo") {
		t.Error("isRootPath(/foo) = true, want false")
	}
}

func TestResolveDirAndParent(t *testing.T) {
	fat, img := newTestFAT(t)
	root := newRootDirectory(img, fat)

	cluster, err := fat.AllocOne()
	if err != nil {
		t.Fatal(err)
	}
	if err := initSubDirectory(img, fat, cluster, 0, fixedClock); err != nil {
		t.Fatal(err)
	}
	if _, err := root.Insert(&DirEntry{Name: "SUBDIR", Attr: AttrDirectory, StartCluster: uint16(cluster)}); err != nil {
		t.Fatal(err)
	}

	dir, err := resolveDir(img, fat, "/SUBDIR")
	if err != nil {
		t.Fatal(err)
	}
	if dir.isRoot {
		t.Error("resolveDir(/SUBDIR) should not be the root")
	}

	parent, name, trailing, err := resolveParent(img, fat, "/SUBDIR/FILE.TXT")
	if err != nil {
		t.Fatal(err)
	}
	if name != "FILE.TXT" || trailing {
		t.Errorf("resolveParent name=%q trailing=%v", name, trailing)
	}
	if parent.isRoot {
		t.Error("resolveParent(/SUBDIR/FILE.TXT) parent should be SUBDIR, not root")
	}
}

func TestResolveParentRejectsBareRoot(t *testing.T) {
	fat, img := newTestFAT(t)
	if _, _, _, err := resolveParent(img, fat, "/"); !isKind(err, KindBadName) {
		t.Errorf("expected KindBadName, got %v", err)
	}
}

func TestResolveEntryTrailingSlashRequiresDirectory(t *testing.T) {
	fat, img := newTestFAT(t)
	root := newRootDirectory(img, fat)
	if _, err := root.Insert(&DirEntry{Name: "FILE.TXT"}); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := resolveEntry(img, fat, "/FILE.TXT/"); !isKind(err, KindNotADirectory) {
		t.Errorf("expected KindNotADirectory, got %v", err)
	}
	if _, _, _, err := resolveEntry(img, fat, "/FILE.TXT"); err != nil {
		t.Errorf("resolveEntry without trailing slash should succeed, got %v", err)
	}
}

func TestWalkDirsDotDot(t *testing.T) {
	fat, img := newTestFAT(t)
	root := newRootDirectory(img, fat)

	cluster, err := fat.AllocOne()
	if err != nil {
		t.Fatal(err)
	}
	if err := initSubDirectory(img, fat, cluster, 0, fixedClock); err != nil {
		t.Fatal(err)
	}
	if _, err := root.Insert(&DirEntry{Name: "SUBDIR", Attr: AttrDirectory, StartCluster: uint16(cluster)}); err != nil {
		t.Fatal(err)
	}

	dir, err := resolveDir(img, fat, "/SUBDIR/..")
	if err != nil {
		t.Fatal(err)
	}
	if !dir.isRoot {
		t.Error("/SUBDIR/.. should resolve back to the root")
	}
}
