package fat12

import "strings"

// splitPath splits an absolute or relative path on "/", dropping empty
// components produced by a leading or doubled slash, and reports whether
// the path ends in a slash (meaning "this must be a directory"). A bare
// "/" is not considered trailing.
func splitPath(path string) (comps []string, trailingSlash bool) {
	trailingSlash = strings.HasSuffix(path, "/") && path != "/"
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			comps = append(comps, p)
		}
	}
	return comps, trailingSlash
}

// parentCluster returns the cluster the directory's ".." entry points to,
// or 0 (the root) if d is itself the root.
func (d *Directory) parentCluster() (int, error) {
	if d.isRoot {
		return 0, nil
	}
	entry, ok, err := d.rawEntryAt(1)
	if err != nil {
		return 0, err
	}
	if !ok || entry.Name != ".." {
		return 0, newErr(KindCorruptDirectory, "", "sub-directory missing .. entry")
	}
	return int(entry.StartCluster), nil
}

// walkDirs walks comps, each of which must name a sub-directory, starting
// from start, and returns the resulting Directory view. "." is a no-op and
// ".." moves to the parent (the root's parent is itself).
func walkDirs(img *Image, fat *fatTable, start *Directory, comps []string) (*Directory, error) {
	cur := start
	for _, comp := range comps {
		switch comp {
		case ".":
			continue
		case "..":
			parent, err := cur.parentCluster()
			if err != nil {
				return nil, err
			}
			if parent == 0 {
				cur = newRootDirectory(img, fat)
			} else {
				cur, err = newSubDirectory(img, fat, parent)
				if err != nil {
					return nil, err
				}
			}
			continue
		}
		name, err := normalizeName(comp)
		if err != nil {
			return nil, err
		}
		entry, _, err := cur.Lookup(name)
		if err != nil {
			return nil, err
		}
		if !entry.Attr.Directory() {
			return nil, newErrf(KindNotADirectory, comp, "not a directory")
		}
		cur, err = newSubDirectory(img, fat, int(entry.StartCluster))
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// resolveDir resolves path, every component of which must be a directory,
// to a Directory view. The empty path and "/" both resolve to the root.
func resolveDir(img *Image, fat *fatTable, path string) (*Directory, error) {
	comps, _ := splitPath(path)
	return walkDirs(img, fat, newRootDirectory(img, fat), comps)
}

// resolveParent splits path into a parent directory (every component but
// the last must be a directory) and a normalised final component name. It
// fails BadName if path has no final component (root itself has none).
func resolveParent(img *Image, fat *fatTable, path string) (parent *Directory, name string, trailingSlash bool, err error) {
	comps, trailing := splitPath(path)
	if len(comps) == 0 {
		return nil, "", trailing, newErrf(KindBadName, path, "path has no final component")
	}
	dir, err := walkDirs(img, fat, newRootDirectory(img, fat), comps[:len(comps)-1])
	if err != nil {
		return nil, "", trailing, err
	}
	name, err = normalizeName(comps[len(comps)-1])
	if err != nil {
		return nil, "", trailing, err
	}
	return dir, name, trailing, nil
}

// resolveEntry resolves path to its parent directory, decoded entry and
// slot index. A trailing slash requires the resolved entry to be a
// directory, failing NotADirectory otherwise.
func resolveEntry(img *Image, fat *fatTable, path string) (parent *Directory, entry *DirEntry, idx int, err error) {
	parent, name, trailing, err := resolveParent(img, fat, path)
	if err != nil {
		return nil, nil, 0, err
	}
	entry, idx, err = parent.Lookup(name)
	if err != nil {
		return nil, nil, 0, err
	}
	if trailing && !entry.Attr.Directory() {
		return nil, nil, 0, newErrf(KindNotADirectory, path, "not a directory")
	}
	return parent, entry, idx, nil
}

// isRootPath reports whether path resolves to the root directory itself
// (empty path, "/", or any sequence of "." / ".." components that stays at
// the root).
func isRootPath(path string) bool {
	comps, _ := splitPath(path)
	for _, c := range comps {
		if c != "." && c != ".." {
			return false
		}
	}
	return true
}
