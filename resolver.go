package newfs

import "strings"

// splitPath breaks an absolute path into its non-empty components,
// tolerating duplicate and trailing slashes.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// baseName returns the final component of path, or "" for the root.
func baseName(path string) string {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// Resolve walks path component by component from the root, lazily
// faulting in each visited directory's inode via the codec (spec.md §4.6).
// It reports isRoot for the empty path, and isFound false (with a non-nil
// dentry set to the deepest directory reached) when a component is
// missing, so callers like Mkdir/Mknod can still learn the parent.
//
// Descending through a regular file reports isFound=false rather than an
// error — a regular file has no children to descend into (spec.md §4.6,
// §9 item 5); callers that need an error for this case (ResolveParent)
// derive it from the returned dentry's type.
func (fs *Filesystem) Resolve(path string) (dentry *Dentry, isFound bool, isRoot bool, err error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return fs.root, true, true, nil
	}

	cur := fs.root
	if err := fs.faultInIfNeeded(cur); err != nil {
		return nil, false, false, err
	}

	for i, name := range parts {
		if !cur.Ftype.isDirType() {
			// spec.md §4.6: descending through a regular file is not an
			// error at the resolver level — is_find=false, and the last
			// valid (regular-file) dentry is returned. Callers that need
			// to distinguish this from a merely-missing child do so by
			// checking the returned dentry's type.
			return cur, false, false, nil
		}
		child := findChild(cur.Inode, name)
		if child == nil {
			return cur, false, false, nil
		}
		if err := fs.faultInIfNeeded(child); err != nil {
			return nil, false, false, err
		}
		cur = child
		_ = i
	}

	return cur, true, false, nil
}

// isDirType reports whether ft names a directory. It is an unexported
// convenience used by the resolver, ops.go and debug.go, rather than a
// public predicate on FileType in geometry.go.
func (ft FileType) isDirType() bool {
	return ft == Dir
}

// ResolveParent resolves the parent directory of path and returns it
// alongside path's final component, for operations that create or remove
// an entry (Mkdir, Mknod, Unlink, Rmdir, Rename). It returns ErrUnsupported
// if the parent path resolves through (or into) a regular file, and
// ErrNotFound if an intermediate directory component itself does not exist.
func (fs *Filesystem) ResolveParent(path string) (parent *Dentry, base string, err error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, "", ErrInvalid.WithMessage("path has no parent")
	}
	parentPath := "/" + strings.Join(parts[:len(parts)-1], "/")
	base = parts[len(parts)-1]

	dentry, found, _, err := fs.Resolve(parentPath)
	if err != nil {
		return nil, "", err
	}
	if !found {
		// Resolve reports is_find=false both when an intermediate
		// component is simply missing (dentry is the deepest directory
		// reached) and when an intermediate component is a regular file
		// with path left to descend through (dentry is that file itself,
		// spec.md §4.6). Only the latter is spec.md §4.7's "NOTDIR-like
		// via UNSUPPORTED"; the former is a plain missing ancestor.
		if !dentry.Ftype.isDirType() {
			return nil, "", ErrUnsupported
		}
		return nil, "", ErrNotFound
	}
	if !dentry.Ftype.isDirType() {
		// The parent path fully resolved, but to a regular file rather
		// than a directory: there is nothing to descend into beneath it
		// either, same as the is_find=false case above (spec.md §4.7's
		// "NOTDIR-like via UNSUPPORTED").
		return nil, "", ErrUnsupported
	}
	return dentry, base, nil
}
