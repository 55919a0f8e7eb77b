package pattern

import "fmt"

// FilePtr addresses one version of one file in a FileRegistry.
type FilePtr struct {
	File    uint16
	Version uint16
}

func NewFilePtr(file, version uint16) FilePtr {
	return FilePtr{File: file, Version: version}
}

func (p FilePtr) String() string {
	return fmt.Sprintf("file(%d)@%d", p.File, p.Version)
}

// FileRegistry holds every version of every file seen by a match attempt.
// Versions are only ever appended; editing a file produces a new FilePtr.
type FileRegistry struct {
	// versionCount[f] always equals len(owners[f]); 0 means registered but
	// not loaded yet.
	versionCount []uint16
	// filePaths keeps the original path for lazy loading.
	filePaths []string
	owners    [][]*FileOwner
}

// NewFileRegistryFromPaths registers paths without loading them. Every file
// must be loaded with LoadFile before GetFileOwner is called on it.
func NewFileRegistryFromPaths(paths []string) *FileRegistry {
	r := &FileRegistry{
		versionCount: make([]uint16, len(paths)),
		filePaths:    append([]string(nil), paths...),
		owners:       make([][]*FileOwner, len(paths)),
	}
	return r
}

// GetFileOwner returns the owner of the exact version addressed by ptr.
// It panics if the file or version was never pushed.
func (r *FileRegistry) GetFileOwner(ptr FilePtr) *FileOwner {
	if int(ptr.File) >= len(r.owners) {
		panic(fmt.Sprintf("file index out of bounds: file=%d, owners=%d", ptr.File, len(r.owners)))
	}
	versions := r.owners[ptr.File]
	if int(ptr.Version) >= len(versions) {
		panic(fmt.Sprintf(
			"file (%s) does not have version (%d) available, only %d versions available; make sure LoadFile is called before accessing file owners",
			r.GetFileName(ptr), ptr.Version, len(versions),
		))
	}
	return versions[ptr.Version]
}

// GetFileName returns the loaded owner's name, falling back to the path the
// file was registered with.
func (r *FileRegistry) GetFileName(ptr FilePtr) string {
	if owner, ok := r.owner(ptr); ok {
		return owner.Name
	}
	if int(ptr.File) >= len(r.filePaths) {
		panic(fmt.Sprintf("file path should exist for file index %d", ptr.File))
	}
	return r.filePaths[ptr.File]
}

// GetAbsolutePath returns the absolute path of a loaded file.
func (r *FileRegistry) GetAbsolutePath(ptr FilePtr) (string, error) {
	if owner, ok := r.owner(ptr); ok {
		return owner.AbsolutePath, nil
	}
	return "", fmt.Errorf("%w: %s", ErrAbsolutePathBeforeLoad, ptr)
}

// IsLoaded reports whether at least one version of the file was pushed.
func (r *FileRegistry) IsLoaded(ptr FilePtr) bool {
	if int(ptr.File) >= len(r.versionCount) {
		return false
	}
	return r.versionCount[ptr.File] > 0
}

// LoadFile stores the first version of a file registered by path.
func (r *FileRegistry) LoadFile(ptr FilePtr, owner *FileOwner) {
	r.PushRevision(ptr, owner)
}

// LatestRevision returns a pointer to the newest version of the file, or ptr
// itself when the file has no version yet.
func (r *FileRegistry) LatestRevision(ptr FilePtr) FilePtr {
	if int(ptr.File) >= len(r.versionCount) {
		return ptr
	}
	count := r.versionCount[ptr.File]
	if count == 0 {
		return ptr
	}
	return FilePtr{File: ptr.File, Version: count - 1}
}

// PushRevision appends a new version to an existing file.
func (r *FileRegistry) PushRevision(ptr FilePtr, owner *FileOwner) {
	if int(ptr.File) >= len(r.owners) {
		panic(fmt.Sprintf("file index out of bounds: file=%d, owners=%d", ptr.File, len(r.owners)))
	}
	r.versionCount[ptr.File]++
	r.owners[ptr.File] = append(r.owners[ptr.File], owner)
}

// PushNewFile registers a new file with owner as its first version.
func (r *FileRegistry) PushNewFile(owner *FileOwner) FilePtr {
	r.versionCount = append(r.versionCount, 1)
	r.filePaths = append(r.filePaths, owner.Name)
	r.owners = append(r.owners, []*FileOwner{owner})
	return FilePtr{
		File:    uint16(len(r.owners) - 1),
		Version: 0,
	}
}

// Files returns every version of every file, indexed by file then version.
func (r *FileRegistry) Files() [][]*FileOwner {
	return r.owners
}

// Len returns the number of registered files.
func (r *FileRegistry) Len() int {
	return len(r.owners)
}

func (r *FileRegistry) owner(ptr FilePtr) (*FileOwner, bool) {
	if int(ptr.File) >= len(r.owners) {
		return nil, false
	}
	versions := r.owners[ptr.File]
	if int(ptr.Version) >= len(versions) {
		return nil, false
	}
	return versions[ptr.Version], true
}
