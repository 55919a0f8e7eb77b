package pattern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func owner(name string) *FileOwner {
	return &FileOwner{
		Name:         name,
		AbsolutePath: "/abs/" + name,
		Tree:         fakeTree{src: "package " + name},
	}
}

func TestPushNewFileAssignsSequentialIndices(t *testing.T) {
	t.Parallel()
	r := NewFileRegistryFromPaths(nil)

	for i, name := range []string{"a.go", "b.go", "c.go"} {
		ptr := r.PushNewFile(owner(name))
		assert.Equal(t, NewFilePtr(uint16(i), 0), ptr)
		assert.True(t, r.IsLoaded(ptr))
		assert.Equal(t, name, r.GetFileOwner(ptr).Name)
	}
	assert.Equal(t, 3, r.Len())
}

func TestLatestRevision(t *testing.T) {
	t.Parallel()
	r := NewFileRegistryFromPaths([]string{"main.go"})
	ptr := NewFilePtr(0, 0)

	assert.False(t, r.IsLoaded(ptr))
	assert.Equal(t, ptr, r.LatestRevision(ptr), "unloaded file keeps its pointer")

	r.LoadFile(ptr, owner("main.go"))
	r.PushRevision(ptr, owner("main.go"))
	assert.Equal(t, NewFilePtr(0, 1), r.LatestRevision(ptr))

	r.PushRevision(ptr, owner("main.go"))
	assert.Equal(t, NewFilePtr(0, 2), r.LatestRevision(ptr))
	assert.Len(t, r.Files()[0], 3)

	unknown := NewFilePtr(7, 0)
	assert.Equal(t, unknown, r.LatestRevision(unknown))
}

func TestPushRevisionTwiceFromUnloaded(t *testing.T) {
	t.Parallel()
	r := NewFileRegistryFromPaths([]string{"main.go"})
	ptr := NewFilePtr(0, 0)

	r.PushRevision(ptr, owner("v0"))
	r.PushRevision(ptr, owner("v1"))

	latest := r.LatestRevision(ptr)
	assert.Equal(t, uint16(1), latest.Version)
	assert.Equal(t, "v1", r.GetFileOwner(latest).Name)
	assert.Equal(t, "v0", r.GetFileOwner(ptr).Name)
}

func TestGetFileNameFallsBackToPath(t *testing.T) {
	t.Parallel()
	r := NewFileRegistryFromPaths([]string{"pkg/lazy.go"})
	ptr := NewFilePtr(0, 0)

	assert.Equal(t, "pkg/lazy.go", r.GetFileName(ptr))

	r.LoadFile(ptr, &FileOwner{Name: "loaded.go", AbsolutePath: "/repo/loaded.go"})
	assert.Equal(t, "loaded.go", r.GetFileName(ptr))
}

func TestGetAbsolutePath(t *testing.T) {
	t.Parallel()
	r := NewFileRegistryFromPaths([]string{"lazy.go"})
	ptr := NewFilePtr(0, 0)

	_, err := r.GetAbsolutePath(ptr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAbsolutePathBeforeLoad))

	r.LoadFile(ptr, owner("lazy.go"))
	path, err := r.GetAbsolutePath(ptr)
	require.NoError(t, err)
	assert.Equal(t, "/abs/lazy.go", path)
}

func TestGetFileOwnerPanicsOutOfRange(t *testing.T) {
	t.Parallel()
	r := NewFileRegistryFromPaths([]string{"lazy.go"})

	assert.Panics(t, func() { r.GetFileOwner(NewFilePtr(0, 0)) }, "not loaded yet")
	assert.Panics(t, func() { r.GetFileOwner(NewFilePtr(3, 0)) }, "unknown file")

	r.LoadFile(NewFilePtr(0, 0), owner("lazy.go"))
	assert.NotPanics(t, func() { r.GetFileOwner(NewFilePtr(0, 0)) })
	assert.Panics(t, func() { r.GetFileOwner(NewFilePtr(0, 1)) })
}
