package billy

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkhine/itools/pkg/resource"
	"github.com/nkhine/itools/pkg/resource/resourcetest"
)

func TestConformanceMemory(t *testing.T) {
	resourcetest.RunConformanceSuite(t, func(t *testing.T) resource.Store {
		return NewMemory()
	})
}

func TestConformanceLocal(t *testing.T) {
	resourcetest.RunConformanceSuite(t, func(t *testing.T) resource.Store {
		s, err := NewLocal(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestSharesUnderlyingFilesystem(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	bfs := memfs.New()
	require.NoError(t, bfs.MkdirAll("conf", 0755))
	require.NoError(t, util.WriteFile(bfs, "conf/app.toml", []byte("a = 1"), 0644))

	s := New(bfs)
	assert.Same(t, bfs, s.Unwrap())

	dir, err := s.Root().Child(ctx, "conf")
	require.NoError(t, err)
	require.Equal(t, resource.KindFolder, dir.Kind())

	f, err := dir.(resource.Container).Child(ctx, "app.toml")
	require.NoError(t, err)
	require.NoError(t, f.Append(ctx, []byte("\nb = 2")))

	data, err := util.ReadFile(bfs, "conf/app.toml")
	require.NoError(t, err)
	assert.Equal(t, "a = 1\nb = 2", string(data))
}

func TestClosed(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	require.NoError(t, s.Close())
	_, err := s.Root().Create(t.Context(), "x", resource.KindFile)
	assert.ErrorIs(t, err, resource.ErrClosed)
}
