package handler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/resource"
)

func TestSessionRegistration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := newTree(t)
	seed(t, tr.store.Root(), "a.txt", "a")
	seed(t, tr.store.Root(), "b.txt", "b")

	a, err := tr.root.GetFile(ctx, "a.txt")
	require.NoError(t, err)
	b, err := tr.root.GetFile(ctx, "b.txt")
	require.NoError(t, err)

	require.NoError(t, b.MarkChanged(ctx))
	require.NoError(t, a.MarkChanged(ctx))
	require.NoError(t, b.MarkChanged(ctx))

	pending := tr.sess.Pending()
	require.Len(t, pending, 2)
	assert.Same(t, b, pending[0])
	assert.Same(t, a, pending[1])

	tr.sess.Remove(b)
	assert.False(t, tr.sess.Contains(b))
	assert.Equal(t, 1, tr.sess.Len())
}

func TestFreshNodesAreNotRegistered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := newTree(t)

	h := newBlob("x")
	require.NoError(t, tr.root.SetHandler(ctx, "x", h))
	setContent(t, h, "y")
	require.NoError(t, h.MarkChanged(ctx))

	assert.False(t, tr.sess.Contains(h))
	assert.True(t, tr.sess.Contains(tr.root), "the parent carries the staged child")

	require.NoError(t, tr.sess.Commit(ctx))
	assert.Equal(t, "y", readStored(t, tr.store.Root(), "x"))
	assert.Zero(t, tr.sess.Len())
}

func TestIndependentSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := newTree(t)
	seed(t, tr.store.Root(), "doc.txt", "v1")

	other := tr.reopen()

	f, err := tr.root.GetFile(ctx, "doc.txt")
	require.NoError(t, err)
	setContent(t, f, "mine")
	require.NoError(t, tr.root.SetHandler(ctx, "staged.txt", newBlob("s")))

	assert.Zero(t, other.Session().Len())

	// Uncommitted overlays are private to their folder instance.
	ok, err := other.Has(ctx, "staged.txt")
	require.NoError(t, err)
	assert.False(t, ok)
	g, err := other.GetFile(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "v1", content(t, g))

	require.NoError(t, other.Session().Commit(ctx))
	assert.Equal(t, "v1", readStored(t, tr.store.Root(), "doc.txt"))
}

func TestSessionLock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sess := handler.NewSession()

	require.NoError(t, sess.Lock(ctx))

	err := sess.TryLock()
	require.Error(t, err)
	assert.True(t, handler.IsBusyError(err))

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err = sess.Commit(timeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	sess.Release()
	require.NoError(t, sess.TryLock())
	sess.Release()

	assert.Panics(t, sess.Release)
}

func TestCommitReleasesLockOnFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := newTree(t)
	seed(t, tr.store.Root(), "a.txt", "a")
	seed(t, tr.store.Root(), "b.txt", "b")

	a, err := tr.root.GetFile(ctx, "a.txt")
	require.NoError(t, err)
	b, err := tr.root.GetFile(ctx, "b.txt")
	require.NoError(t, err)
	setContent(t, a, "a2")
	setContent(t, b, "b2")

	// b's resource disappears before the commit.
	require.NoError(t, tr.store.Root().DeleteChild(ctx, "b.txt"))

	err = tr.sess.Commit(ctx)
	require.Error(t, err)
	assert.True(t, handler.IsResourceError(err))
	assert.ErrorIs(t, err, resource.ErrNotFound)

	// Not atomic: a is flushed, b stays pending.
	assert.Equal(t, "a2", readStored(t, tr.store.Root(), "a.txt"))
	assert.False(t, tr.sess.Contains(a))
	assert.True(t, tr.sess.Contains(b))

	// The lock was released.
	require.NoError(t, tr.sess.TryLock())
	tr.sess.Release()
}

func TestConcurrentCommits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := newTree(t)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, tr.sess.Commit(ctx))
		}()
	}
	wg.Wait()

	require.NoError(t, tr.sess.TryLock())
	tr.sess.Release()
}

func TestSaveRespectsSessionLock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := newTree(t)
	seed(t, tr.store.Root(), "a.txt", "a")

	f, err := tr.root.GetFile(ctx, "a.txt")
	require.NoError(t, err)
	setContent(t, f, "b")

	require.NoError(t, tr.sess.Lock(ctx))
	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.Save(timeout), context.DeadlineExceeded)
	assert.Equal(t, "a", readStored(t, tr.store.Root(), "a.txt"))
	tr.sess.Release()

	require.NoError(t, f.Save(ctx))
	assert.Equal(t, "b", readStored(t, tr.store.Root(), "a.txt"))
}

func TestSessionOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	reg := handler.NewRegistry()
	reg.Register(handler.Suffix(".txt"), handler.FileFactory(namedFormat("text")))
	tr := newTree(t, handler.WithRegistry(reg))
	seed(t, tr.store.Root(), "doc.txt", "hello")
	seed(t, tr.store.Root(), "dir/", "")

	n := tr.sess.Open(ctx, stored(t, tr.store.Root(), "doc.txt"), "doc.txt")
	assert.Equal(t, "text", formatOf(t, n))
	assert.Equal(t, "hello", content(t, n))
	assert.Same(t, tr.sess, n.Session())

	d := tr.sess.Open(ctx, stored(t, tr.store.Root(), "dir"), "dir")
	assert.IsType(t, &handler.Folder{}, d)
}

func TestSessionIDs(t *testing.T) {
	t.Parallel()

	a, b := handler.NewSession(), handler.NewSession()
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "fixed", handler.NewSession(handler.WithID("fixed")).ID())
	assert.Same(t, handler.DefaultRegistry(), a.Registry())
}
