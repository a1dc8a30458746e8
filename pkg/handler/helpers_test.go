package handler_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/resource"
	"github.com/nkhine/itools/pkg/resource/memory"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// tree is a memory store, a session sharing its clock, and a root folder.
type tree struct {
	clock *fakeClock
	store *memory.Store
	sess  *handler.Session
	root  *handler.Folder
}

func newTree(t *testing.T, opts ...handler.SessionOption) *tree {
	t.Helper()
	clk := newClock()
	st := memory.New(memory.WithClock(clk.Now))
	sess := handler.NewSession(append([]handler.SessionOption{handler.WithClock(clk.Now)}, opts...)...)
	return &tree{
		clock: clk,
		store: st,
		sess:  sess,
		root:  sess.OpenFolder(st.Root()),
	}
}

// reopen returns a fresh root over the same store in a new session.
func (tr *tree) reopen() *handler.Folder {
	return handler.NewSession(handler.WithClock(tr.clock.Now)).OpenFolder(tr.store.Root())
}

// seed creates the file at path directly in the store, creating folders on
// the way. A trailing slash creates a folder.
func seed(t *testing.T, c resource.Container, path, content string) {
	t.Helper()
	ctx := context.Background()

	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, name := range parts {
		last := i == len(parts)-1
		if last && !strings.HasSuffix(path, "/") {
			r, err := c.Create(ctx, name, resource.KindFile)
			require.NoError(t, err)
			require.NoError(t, r.Write(ctx, []byte(content)))
			return
		}
		r, err := c.Child(ctx, name)
		if err != nil {
			r, err = c.Create(ctx, name, resource.KindFolder)
			require.NoError(t, err)
		}
		c = r.(resource.Container)
	}
}

// stored returns the resource at path in the store, or nil.
func stored(t *testing.T, c resource.Container, path string) resource.Resource {
	t.Helper()
	ctx := context.Background()

	var r resource.Resource = c
	for _, name := range strings.Split(strings.Trim(path, "/"), "/") {
		dir, ok := r.(resource.Container)
		if !ok {
			return nil
		}
		next, err := dir.Child(ctx, name)
		if err != nil {
			return nil
		}
		r = next
	}
	return r
}

func readStored(t *testing.T, c resource.Container, path string) string {
	t.Helper()
	r := stored(t, c, path)
	require.NotNil(t, r, "no stored resource at %s", path)
	data, err := r.Read(context.Background())
	require.NoError(t, err)
	return string(data)
}

func listStored(t *testing.T, c resource.Container, path string) []string {
	t.Helper()
	r := c
	if path != "" {
		res := stored(t, c, path)
		require.NotNil(t, res, "no stored resource at %s", path)
		r = res.(resource.Container)
	}
	names, err := r.List(context.Background())
	require.NoError(t, err)
	return names
}

// content returns the serialized state of an opaque file.
func content(t *testing.T, n handler.Node) string {
	t.Helper()
	f, ok := n.(*handler.File)
	require.True(t, ok, "%s is not a file", n.Path())
	data, err := f.Bytes(context.Background())
	require.NoError(t, err)
	return string(data)
}

func newBlob(s string) *handler.File {
	f := handler.NewFile(nil)
	if err := f.SetState(context.Background(), &handler.Blob{Data: []byte(s)}); err != nil {
		panic(err)
	}
	return f
}

func setContent(t *testing.T, n handler.Node, s string) {
	t.Helper()
	f, ok := n.(*handler.File)
	require.True(t, ok)
	require.NoError(t, f.SetState(context.Background(), &handler.Blob{Data: []byte(s)}))
}

// strictFormat rejects any input containing "bad".
type strictFormat struct{}

func (strictFormat) Name() string { return "strict" }

func (strictFormat) New() handler.State { return &handler.Blob{} }

func (strictFormat) Load(data []byte) (handler.State, error) {
	if strings.Contains(string(data), "bad") {
		return nil, errMalformed
	}
	return &handler.Blob{Data: data}, nil
}

// namedFormat is Opaque under another name.
type namedFormat string

func (n namedFormat) Name() string { return string(n) }

func (namedFormat) New() handler.State { return &handler.Blob{} }

func (namedFormat) Load(data []byte) (handler.State, error) {
	return handler.Opaque.Load(data)
}

func formatOf(t *testing.T, n handler.Node) string {
	t.Helper()
	f, ok := n.(*handler.File)
	require.True(t, ok, "%T is not a file", n)
	return f.Format().Name()
}
