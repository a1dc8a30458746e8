package resourcetest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nkhine/itools/pkg/resource"
)

// runFileOpsTests runs all byte-level conformance tests.
func runFileOpsTests(t *testing.T, factory StoreFactory) {
	t.Run("WriteRead", func(t *testing.T) { testWriteRead(t, factory) })
	t.Run("EmptyFile", func(t *testing.T) { testEmptyFile(t, factory) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, factory) })
	t.Run("Append", func(t *testing.T) { testAppend(t, factory) })
	t.Run("SharedHandles", func(t *testing.T) { testSharedHandles(t, factory) })
	t.Run("ModTime", func(t *testing.T) { testModTime(t, factory) })
	t.Run("ByteIOOnFolder", func(t *testing.T) { testByteIOOnFolder(t, factory) })
	t.Run("Tag", func(t *testing.T) { testTag(t, factory) })
}

// testWriteRead verifies that written bytes are read back unchanged.
func testWriteRead(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()
	ctx := t.Context()

	want := []byte("hello, tree\n")
	createFile(t, root, "a.txt", want)

	r, err := root.Child(ctx, "a.txt")
	if err != nil {
		t.Fatalf("Child() failed: %v", err)
	}
	if r.Kind() != resource.KindFile {
		t.Errorf("Kind() = %v, want file", r.Kind())
	}
	got, err := r.Read(ctx)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Read() = %q, want %q", got, want)
	}
}

// testEmptyFile verifies that a freshly created file reads as empty.
func testEmptyFile(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()
	ctx := t.Context()

	r, err := root.Create(ctx, "empty", resource.KindFile)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	got, err := r.Read(ctx)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Read() = %q, want empty", got)
	}
}

// testOverwrite verifies that Write replaces previous content.
func testOverwrite(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()
	ctx := t.Context()

	r := createFile(t, root, "f", []byte("a much longer first version"))
	if err := r.Write(ctx, []byte("short")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	got, err := r.Read(ctx)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if string(got) != "short" {
		t.Errorf("Read() = %q, want %q", got, "short")
	}
}

// testAppend verifies that Append extends content.
func testAppend(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()
	ctx := t.Context()

	r := createFile(t, root, "log", []byte("one\n"))
	if err := r.Append(ctx, []byte("two\n")); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	got, err := r.Read(ctx)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if string(got) != "one\ntwo\n" {
		t.Errorf("Read() = %q, want %q", got, "one\ntwo\n")
	}
}

// testSharedHandles verifies that two handles on the same child observe
// each other's writes.
func testSharedHandles(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()
	ctx := t.Context()

	createFile(t, root, "shared", []byte("v1"))

	h1, err := root.Child(ctx, "shared")
	if err != nil {
		t.Fatalf("Child() failed: %v", err)
	}
	h2, err := root.Child(ctx, "shared")
	if err != nil {
		t.Fatalf("Child() failed: %v", err)
	}

	if err := h1.Write(ctx, []byte("v2")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	got, err := h2.Read(ctx)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("Read() via second handle = %q, want %q", got, "v2")
	}
}

// testModTime verifies that a written file reports a modification time
// when the store supports them.
func testModTime(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()
	ctx := t.Context()

	r := createFile(t, root, "m", []byte("x"))
	mtime, ok, err := r.ModTime(ctx)
	if err != nil {
		t.Fatalf("ModTime() failed: %v", err)
	}
	if !ok {
		t.Skip("store does not report modification times")
	}
	if mtime.IsZero() {
		t.Error("ModTime() returned zero time with ok=true")
	}
}

// testByteIOOnFolder verifies that folders reject byte I/O.
func testByteIOOnFolder(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()
	ctx := t.Context()

	dir := createFolder(t, root, "dir")
	if _, err := dir.Read(ctx); !errors.Is(err, resource.ErrIsContainer) {
		t.Errorf("Read() on folder error = %v, want ErrIsContainer", err)
	}
	if err := dir.Write(ctx, []byte("x")); !errors.Is(err, resource.ErrIsContainer) {
		t.Errorf("Write() on folder error = %v, want ErrIsContainer", err)
	}
}

// testTag verifies tag round-tripping on stores that support tags.
func testTag(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()
	ctx := t.Context()

	r := createFile(t, root, "doc", []byte("{}"))
	setter, ok := r.(resource.Taggable)
	if !ok {
		t.Skip("store does not support tags")
	}
	if err := setter.SetTag(ctx, "application/json"); err != nil {
		t.Fatalf("SetTag() failed: %v", err)
	}

	again, err := root.Child(ctx, "doc")
	if err != nil {
		t.Fatalf("Child() failed: %v", err)
	}
	getter, ok := again.(resource.Tagged)
	if !ok {
		t.Fatalf("%T implements Taggable but not Tagged", again)
	}
	tag, err := getter.Tag(ctx)
	if err != nil {
		t.Fatalf("Tag() failed: %v", err)
	}
	if tag != "application/json" {
		t.Errorf("Tag() = %q, want %q", tag, "application/json")
	}
}
