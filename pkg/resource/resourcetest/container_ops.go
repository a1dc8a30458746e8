package resourcetest

import (
	"errors"
	"slices"
	"testing"

	"github.com/nkhine/itools/pkg/resource"
	"github.com/nkhine/itools/pkg/resource/memory"
)

// runContainerOpsTests runs all container conformance tests.
func runContainerOpsTests(t *testing.T, factory StoreFactory) {
	t.Run("RootIsEmptyFolder", func(t *testing.T) { testRootIsEmptyFolder(t, factory) })
	t.Run("ListSorted", func(t *testing.T) { testListSorted(t, factory) })
	t.Run("CreateExisting", func(t *testing.T) { testCreateExisting(t, factory) })
	t.Run("ChildNotFound", func(t *testing.T) { testChildNotFound(t, factory) })
	t.Run("InvalidNames", func(t *testing.T) { testInvalidNames(t, factory) })
	t.Run("DeleteChild", func(t *testing.T) { testDeleteChild(t, factory) })
	t.Run("DeleteFolderRecursive", func(t *testing.T) { testDeleteFolderRecursive(t, factory) })
	t.Run("NestedFolders", func(t *testing.T) { testNestedFolders(t, factory) })
	t.Run("SetChildCopiesTree", func(t *testing.T) { testSetChildCopiesTree(t, factory) })
}

// testRootIsEmptyFolder verifies the initial state of a store.
func testRootIsEmptyFolder(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()

	if root.Kind() != resource.KindFolder {
		t.Errorf("Root().Kind() = %v, want folder", root.Kind())
	}
	if names := list(t, root); len(names) != 0 {
		t.Errorf("List() on fresh root = %v, want empty", names)
	}
}

// testListSorted verifies that List returns every child in lexical order.
func testListSorted(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()

	createFile(t, root, "gamma.txt", []byte("g"))
	createFile(t, root, "alpha.txt", []byte("a"))
	createFolder(t, root, "beta")

	got := list(t, root)
	want := []string{"alpha.txt", "beta", "gamma.txt"}
	if !slices.Equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

// testCreateExisting verifies that Create refuses a taken name.
func testCreateExisting(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()

	createFile(t, root, "dup", []byte("1"))
	_, err := root.Create(t.Context(), "dup", resource.KindFile)
	if !errors.Is(err, resource.ErrExists) {
		t.Errorf("Create() on taken name error = %v, want ErrExists", err)
	}
}

// testChildNotFound verifies lookups of unknown names.
func testChildNotFound(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()

	_, err := root.Child(t.Context(), "missing")
	if !errors.Is(err, resource.ErrNotFound) {
		t.Errorf("Child(missing) error = %v, want ErrNotFound", err)
	}
}

// testInvalidNames verifies name validation on Create.
func testInvalidNames(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()

	for _, name := range []string{"", ".", "..", "a/b"} {
		_, err := root.Create(t.Context(), name, resource.KindFile)
		if !errors.Is(err, resource.ErrInvalidName) {
			t.Errorf("Create(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

// testDeleteChild verifies that deleted children disappear.
func testDeleteChild(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()
	ctx := t.Context()

	createFile(t, root, "keep", []byte("k"))
	createFile(t, root, "drop", []byte("d"))

	if err := root.DeleteChild(ctx, "drop"); err != nil {
		t.Fatalf("DeleteChild() failed: %v", err)
	}
	if got := list(t, root); !slices.Equal(got, []string{"keep"}) {
		t.Errorf("List() after delete = %v, want [keep]", got)
	}
	if _, err := root.Child(ctx, "drop"); !errors.Is(err, resource.ErrNotFound) {
		t.Errorf("Child(drop) error = %v, want ErrNotFound", err)
	}
	if err := root.DeleteChild(ctx, "drop"); !errors.Is(err, resource.ErrNotFound) {
		t.Errorf("second DeleteChild() error = %v, want ErrNotFound", err)
	}
}

// testDeleteFolderRecursive verifies that deleting a folder removes its
// subtree and that the name can be reused for an empty folder.
func testDeleteFolderRecursive(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()
	ctx := t.Context()

	dir := createFolder(t, root, "dir")
	createFile(t, dir, "inner.txt", []byte("i"))
	sub := createFolder(t, dir, "sub")
	createFile(t, sub, "deep.txt", []byte("d"))

	if err := root.DeleteChild(ctx, "dir"); err != nil {
		t.Fatalf("DeleteChild(dir) failed: %v", err)
	}
	if names := list(t, root); len(names) != 0 {
		t.Errorf("List() after delete = %v, want empty", names)
	}

	again := createFolder(t, root, "dir")
	if names := list(t, again); len(names) != 0 {
		t.Errorf("recreated folder lists %v, want empty", names)
	}
}

// testNestedFolders verifies lookups through nested containers.
func testNestedFolders(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()
	ctx := t.Context()

	a := createFolder(t, root, "a")
	b := createFolder(t, a, "b")
	createFile(t, b, "doc.txt", []byte("nested"))

	ra, err := root.Child(ctx, "a")
	if err != nil {
		t.Fatalf("Child(a) failed: %v", err)
	}
	ca, ok := ra.(resource.Container)
	if !ok || ra.Kind() != resource.KindFolder {
		t.Fatalf("Child(a) = %T kind %v, want folder container", ra, ra.Kind())
	}
	rb, err := ca.Child(ctx, "b")
	if err != nil {
		t.Fatalf("Child(b) failed: %v", err)
	}
	cb, ok := rb.(resource.Container)
	if !ok {
		t.Fatalf("Child(b) = %T, want resource.Container", rb)
	}
	if got := list(t, cb); !slices.Equal(got, []string{"doc.txt"}) {
		t.Errorf("List(a/b) = %v, want [doc.txt]", got)
	}
	if got := list(t, ca); !slices.Equal(got, []string{"b"}) {
		t.Errorf("List(a) = %v, want [b]", got)
	}
}

// testSetChildCopiesTree verifies copying a subtree from another store.
func testSetChildCopiesTree(t *testing.T, factory StoreFactory) {
	root := newStore(t, factory).Root()
	ctx := t.Context()

	src := memory.New().Root()
	createFile(t, src, "top.txt", []byte("top"))
	inner := createFolder(t, src, "inner")
	createFile(t, inner, "leaf.txt", []byte("leaf"))
	createFolder(t, inner, "empty")

	copied, err := resource.SetChild(ctx, root, "copy", src)
	if err != nil {
		t.Fatalf("SetChild() failed: %v", err)
	}

	got := map[string]string{}
	err = resource.Walk(ctx, copied, func(path string, r resource.Resource) error {
		if r.Kind() == resource.KindFolder {
			got[path] = "<dir>"
			return nil
		}
		data, err := r.Read(ctx)
		got[path] = string(data)
		return err
	})
	if err != nil {
		t.Fatalf("Walk() failed: %v", err)
	}

	want := map[string]string{
		"":               "<dir>",
		"top.txt":        "top",
		"inner":          "<dir>",
		"inner/leaf.txt": "leaf",
		"inner/empty":    "<dir>",
	}
	if len(got) != len(want) {
		t.Fatalf("copied tree = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("copied[%q] = %q, want %q", k, got[k], v)
		}
	}

	if _, err := resource.SetChild(ctx, root, "copy", src); !errors.Is(err, resource.ErrExists) {
		t.Errorf("second SetChild() error = %v, want ErrExists", err)
	}
}
