package resourcetest

import (
	"testing"

	"github.com/nkhine/itools/pkg/resource"
)

// StoreFactory creates a fresh store for each test. The factory receives
// *testing.T so it can use t.TempDir() and t.Cleanup().
type StoreFactory func(t *testing.T) resource.Store

// RunConformanceSuite runs the full suite against stores built by factory.
//
// The suite covers two categories:
//   - FileOps: create, read, write, append, modification time, tags
//   - ContainerOps: listing, nesting, deletion, name validation, copying
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("FileOps", func(t *testing.T) {
		runFileOpsTests(t, factory)
	})

	t.Run("ContainerOps", func(t *testing.T) {
		runContainerOpsTests(t, factory)
	})
}

// newStore builds a store and registers its Close with t.Cleanup.
func newStore(t *testing.T, factory StoreFactory) resource.Store {
	t.Helper()
	s := factory(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// createFile creates name under c and writes data into it.
func createFile(t *testing.T, c resource.Container, name string, data []byte) resource.Resource {
	t.Helper()

	ctx := t.Context()
	r, err := c.Create(ctx, name, resource.KindFile)
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", name, err)
	}
	if err := r.Write(ctx, data); err != nil {
		t.Fatalf("Write(%q) failed: %v", name, err)
	}
	return r
}

// createFolder creates a folder named name under c.
func createFolder(t *testing.T, c resource.Container, name string) resource.Container {
	t.Helper()

	r, err := c.Create(t.Context(), name, resource.KindFolder)
	if err != nil {
		t.Fatalf("Create(%q, folder) failed: %v", name, err)
	}
	sub, ok := r.(resource.Container)
	if !ok {
		t.Fatalf("Create(%q, folder) returned %T, want resource.Container", name, r)
	}
	return sub
}

// list returns c's children or fails the test.
func list(t *testing.T, c resource.Container) []string {
	t.Helper()

	names, err := c.List(t.Context())
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	return names
}
