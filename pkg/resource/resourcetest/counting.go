package resourcetest

import (
	"context"
	"sync"
	"time"

	"github.com/nkhine/itools/pkg/resource"
)

// Counts tallies operations performed through a Counting wrapper.
type Counts struct {
	Reads    int
	Writes   int
	Appends  int
	Creates  int
	Deletes  int
	Lists    int
	ModTimes int
}

// Mutations returns the number of operations that changed the store.
func (c Counts) Mutations() int {
	return c.Writes + c.Appends + c.Creates + c.Deletes
}

// Counter records operations. The zero value is ready to use.
type Counter struct {
	mu sync.Mutex
	c  Counts
}

// Snapshot returns the counts so far.
func (ctr *Counter) Snapshot() Counts {
	ctr.mu.Lock()
	defer ctr.mu.Unlock()
	return ctr.c
}

// Reset zeroes the counts.
func (ctr *Counter) Reset() {
	ctr.mu.Lock()
	defer ctr.mu.Unlock()
	ctr.c = Counts{}
}

func (ctr *Counter) inc(f func(*Counts)) {
	ctr.mu.Lock()
	f(&ctr.c)
	ctr.mu.Unlock()
}

// Wrap returns a view of c that records every operation, including those
// made through children obtained from it, in ctr.
func Wrap(c resource.Container, ctr *Counter) resource.Container {
	return &countingContainer{countingResource{Resource: c, ctr: ctr}, c}
}

func wrap(r resource.Resource, ctr *Counter) resource.Resource {
	if c, ok := r.(resource.Container); ok && r.Kind() == resource.KindFolder {
		return Wrap(c, ctr)
	}
	return &countingResource{Resource: r, ctr: ctr}
}

type countingResource struct {
	resource.Resource
	ctr *Counter
}

func (r *countingResource) Read(ctx context.Context) ([]byte, error) {
	r.ctr.inc(func(c *Counts) { c.Reads++ })
	return r.Resource.Read(ctx)
}

func (r *countingResource) Write(ctx context.Context, data []byte) error {
	r.ctr.inc(func(c *Counts) { c.Writes++ })
	return r.Resource.Write(ctx, data)
}

func (r *countingResource) Append(ctx context.Context, data []byte) error {
	r.ctr.inc(func(c *Counts) { c.Appends++ })
	return r.Resource.Append(ctx, data)
}

func (r *countingResource) ModTime(ctx context.Context) (time.Time, bool, error) {
	r.ctr.inc(func(c *Counts) { c.ModTimes++ })
	return r.Resource.ModTime(ctx)
}

type countingContainer struct {
	countingResource
	c resource.Container
}

func (w *countingContainer) Child(ctx context.Context, name string) (resource.Resource, error) {
	r, err := w.c.Child(ctx, name)
	if err != nil {
		return nil, err
	}
	return wrap(r, w.ctr), nil
}

func (w *countingContainer) Create(ctx context.Context, name string, kind resource.Kind) (resource.Resource, error) {
	w.ctr.inc(func(c *Counts) { c.Creates++ })
	r, err := w.c.Create(ctx, name, kind)
	if err != nil {
		return nil, err
	}
	return wrap(r, w.ctr), nil
}

func (w *countingContainer) DeleteChild(ctx context.Context, name string) error {
	w.ctr.inc(func(c *Counts) { c.Deletes++ })
	return w.c.DeleteChild(ctx, name)
}

func (w *countingContainer) List(ctx context.Context) ([]string, error) {
	w.ctr.inc(func(c *Counts) { c.Lists++ })
	return w.c.List(ctx)
}
