package handler

import (
	"context"
	"time"

	"github.com/nkhine/itools/internal/logger"
	"github.com/nkhine/itools/internal/telemetry"
	"github.com/nkhine/itools/pkg/handler/errors"
	"github.com/nkhine/itools/pkg/resource"
)

// File is a Node whose state is parsed from a single byte resource by its
// Format.
type File struct {
	base
	format Format
	state  State
}

var _ Node = (*File)(nil)

// NewFile creates a detached file with the format's default state. A nil
// format means Opaque.
func NewFile(format Format) *File {
	if format == nil {
		format = Opaque
	}
	return &File{format: format, state: format.New()}
}

// newBoundFile creates a file whose state is read from r on first access.
func newBoundFile(format Format, r resource.Resource) *File {
	if format == nil {
		format = Opaque
	}
	f := &File{format: format}
	f.res = r
	return f
}

// Kind returns resource.KindFile.
func (f *File) Kind() resource.Kind { return resource.KindFile }

// Format returns the format that parses this file.
func (f *File) Format() Format { return f.format }

func (f *File) ensureLoaded(ctx context.Context) error {
	if f.needsLoad() {
		return f.Load(ctx)
	}
	return nil
}

// Load reads and parses the bound resource. A file without a resource has
// nothing to load.
func (f *File) Load(ctx context.Context) (err error) {
	if f.res == nil {
		return nil
	}

	path := f.Path()
	ctx, span := telemetry.StartHandlerSpan(ctx, telemetry.OpLoad, path, telemetry.Format(f.format.Name()))
	defer span.End()

	start := time.Now()
	var size int
	defer func() {
		f.sess.observeLoad(resource.KindFile, size, time.Since(start), err)
		telemetry.RecordError(ctx, err)
	}()

	data, err := f.res.Read(ctx)
	if err != nil {
		return errors.NewResourceError(path, "read", err)
	}
	size = len(data)

	st, err := f.format.Load(data)
	if err != nil {
		return errors.NewParseError(path, f.format.Name(), err)
	}

	f.state = st
	f.markSynced(ctx)

	logger.DebugCtx(ctx, "file loaded",
		logger.KeyPath, path,
		logger.KeyFormat, f.format.Name(),
		logger.KeyBytes, size)
	return nil
}

// State returns the file's state, loading it first if needed. Callers that
// modify the returned value must call MarkChanged; Update does both.
func (f *File) State(ctx context.Context) (State, error) {
	if err := f.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return f.state, nil
}

// Update runs fn on the loaded state and marks the file changed if fn
// succeeds.
func (f *File) Update(ctx context.Context, fn func(State) error) error {
	if err := f.ensureLoaded(ctx); err != nil {
		return err
	}
	if err := fn(f.state); err != nil {
		return err
	}
	f.touch(f)
	return nil
}

// SetState replaces the file's state and marks it changed.
func (f *File) SetState(ctx context.Context, s State) error {
	if s == nil {
		return errors.NewInvalidArgumentError(f.Path(), "nil state")
	}
	if err := f.ensureLoaded(ctx); err != nil {
		return err
	}
	f.state = s
	f.touch(f)
	return nil
}

// Bytes returns the serialized form of the current state.
func (f *File) Bytes(ctx context.Context) ([]byte, error) {
	if err := f.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	data, err := f.state.Serialize()
	if err != nil {
		return nil, errors.NewParseError(f.Path(), f.format.Name(), err)
	}
	return data, nil
}

// MarkChanged records a local edit.
func (f *File) MarkChanged(ctx context.Context) error {
	if err := f.ensureLoaded(ctx); err != nil {
		return err
	}
	f.touch(f)
	return nil
}

// Save writes the state to the bound resource.
func (f *File) Save(ctx context.Context) error {
	release, err := lock(ctx, f.sess)
	if err != nil {
		return err
	}
	defer release()
	return f.save(ctx)
}

func (f *File) save(ctx context.Context) (err error) {
	if f.res == nil {
		return errors.NewInvalidArgumentError(f.Path(), "file has no resource")
	}
	if f.needsLoad() {
		// Never loaded, so never edited.
		f.sess.Remove(f)
		return nil
	}

	path := f.Path()
	ctx, span := telemetry.StartHandlerSpan(ctx, telemetry.OpSave, path, telemetry.Format(f.format.Name()))
	defer span.End()

	start := time.Now()
	var size int
	defer func() {
		f.sess.observeSave(resource.KindFile, size, time.Since(start), err)
		telemetry.RecordError(ctx, err)
	}()

	data, err := f.state.Serialize()
	if err != nil {
		return errors.NewParseError(path, f.format.Name(), err)
	}
	size = len(data)

	if err := f.res.Write(ctx, data); err != nil {
		return errors.NewResourceError(path, "write", err)
	}

	f.markSynced(ctx)
	f.sess.Remove(f)

	logger.DebugCtx(ctx, "file saved", logger.KeyPath, path, logger.KeyBytes, size)
	return nil
}

// Clone returns a detached file holding a deep copy of the state.
func (f *File) Clone(ctx context.Context) (Node, error) {
	if err := f.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return &File{format: f.format, state: f.state.Clone()}, nil
}

// LoadFrom parses r into the file's state and marks the file changed.
func (f *File) LoadFrom(ctx context.Context, r resource.Resource) error {
	data, err := r.Read(ctx)
	if err != nil {
		return errors.NewResourceError(f.Path(), "read", err)
	}
	st, err := f.format.Load(data)
	if err != nil {
		return errors.NewParseError(f.Path(), f.format.Name(), err)
	}
	f.state = st
	f.touch(f)
	return nil
}

// SaveTo writes the serialized state into r.
func (f *File) SaveTo(ctx context.Context, r resource.Resource) error {
	release, err := lock(ctx, f.sess)
	if err != nil {
		return err
	}
	defer release()
	return f.saveTo(ctx, r)
}

func (f *File) saveTo(ctx context.Context, r resource.Resource) error {
	data, err := f.Bytes(ctx)
	if err != nil {
		return err
	}
	if err := r.Write(ctx, data); err != nil {
		return errors.NewResourceError(f.Path(), "write", err)
	}
	return nil
}

func (f *File) attach(s *Session) {
	if s != nil {
		f.sess = s
	}
}

func (f *File) forget() {
	f.sess.Remove(f)
}
