package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for handler tree operations.
const (
	// ========================================================================
	// Handler attributes
	// ========================================================================
	AttrOperation = "handler.operation" // load, save
	AttrPath      = "handler.path"      // Absolute path inside the tree
	AttrKind      = "handler.kind"      // file or folder
	AttrFormat    = "handler.format"    // Parser used for file state
	AttrBytes     = "handler.bytes"     // Serialized size

	// ========================================================================
	// Session attributes
	// ========================================================================
	AttrSessionID = "session.id"
	AttrPending   = "session.pending"
	AttrSaved     = "session.saved"

	// ========================================================================
	// Storage backend attributes
	// ========================================================================
	AttrStoreType = "store.type"
	AttrBucket    = "storage.bucket"
	AttrKey       = "storage.key"
)

// Handler operations.
const (
	OpLoad = "load"
	OpSave = "save"
)

// Span names.
// Format: <component>.<operation>
const (
	SpanHandlerLoad   = "handler." + OpLoad
	SpanHandlerSave   = "handler." + OpSave
	SpanSessionCommit = "session.commit"
	SpanStoreRead     = "store.read"
	SpanStoreWrite    = "store.write"
	SpanStoreList     = "store.list"
	SpanStoreDelete   = "store.delete"
	SpanWatchEvent    = "watch.event"
)

// WithAttributes is shorthand for trace.WithAttributes.
func WithAttributes(attrs ...attribute.KeyValue) trace.SpanStartEventOption {
	return trace.WithAttributes(attrs...)
}

// HandlerPath returns an attribute for a handler path
func HandlerPath(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

// Kind returns an attribute for a handler kind
func Kind(kind string) attribute.KeyValue {
	return attribute.String(AttrKind, kind)
}

// Format returns an attribute for a state format name
func Format(name string) attribute.KeyValue {
	return attribute.String(AttrFormat, name)
}

// Bytes returns an attribute for a serialized size
func Bytes(n int) attribute.KeyValue {
	return attribute.Int(AttrBytes, n)
}

// SessionID returns an attribute for a session identifier
func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

// Pending returns an attribute for the number of pending handlers
func Pending(n int) attribute.KeyValue {
	return attribute.Int(AttrPending, n)
}

// Saved returns an attribute for the number of handlers saved by a commit
func Saved(n int) attribute.KeyValue {
	return attribute.Int(AttrSaved, n)
}

// StoreType returns an attribute for store type
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// Bucket returns an attribute for S3 bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for a backend object key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// StartHandlerSpan starts a span for a handler operation.
// This is a convenience function that sets common attributes.
func StartHandlerSpan(ctx context.Context, operation, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		attribute.String(AttrOperation, operation),
		HandlerPath(path),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "handler."+operation, trace.WithAttributes(allAttrs...))
}

// StartStoreSpan starts a span for a storage backend operation.
func StartStoreSpan(ctx context.Context, span, storeType string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		StoreType(storeType),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, span, trace.WithAttributes(allAttrs...))
}
