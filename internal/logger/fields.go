package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging. Use these keys consistently so
// that log lines from the handler tree, the stores and the CLI can be
// aggregated and queried together.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Handler Tree
	// ========================================================================
	KeySession   = "session"   // Session identifier
	KeyOperation = "operation" // load, save, commit, get, set, del
	KeyPath      = "path"      // Path of the handler within the tree
	KeyName      = "name"      // Child name within its folder
	KeyKind      = "kind"      // file or folder
	KeyFormat    = "format"    // Format name bound to a file handler
	KeyPending   = "pending"   // Number of handlers with pending changes
	KeySaved     = "saved"     // Number of handlers flushed by a commit
	KeyAdded     = "added"     // Size of a folder's added overlay
	KeyRemoved   = "removed"   // Size of a folder's removed overlay
	KeyCached    = "cached"    // Number of resolved cache entries

	// ========================================================================
	// Type Registry
	// ========================================================================
	KeyDiscriminator = "discriminator"
	KeyTag           = "tag"

	// ========================================================================
	// Backing Store
	// ========================================================================
	KeyStore  = "store"  // Store type: memory, fs, billy, badger, sql, s3
	KeyBucket = "bucket" // S3 bucket name
	KeyKey    = "key"    // Object or record key
	KeyBytes  = "bytes"  // Payload size in bytes
	KeyMTime  = "mtime"  // Backing modification time

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
	KeyEvent      = "event" // Watch event type
)

// TraceID returns a slog.Attr for an OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// Session returns a slog.Attr for a session identifier.
func Session(id string) slog.Attr {
	return slog.String(KeySession, id)
}

// Operation returns a slog.Attr for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Path returns a slog.Attr for a handler path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Name returns a slog.Attr for a child name.
func Name(n string) slog.Attr {
	return slog.String(KeyName, n)
}

// Kind returns a slog.Attr for a resource kind.
func Kind(k string) slog.Attr {
	return slog.String(KeyKind, k)
}

// Store returns a slog.Attr for the backing store type.
func Store(s string) slog.Attr {
	return slog.String(KeyStore, s)
}

// Bytes returns a slog.Attr for a payload size.
func Bytes(n int) slog.Attr {
	return slog.Int(KeyBytes, n)
}

// Pending returns a slog.Attr for the pending-set size.
func Pending(n int) slog.Attr {
	return slog.Int(KeyPending, n)
}

// MTime returns a slog.Attr for a modification time.
func MTime(t time.Time) slog.Attr {
	return slog.Time(KeyMTime, t)
}

// DurationMs returns a slog.Attr with the elapsed time since start.
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, Duration(start))
}

// Err returns a slog.Attr for an error. A nil error yields an empty Attr,
// which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
