// Package handler implements the in-memory handler tree that mirrors a
// resource store.
//
// A tree is made of Nodes: Files, which hold format-specific state parsed
// from a single resource, and Folders, which hold named child Nodes. State
// is loaded lazily on first access and every mutation is staged in memory
// until it is flushed with Save or Session.Commit.
//
// Folders stage structural changes in two overlays layered over their cache
// of backing children:
//
//   - added:   new children not yet written to the store
//   - removed: names to delete from the store on the next save
//
// Resolution consults added first, then the cache (skipping removed names),
// then the folder's virtual-child hook. Saving a folder processes removals
// before additions so that a name deleted and recreated in one session is
// replaced rather than duplicated.
//
// Commits are not atomic. A failure part way through leaves already flushed
// children flushed; callers needing all-or-nothing behaviour should work on
// a Clone and discard it on failure.
//
// A Session is the unit of work: it records which Nodes have pending
// changes, supplies the Registry used to pick a Node type for each backing
// child, and serializes commits with a single lock. Independent Sessions
// never share state.
package handler
