// Package backup implements the export and import pipelines.
//
// Export walks the live store in dependency-resolver order and streams a
// portable snapshot document. Import replays a document into the store as
// one atomic transaction, resolving natural-key references back to storage
// keys and resetting sequence counters after commit. Both pipelines take a
// context and stop cooperatively between records; an aborted import leaves
// the destination in its pre-transaction state.
package backup
