// Package store provides durable SQLite storage for dataset instances.
//
// The store is the live side of the backup pipelines: export reads from it
// through ordered, batched listings, and import writes into it inside a
// single transaction. Instances are addressed by (model, pk) and carry a
// canonical natural-key string so references can be resolved portably.
package store
