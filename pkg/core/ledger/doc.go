// Package ledger records, per source context, the highest package sequence
// number seen so far. A Context consults it to drop duplicates that arrive
// over redundant paths of the mesh.
//
// Properties:
//   - sharded map guarded by per-shard mutexes
//   - Advance is an atomic check-and-set
//   - optional idle expiry of sources that stopped sending (Options.IdleTTL)
//   - atomic counters readable without locking
package ledger
