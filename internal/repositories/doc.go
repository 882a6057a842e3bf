// Package repositories implements the local stores layered over the key-value store.
//
// Every repository keeps a whole JSON document under one key and performs read-modify-write on it.
// Absent or unparsable documents read as empty, so a damaged value never blocks the client.
//
// Key Implementations:
//   - [PlaylistRepository] : Saved-for-later video snapshots, at most one per video id
//   - [HistoryRepository] : Bounded, de-duplicated list of recently seen tags
//   - [AccountRepository] : Local demo accounts used by the identity registry
//
// Writes within one process are serialized per repository. Nothing coordinates separate processes sharing a store;
// the last full-document write wins.
package repositories
