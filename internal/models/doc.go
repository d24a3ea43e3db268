// Package models defines the core domain types for tripsplit.
//
// # Ownership
//
// The server's store owns the canonical people and receipts. Everything
// else is derived: BalanceRow values are recomputed from a Snapshot on
// every request and are never persisted, and the client side only ever
// holds a read-only copy of the last fetched Snapshot.
//
// # Identity
//
// People are identified by their display name, unique and case-sensitive.
// Receipts and items carry short hex identifiers assigned at creation.
//
// # Design principles
//
//  1. Plain data: no behavior beyond small convenience accessors, so the
//     same types serve storage, transport, and the ledger.
//  2. JSON tags match the wire protocol exactly; field names never leak
//     transport concerns into the ledger or the compressor.
//  3. Nullable numeric fields (quantity, unit price) are pointers; absent
//     means "treat as zero" everywhere downstream.
package models
