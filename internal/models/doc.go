// Package models defines the core value types of the ledger.
//
// # Models
//
//   - AccountHolder: a person or staff member owning an ordered list of accounts
//   - Account: a numbered balance with an append-only transaction history
//   - TransactionEntry: one immutable record of a balance change
//
// # Design Principles
//
//  1. **Immutability by construction**: the types carry no setters. Every
//     change goes through a With* constructor that returns a new value with
//     the identity fields (holder id, account number) untouched.
//  2. **No aliasing**: With* and Clone copy the slices they replace, so a
//     value handed out by the store can never be mutated behind its back.
//  3. **Snapshot-stable encoding**: the JSON tags are exactly the persisted
//     snapshot field names; marshaling a holder yields its snapshot record.
//
// The types deliberately contain no behavior beyond field access and copying;
// validation and balance rules live in the ledger package.
package models
