// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package exchange implements the bounded ticket exchange: a fixed-capacity
// pool fed by vendor actors and drained by customer actors.
//
// All mutations of the Store are serialized through a single Gate. Readers
// use Store.Snapshot, which never blocks and never observes a partially
// applied mutation. The Controller owns the Store and the actor population
// and drives the idle → running → stopped lifecycle.
package exchange
