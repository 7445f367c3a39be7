// Package book implements the resting-order side of the matching core:
// two independent price-time priority collections, one per side, backed
// by a red-black tree of price levels with FIFO order queues inside
// each level.
//
// The book is a single-writer structure. It performs no logging and no
// I/O; durability and event publication live in infra and service.
package book
