// Package engine drives a single-instrument continuous double auction.
// It consumes order requests, matches them against the book, re-quotes
// market-maker liquidity around every trade price, and drains any
// crossed state back to quiescence before returning.
//
// The engine is a single-writer state machine: each Submit runs to a
// terminal outcome (resting, filled, dropped, or rejected) before the
// next request is accepted. Nothing in this package blocks or logs.
package engine
