// Package tape records every accepted order request in a segmented
// append-only log. A run replayed from its tape reproduces the same
// book and price path, because matching is deterministic in arrival
// order.
//
// Frame layout per record:
//
//	[type:1][seq:8][time:8][len:4][payload][crc32:4]
//
// Payloads use protobuf wire encoding (encoding/protowire); there is
// no generated code on this path.
package tape
