// Package service orchestrates the core components of the simulator:
// matching engine, order tape, trade outbox, and memory reclamation.
//
// EngineService is the ONLY write entry point. Everything that must
// stay atomic per order (tape intent, matching, drain, outbox
// persistence, retirement) happens inside Submit.
package service
