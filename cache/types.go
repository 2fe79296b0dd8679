// Package cache implements the evaluation cache: a duplicate-detection
// multi-index over ParameterResponsePairs keyed by (interface-id, variables),
// with in-flight registration so concurrent launches of an identical point
// coalesce into one simulator invocation.
//
// Design goals:
//   - Bit-exact identity: duplicate detection fires only when an algorithm
//     literally re-asks the same point (restart replay, FD around a
//     previously evaluated center).
//   - Serialized writes: one mutex guards the index; the cache and the
//     restart log are the only globally shared resources in the engine.
//   - Bounded option: an opt-in LRU cap that never evicts restart-sourced
//     pairs.
package cache

import "errors"

// Sentinel errors.
var (
	// ErrInterfaceMismatch indicates an eval-id completing against a
	// different interface than the one registered.
	ErrInterfaceMismatch = errors.New("cache: interface mismatch on completion")

	// ErrUnknownEval indicates a completion or query for an eval-id that was
	// never registered (or was already completed).
	ErrUnknownEval = errors.New("cache: unknown evaluation id")

	// ErrDuplicateEval indicates re-registration of a live eval-id.
	ErrDuplicateEval = errors.New("cache: evaluation id already registered")

	// ErrCorrupt indicates internal index inconsistency. Fatal: the engine
	// must not continue deduplicating against a broken index.
	ErrCorrupt = errors.New("cache: index corrupt")

	// ErrNilPair indicates a nil pair or nil response handed to Store.
	ErrNilPair = errors.New("cache: nil pair")
)

// Options configures a Cache. Zero value means unbounded.
type Options struct {
	// MaxEntries bounds the number of stored pairs; 0 disables the bound.
	// Eviction is LRU and skips restart-sourced pairs, which stay pinned so
	// a long run can always be replayed against its own history.
	MaxEntries int
}

// DefaultOptions returns an unbounded cache configuration.
func DefaultOptions() Options { return Options{} }
