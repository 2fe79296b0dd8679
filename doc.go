// Package optiq is an engine for iterative systems analysis: it couples a
// typed parameter/response data model to black-box simulators through a
// cached, restartable evaluation dispatcher, and drives it with a
// population-based multi-objective genetic iterator.
//
// 🚀 What is optiq?
//
//	A deterministic, batteries-included evaluation-and-iteration core:
//
//	  • Data model: typed variables (real/integer/categorical × design/
//	    uncertain/state) with bounds, sets, and distributions; responses
//	    with active-set semantics for values, gradients, and Hessians.
//	  • Evaluation core: duplicate-detection cache, in-flight coalescing,
//	    append-only restart log, bound-respecting finite differences, and
//	    two-sided → one-sided constraint mapping.
//	  • Iterator: a genetic algorithm with pluggable operators, metric-
//	    tracking convergence, and distance/radial niche pressure.
//
// ✨ Why choose optiq?
//
//   - Deterministic          — one seed reproduces a whole run, streams derived per nest level
//   - Restartable            — every completed evaluation persists; re-runs cost zero simulator calls
//   - Observable             — structured zap logging and prometheus metrics throughout
//   - Extensible             — operators resolve by name from a built-in registry (no exported registration API); drive any simulator behind one contract
//
// Everything is organized under flat, single-purpose packages:
//
//	vars/      — variable schema, spaces, evaluation points
//	response/  — active-set protocol and response records
//	cache/     — duplicate-detection evaluation cache
//	restart/   — append-only restart persistence
//	sim/       — simulator driver contract, sync and async drivers
//	model/     — evaluation dispatch, finite differences, constraint mapping
//	ga/        — the genetic iterator and its operator library
//	problem/   — declarative YAML problem descriptions
//	runtime/   — explicit run context: logger, RNG, metrics, identity
//	cmd/optiq  — the command-line frontend
//
// Dive into DESIGN.md for the grounding of each component and the package
// test suites for end-to-end scenarios.
//
//	go get github.com/katalvlaran/optiq
package optiq
