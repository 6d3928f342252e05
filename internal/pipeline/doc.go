// Package pipeline counts lines and non-whitespace characters across a
// directory tree with three concurrent stages joined by two bounded queues:
//
//	discoverer -> work queue -> workers -> result queue -> aggregator
//
// Data flows in one direction only. Control flows backwards once, at
// shutdown: the discoverer closes the work queue when the walk ends, every
// worker exits after observing the work queue empty-and-closed, and the last
// worker to exit closes the result queue, which lets the aggregator finish.
// Both close decisions and the live-worker count sit behind a single
// coordinator lock, so "last worker closes the result queue" is one atomic
// transition.
//
// Per-file failures are absorbed by the stage that meets them and reported to
// an Observer. Only an inaccessible root aborts a run, and it does so before
// any goroutine starts.
package pipeline
