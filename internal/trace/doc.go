// Package trace records what a reef run is doing: which units are being
// lowered, which stage each one is in, and at debug level every node of the
// match decision trees.
//
// Events are spans (begin/end pairs with a parent) and points. Each carries
// a scope, and the level picks the scopes that are kept:
//
//	off     nothing
//	error   heartbeats only
//	phase   driver and stage spans (decode, resolve, lower, validate, encode)
//	detail  plus one span per data type and method
//	debug   plus decision-tree nodes and block events
//
// New builds a StreamTracer that writes text or NDJSON as events arrive, a
// RingTracer that keeps the last events for a dump after an internal
// compiler error, or both behind a MultiTracer. Nop is used when tracing is
// off.
//
// The tracer travels in the context:
//
//	ctx = trace.WithTracer(ctx, t)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "lower", trace.Parent(ctx))
//	defer span.End("")
//
// From the command line:
//
//	reef --trace=- --trace-level=phase lower units/
package trace
