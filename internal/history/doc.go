// Package history persists performance runs to SQLite.
//
// Two layers:
//
//   - Repository: synchronous, context-based access to the performances
//     and performance_actions tables. Used directly by queries and tests.
//   - Recorder: an asynchronous wrapper the tick loop talks to. Writes
//     are queued to a background goroutine so a slow disk never stalls
//     a tick; when the queue is full new records are dropped with a
//     warning rather than blocking.
//
// IDs are short uuid-derived strings ("perf-3fa85f12"), readable in
// logs and stable across queries.
package history
