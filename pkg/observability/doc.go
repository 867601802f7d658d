/*
Package observability provides tools for monitoring progress aggregation.

It exposes Prometheus collectors and structured-log emitters as
progress.Hooks, so any channel (and every project built with arche.WithHooks)
reports folded, skipped and dropped events and the number of live
subscribers.
*/
package observability
