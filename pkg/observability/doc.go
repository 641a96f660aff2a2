/*
Package observability turns container lifecycle events into signals.

Metrics exports Prometheus counters and histograms, Tracker keeps the last
known status of every container for the status API, and Logging writes the
events as structured log records. Each of them produces a domain.LifecycleHooks
value; combine them with LifecycleHooks.Merge.
*/
package observability
