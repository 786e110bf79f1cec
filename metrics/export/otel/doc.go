// Package otel bridges goAccounts metrics into an OpenTelemetry meter using
// observable instruments. Counters and cumulative histogram buckets are read
// from a snapshot inside a single registered callback, so collection never
// blocks live traffic.
package otel
