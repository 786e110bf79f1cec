// Package prometheus renders goAccounts metrics in the Prometheus text
// exposition format without depending on the Prometheus client library.
//
// The exporter reads a point-in-time snapshot on every render, so it can be
// scraped concurrently with live traffic.
package prometheus
