// Package internaldefs holds the shared metric name and help-text tables
// consumed by the prometheus and otel exporters. It exists so the two
// exporters render identical metric families without duplicating the
// tables.
package internaldefs
