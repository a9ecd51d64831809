// Package prometheus renders goCredit metrics in Prometheus text exposition format
// without depending on the Prometheus client library.
//
// [PrometheusExporter.Handler] serves a snapshot of the engine counters and the
// debit latency histogram on each scrape.
//
// # What this package must NOT do
//
//   - Mutate engine state.
//   - Cache snapshots between scrapes.
package prometheus
