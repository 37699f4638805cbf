// Package metrics records job and run metrics for documentation builds.
//
// Components receive a Recorder; NoopRecorder is the default so callers never
// check for nil. PrometheusRecorder registers the metrics with a registry and
// can dump them to a node-exporter textfile at the end of a run, since the CLI
// is short-lived and has no scrape endpoint.
package metrics
