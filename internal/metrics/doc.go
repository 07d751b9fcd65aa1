// Package metrics provides the observability hooks of a catalog generation run.
//
// Components receive a Recorder through their constructor or struct field and
// default to NoopRecorder, so metrics never require nil checks:
//
//	b := &discovery.Builder{Root: root, Recorder: metrics.NoopRecorder{}}
//
// The build command swaps in a PrometheusRecorder bound to a private registry and
// writes it with WriteTextfile when --metrics-file is set; the preview server
// exposes the same registry on /metrics through HTTPHandler.
package metrics
