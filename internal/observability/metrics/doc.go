// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the pipeline metrics:
//   - Listing fetch duration and failures by kind
//   - Stories extracted, new, and matched
//   - Archive writes and history size
//   - Ops endpoint HTTP requests
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
package metrics
