// Package server exposes availcheck over HTTP.
//
// Server accepts form submissions on POST /v1/form-submit. The body carries
// the namedValues map of a form submit event:
//
//	{"namedValues": {"Date": ["9/25/2025"], "Start Time": ["2:00:00 PM"], "End Time": ["3:00:00 PM"]}}
//
// A processed run answers 200 with the run ID and the classification. Missing
// or malformed answers answer 400, a failed sheet update 502.
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed for Kubernetes
// probes. MetricsServer serves /metrics on a separate port.
package server
