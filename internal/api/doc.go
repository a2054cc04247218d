// Package api hosts the HTTP server and middleware in front of the gateway.
// Notable routes, relative to the configured admin prefix:
//   - GET {prefix}/healthz and {prefix}/readyz for Kubernetes probes.
//   - GET {prefix}/metrics for Prometheus scraping.
//
// Every other path is handed to the gateway handler.
package api
