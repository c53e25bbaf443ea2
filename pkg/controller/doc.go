// Package controller contains HTTP middlewares and helper handlers used by the API server.
//
// Provided middlewares:
//   - WithCORS: Answers CORS preflight requests for the configured origins.
//   - WithLogger: Attaches a request-scoped logger and request ID to the context and logs access info.
//   - WithMetrics: Records request counts and latencies per route through OpenTelemetry.
//
// Provided helpers:
//   - RegisterPprof: Mounts the net/http/pprof handlers on a router.
package controller
