// Package api implements the HTTP admin surface of nlogd.
//
// This package provides:
//   - Instance control endpoints (status, suspend, resume, reload, unload)
//   - Audit trail queries backed by the audit repository
//   - Runtime metrics as JSON and Prometheus exposition at /metrics
//   - Middleware stack (request ID, logging, recovery, body limit)
//   - Bearer token checks per permission when admin.auth.jwt_secret is set
//
// # Endpoints
//
//	GET    /api/v1/health
//	GET    /api/v1/status
//	POST   /api/v1/suspend
//	POST   /api/v1/resume
//	POST   /api/v1/reload
//	DELETE /api/v1/configuration
//	GET    /api/v1/audit
//	GET    /api/v1/system
//	GET    /metrics
//
// # Graceful Degradation
//
// The audit and Prometheus endpoints are optional. Without an audit
// repository /api/v1/audit answers 503, and without a gatherer /metrics is
// not mounted. Instance control always works.
package api
