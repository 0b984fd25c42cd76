// Package http implements the HTTP surfaces of envelope-sync.
//
// [Handler] serves the document API of the docserver: opaque encrypted
// documents addressed by budget id and path, guarded by budget-scoped JWTs.
// [DebugHandler] serves the local debug API of the budget-sync client:
// health, status, validation, guarded remote resets, forced syncs and
// Prometheus metrics. Cross-cutting concerns such as authentication, request
// tracing, access logging and response compression are handled in this
// package before requests reach the service layer.
package http
