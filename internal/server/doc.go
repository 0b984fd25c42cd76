// Package server wires and runs the transport servers.
//
// The document server runs an HTTP document API and an optional gRPC health
// service under one lifecycle with graceful shutdown.
// The sync client runs the debug API through [DebugServer], a worker started
// and stopped with the rest of the client runtime.
package server
