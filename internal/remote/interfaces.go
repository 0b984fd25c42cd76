// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package remote provides the document stores the cloud transport writes
// encrypted budget documents to.
//
// The primary abstraction is [DocumentStore]: an opaque key/value namespace
// per budget. Backends:
//   - [MemoryStore] keeps documents in process memory;
//   - [HTTPStore] talks to the document server over HTTP with a bearer token
//     and a circuit breaker;
//   - [S3Store] maps documents to objects in an S3 bucket;
//   - [PostgresStore] keeps documents in the document server's database.
//
// Backends translate their native "missing" condition into
// [ErrDocumentNotFound] so callers can use [errors.Is] regardless of the
// backend in use.
package remote

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_mock.go -package=mock

// DocumentStore stores opaque documents addressed by budget id and a
// slash-separated path such as "manifest" or "chunks/<generation>/envelopes/0".
type DocumentStore interface {
	// Get returns the document body or an error wrapping [ErrDocumentNotFound].
	Get(ctx context.Context, budgetID, path string) ([]byte, error)

	// Put creates or overwrites a document.
	Put(ctx context.Context, budgetID, path string, body []byte) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, budgetID, path string) error

	// List returns the paths starting with prefix in ascending order.
	List(ctx context.Context, budgetID, prefix string) ([]string, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// Prober reports whether a remote endpoint is reachable.
type Prober interface {
	Ping(ctx context.Context) error
}
