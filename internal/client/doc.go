// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the budget-sync client runtime.
//
// It opens the local stores, selects the remote backend, binds the
// encrypted transport to the budget and wires services and background
// workers (sync orchestrator, health watchdog, cache invalidation and the
// optional debug API) into a single process lifecycle.
package client
