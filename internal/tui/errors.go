package tui

import (
	"slices"
	"strings"
)

// unreachableMarkers are substrings of dial and timeout errors coming out of
// the remote backends.
var unreachableMarkers = []string{
	"connection refused",
	"dial tcp",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"context deadline exceeded",
	"circuit breaker is open",
}

func humanizeServerUnavailableError(msg string) string {
	lower := strings.ToLower(msg)
	unreachable := slices.ContainsFunc(unreachableMarkers, func(m string) bool {
		return strings.Contains(lower, m)
	})
	if unreachable {
		return "No network or the document server is unavailable"
	}
	return msg
}
