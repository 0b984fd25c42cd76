// Package config provides configuration loading, merging, and validation
// facilities for budget-sync and the document server.
//
// Configuration is assembled from multiple sources in the following priority
// order (later sources override earlier non-zero fields):
//  1. Built-in defaults
//  2. JSON config file
//  3. Environment variables
//  4. Command-line flags
//
// The main entry points are [GetClientConfig] and [GetServerConfig], which
// narrow [StructuredConfig] into validated per-binary views.
package config
