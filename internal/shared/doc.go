// Package shared holds utilities used across packages that belong to no
// single domain layer. Currently that is the testutil subpackage: slog test
// handlers and logger helpers used by package tests throughout the tree.
package shared
