// Package shared holds utilities used across the converter that do not
// belong to any one architectural layer.
//
// # Structure
//
//   - testutil: test fixtures and helpers shared by package tests,
//     including COSMED session document builders and an in-memory
//     slog handler for asserting on log output
//
// # Usage Guidelines
//
// Code here must stay free of domain logic and of dependencies on other
// internal packages; anything importable from both the service layer and
// the transport layer without cycles qualifies, everything else belongs
// in its own package.
package shared
