// Package testkit holds test doubles shared across the café's packages:
// in-memory implementations of the repository interfaces and a mock
// transport for the outbound HTTP client.
package testkit
