// Package booking exposes the three calendar operations offered to callers:
// availability lookup, event listing and event creation.
//
// A Service parses and validates caller input at the boundary, delegates to an
// injected DataSource and, when configured to degrade, retries failed reads
// against a fallback source. Input errors are always reported to the caller
// and never masked by fallback data.
package booking
