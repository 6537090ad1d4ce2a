// Package synthetic implements a calendar Gateway that fabricates busy time
// from configurable rules instead of talking to a provider.
//
// It backs demo deployments and serves as the fallback source when live
// provider calls fail and the service is configured to degrade. Nothing is
// persisted: created events are returned to the caller and forgotten.
package synthetic
