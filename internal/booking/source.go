package booking

import (
	"fmt"
	"strings"

	"github.com/teemow/calbook/internal/provider"
)

// Data source names.
const (
	SourceLive      = "live"
	SourceSynthetic = "synthetic"
)

// DataSource is a named provider.Gateway.
type DataSource interface {
	provider.Gateway
	Name() string
}

type namedSource struct {
	provider.Gateway
	name string
}

func (s namedSource) Name() string {
	return s.name
}

// Live wraps a gateway that talks to the real calendar provider.
func Live(gw provider.Gateway) DataSource {
	return namedSource{Gateway: gw, name: SourceLive}
}

// Synthetic wraps a gateway that fabricates calendar data.
func Synthetic(gw provider.Gateway) DataSource {
	return namedSource{Gateway: gw, name: SourceSynthetic}
}

// FallbackPolicy decides what happens when the primary source fails.
type FallbackPolicy string

const (
	// PolicyPropagate returns provider failures to the caller.
	PolicyPropagate FallbackPolicy = "propagate"
	// PolicyDegrade serves the request from the fallback source instead.
	PolicyDegrade FallbackPolicy = "degrade"
)

// ParseFallbackPolicy parses a policy name. Empty means propagate.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch FallbackPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPropagate:
		return PolicyPropagate, nil
	case PolicyDegrade:
		return PolicyDegrade, nil
	default:
		return "", fmt.Errorf("invalid fallback policy %q, must be propagate or degrade", s)
	}
}
