package calendar

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/teemow/calbook/internal/google"
	"github.com/teemow/calbook/internal/provider"
)

// rateLimitReasons are 403 reasons Google uses for quota exhaustion.
var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// classify maps a raw client error onto the provider error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pe *provider.Error
	if errors.As(err, &pe) {
		return err
	}

	wrap := func(kind provider.Kind, status int) error {
		return &provider.Error{Kind: kind, Op: op, StatusCode: status, Err: err}
	}

	if errors.Is(err, google.ErrNoToken) {
		return wrap(provider.KindAuth, 0)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return wrap(provider.KindAuth, status)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusUnauthorized:
			return wrap(provider.KindAuth, gerr.Code)
		case gerr.Code == http.StatusForbidden && isRateLimited(gerr):
			return wrap(provider.KindProvider, http.StatusTooManyRequests)
		case gerr.Code == http.StatusForbidden:
			return wrap(provider.KindAuth, gerr.Code)
		default:
			return wrap(provider.KindProvider, gerr.Code)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return wrap(provider.KindNetwork, 0)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(provider.KindNetwork, 0)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return wrap(provider.KindNetwork, 0)
	}

	return wrap(provider.KindProvider, 0)
}

func isRateLimited(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		if rateLimitReasons[item.Reason] {
			return true
		}
	}
	return false
}
