// Package google provides OAuth2 configuration and token storage for the
// Google Calendar API.
//
// Tokens are stored per account as JSON files under the user cache directory
// (for example ~/.cache/calbook/google-default.token). The TokenProvider
// interface lets the calendar gateway obtain a refreshing token source without
// knowing where tokens live.
package google
