package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenProvider supplies OAuth token sources for Google APIs.
type TokenProvider interface {
	// TokenSource returns a refreshing token source for account.
	TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error)

	// HasTokenForAccount reports whether a token is available for account.
	HasTokenForAccount(account string) bool
}

// FileTokenProvider stores tokens as JSON files in a directory.
type FileTokenProvider struct {
	dir  string
	conf *oauth2.Config
}

var _ TokenProvider = (*FileTokenProvider)(nil)

// NewFileTokenProvider creates a provider rooted at dir. An empty dir uses
// DefaultTokenDir.
func NewFileTokenProvider(dir string, creds Credentials) *FileTokenProvider {
	if dir == "" {
		dir = DefaultTokenDir()
	}
	return &FileTokenProvider{dir: dir, conf: OAuthConfig(creds)}
}

// Dir returns the token directory.
func (p *FileTokenProvider) Dir() string {
	return p.dir
}

// AuthURL returns the URL the user visits to authorize account.
func (p *FileTokenProvider) AuthURL(account string) string {
	return p.conf.AuthCodeURL(account, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// TokenSource loads the stored token for account and wraps it in a source
// that refreshes it as needed.
func (p *FileTokenProvider) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	if err := ValidateAccountName(account); err != nil {
		return nil, err
	}
	tok, err := readToken(TokenFilePath(p.dir, account))
	if err != nil {
		return nil, err
	}
	return p.conf.TokenSource(ctx, tok), nil
}

// HasTokenForAccount reports whether a token file exists and parses.
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	if ValidateAccountName(account) != nil {
		return false
	}
	_, err := readToken(TokenFilePath(p.dir, account))
	return err == nil
}

// SaveToken stores tok for account.
func (p *FileTokenProvider) SaveToken(account string, tok *oauth2.Token) error {
	if err := ValidateAccountName(account); err != nil {
		return err
	}
	return writeToken(TokenFilePath(p.dir, account), tok)
}

// Exchange trades an authorization code for a token and stores it.
func (p *FileTokenProvider) Exchange(ctx context.Context, account, code string) error {
	if err := ValidateAccountName(account); err != nil {
		return err
	}
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return p.SaveToken(account, tok)
}

// StaticTokenProvider serves a fixed token for every account.
type StaticTokenProvider struct {
	Token *oauth2.Token
}

var _ TokenProvider = StaticTokenProvider{}

// TokenSource returns a non-refreshing source for the fixed token.
func (p StaticTokenProvider) TokenSource(_ context.Context, _ string) (oauth2.TokenSource, error) {
	if p.Token == nil {
		return nil, ErrNoToken
	}
	return oauth2.StaticTokenSource(p.Token), nil
}

// HasTokenForAccount reports whether a token is configured.
func (p StaticTokenProvider) HasTokenForAccount(string) bool {
	return p.Token != nil
}
