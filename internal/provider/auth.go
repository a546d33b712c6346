// Package provider is the thin remote-ingestion client spec §1 describes
// as out of core scope but still needed as a concrete library: OAuth-PKCE
// token exchange plus a paginated playlist/liked-songs/track fetch that
// writes directly into internal/store.
//
// Grounded on the teacher's server-push path (cmd/nup/update/server.go's
// sendRequest/updateSongs, a synchronous HTTP round trip with basic auth)
// mirrored here as an ingestion path: the same "batch, talk to a remote
// endpoint, persist the result" shape, but pulling instead of pushing and
// authenticating with OAuth-PKCE instead of HTTP basic auth.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// AuthConfig configures the OAuth-PKCE token exchange.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenPath    string // where the refresh/access token pair is persisted
	Scopes       []string
}

var spotifyEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.spotify.com/authorize",
	TokenURL: "https://accounts.spotify.com/api/token",
}

// Authenticator builds an oauth2.Config for the PKCE authorization-code
// flow and persists the resulting token to disk, the way the teacher's
// client.Config persists server credentials loaded once and reused across
// every subsequent request.
type Authenticator struct {
	cfg     AuthConfig
	oauth2  *oauth2.Config
	verifer string
}

// NewAuthenticator returns an Authenticator for cfg.
func NewAuthenticator(cfg AuthConfig) *Authenticator {
	return &Authenticator{
		cfg: cfg,
		oauth2: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     spotifyEndpoint,
		},
	}
}

// AuthCodeURL returns the URL the user visits to grant access, along with
// the PKCE code verifier the caller must pass back into Exchange.
func (a *Authenticator) AuthCodeURL(state string) (url, verifier string) {
	verifier = oauth2.GenerateVerifier()
	a.verifer = verifier
	return a.oauth2.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), verifier
}

// Exchange trades an authorization code for a token and persists it to
// cfg.TokenPath.
func (a *Authenticator) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := a.oauth2.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging auth code: %w", err)
	}
	if err := a.saveToken(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// TokenSource returns a token source that automatically refreshes the persisted
// token, reading the seed token from cfg.TokenPath.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := a.loadToken()
	if err != nil {
		return nil, fmt.Errorf("loading token from %s: %w", a.cfg.TokenPath, err)
	}
	return &persistingSource{
		ctx: ctx, cfg: a.oauth2, save: a.saveToken,
		src: a.oauth2.TokenSource(ctx, tok),
	}, nil
}

func (a *Authenticator) saveToken(tok *oauth2.Token) error {
	b, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.cfg.TokenPath, b, 0o600)
}

func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	b, err := os.ReadFile(a.cfg.TokenPath)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// persistingSource wraps an oauth2.TokenSource, writing the refreshed
// token back to disk whenever it changes so a later run picks up the new
// refresh token instead of re-prompting for consent.
type persistingSource struct {
	ctx  context.Context
	cfg  *oauth2.Config
	src  oauth2.TokenSource
	save func(*oauth2.Token) error
	last *oauth2.Token
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	if p.last == nil || p.last.AccessToken != tok.AccessToken {
		if err := p.save(tok); err != nil {
			return nil, err
		}
		p.last = tok
	}
	return tok, nil
}
