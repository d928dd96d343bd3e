package connectors

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fitsync/fitsync/pkg/domain"

	"golang.org/x/oauth2"
)

// OAuthRefresher performs a refresh-token grant against a provider's token
// endpoint, with the client credentials pulled from the caller-supplied
// secrets. A rejected exchange is fatal; the orchestrator retries by
// re-invoking later with the previous state.
type OAuthRefresher struct {
	endpoint        oauth2.Endpoint
	clientIDKey     string
	clientSecretKey string
	client          *http.Client
}

type OAuthRefresherDeps struct {
	Endpoint        oauth2.Endpoint
	ClientIDKey     string
	ClientSecretKey string
	HTTPClient      *http.Client
}

func NewOAuthRefresher(deps OAuthRefresherDeps) *OAuthRefresher {
	return &OAuthRefresher{
		endpoint:        deps.Endpoint,
		clientIDKey:     deps.ClientIDKey,
		clientSecretKey: deps.ClientSecretKey,
		client:          deps.HTTPClient,
	}
}

func (r *OAuthRefresher) Refresh(ctx context.Context, secrets map[string]string, state domain.SyncState) (domain.TokenPair, error) {
	if state.RefreshToken == "" {
		return domain.TokenPair{}, fmt.Errorf("%w: no refresh token in state", domain.ErrAuthRefreshFailed)
	}

	conf := &oauth2.Config{
		ClientID:     secrets[r.clientIDKey],
		ClientSecret: secrets[r.clientSecretKey],
		Endpoint:     r.endpoint,
	}

	if r.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)
	}

	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: state.RefreshToken}).Token()
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%w: %v", domain.ErrAuthRefreshFailed, err)
	}

	pair := domain.TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	// Some providers never rotate the refresh token and omit it from the
	// exchange response.
	if pair.RefreshToken == "" {
		pair.RefreshToken = state.RefreshToken
	}

	return pair, nil
}
