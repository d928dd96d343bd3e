package connectors

import (
	"context"
	"net/http"
	"time"

	"github.com/fitsync/fitsync/pkg/domain"
)

// RequestAuth carries whatever a source needs to authorize a data request:
// the short-lived access token for OAuth sources, or the raw secrets for
// sources that authenticate each request directly.
type RequestAuth struct {
	AccessToken string
	Secrets     map[string]string
}

// SourceAdapter captures what differs between providers: which requests cover
// one cursor day and how the response bodies flatten into records.
type SourceAdapter interface {
	Type() domain.ConnectorType

	// BuildRequests returns the requests needed to cover one cursor day.
	// Requests are independent of each other and may be issued concurrently.
	BuildRequests(ctx context.Context, day time.Time, auth RequestAuth) ([]*http.Request, error)

	// ParseResponses receives the response bodies in BuildRequests order and
	// reshapes them into records keyed by table name. A body that does not
	// match the provider's documented shape must fail with
	// domain.ErrMalformedResponse; the day's data is all-or-nothing.
	ParseResponses(day time.Time, bodies [][]byte) (map[string][]domain.Record, error)

	Schema() map[string]domain.TableSchema
}

// TokenRefresher exchanges a refresh token for a fresh credential pair.
// Sources without a token flow simply don't provide one, in which case an
// authorization failure from the source is fatal.
type TokenRefresher interface {
	Refresh(ctx context.Context, secrets map[string]string, state domain.SyncState) (domain.TokenPair, error)
}
