package googlefit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fitsync/fitsync/pkg/connectors"
	"github.com/fitsync/fitsync/pkg/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	defaultAPIBaseURL = "https://www.googleapis.com"

	// DefaultTimezone anchors the daily cursor window. The sessions API is
	// queried with offset-aware timestamps, so the zone decides which wall
	// clock a "day" follows.
	DefaultTimezone = "America/Chicago"
)

const (
	SecretKeyClientID     = "GFIT_CLIENT_ID"
	SecretKeyClientSecret = "GFIT_CLIENT_SECRET"
)

type ConnectorDeps struct {
	APIBaseURL    string
	TokenEndpoint *oauth2.Endpoint
	Location      *time.Location
	HTTPClient    *http.Client
	Now           func() time.Time
}

func NewGoogleFitConnector(deps ConnectorDeps) domain.Connector {
	baseURL := deps.APIBaseURL
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	endpoint := endpoints.Google
	if deps.TokenEndpoint != nil {
		endpoint = *deps.TokenEndpoint
	}

	location := deps.Location
	if location == nil {
		location = time.UTC
	}

	// Google never expires the refresh token, so only the access token is
	// replaced on a refresh.
	return connectors.NewRunner(connectors.RunnerDeps{
		Adapter: &googleFitAdapter{baseURL: baseURL, location: location},
		Refresher: connectors.NewOAuthRefresher(connectors.OAuthRefresherDeps{
			Endpoint:        endpoint,
			ClientIDKey:     SecretKeyClientID,
			ClientSecretKey: SecretKeyClientSecret,
			HTTPClient:      deps.HTTPClient,
		}),
		HTTPClient: deps.HTTPClient,
		Now:        deps.Now,
	})
}

type googleFitAdapter struct {
	baseURL  string
	location *time.Location
}

func (a *googleFitAdapter) Type() domain.ConnectorType {
	return domain.ConnectorType_GoogleFit
}

// BuildRequests issues a single sessions request windowed to the cursor day,
// [day 00:00, day+1 00:00) in the configured zone, serialized as RFC3339
// offset timestamps per the sessions list API.
func (a *googleFitAdapter) BuildRequests(ctx context.Context, day time.Time, auth connectors.RequestAuth) ([]*http.Request, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, a.location)
	end := start.AddDate(0, 0, 1)

	params := url.Values{}
	params.Set("startTime", start.Format(time.RFC3339))
	params.Set("endTime", end.Format(time.RFC3339))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/fitness/v1/users/me/sessions?%s", a.baseURL, params.Encode()), nil)
	if err != nil {
		return nil, err
	}

	request.Header.Set("Accept-Language", "en_US")
	request.Header.Set("Authorization", "Bearer "+auth.AccessToken)

	return []*http.Request{request}, nil
}

type sessionsResponse struct {
	Session *[]sessionEntry `json:"session"`
}

type sessionEntry struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	StartTimeMillis    string              `json:"startTimeMillis"`
	EndTimeMillis      string              `json:"endTimeMillis"`
	ModifiedTimeMillis string              `json:"modifiedTimeMillis"`
	Application        *sessionApplication `json:"application"`
}

type sessionApplication struct {
	PackageName string `json:"packageName"`
}

func (a *googleFitAdapter) ParseResponses(day time.Time, bodies [][]byte) (map[string][]domain.Record, error) {
	if len(bodies) != 1 {
		return nil, fmt.Errorf("%w: expected 1 response body, got %d", domain.ErrMalformedResponse, len(bodies))
	}

	var sessions sessionsResponse
	if err := json.Unmarshal(bodies[0], &sessions); err != nil {
		return nil, fmt.Errorf("%w: sessions: %v", domain.ErrMalformedResponse, err)
	}

	if sessions.Session == nil {
		return nil, fmt.Errorf("%w: sessions response has no session list", domain.ErrMalformedResponse)
	}

	date := day.Format("2006-01-02")

	records := make([]domain.Record, 0, len(*sessions.Session))

	for _, session := range *sessions.Session {
		if session.Application == nil {
			return nil, fmt.Errorf("%w: session %s has no application", domain.ErrMalformedResponse, session.ID)
		}

		records = append(records, domain.Record{
			"date":                 date,
			"id":                   session.ID,
			"name":                 session.Name,
			"description":          session.Description,
			"start_time_millis":    session.StartTimeMillis,
			"end_time_millis":      session.EndTimeMillis,
			"modified_time_millis": session.ModifiedTimeMillis,
			"source":               session.Application.PackageName,
		})
	}

	// A day without sessions emits no records at all, not a null placeholder.
	if len(records) == 0 {
		return map[string][]domain.Record{}, nil
	}

	return map[string][]domain.Record{
		TableSessions: records,
	}, nil
}

func (a *googleFitAdapter) Schema() map[string]domain.TableSchema {
	return Schema
}
