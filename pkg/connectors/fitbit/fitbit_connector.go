package fitbit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fitsync/fitsync/pkg/connectors"
	"github.com/fitsync/fitsync/pkg/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const defaultAPIBaseURL = "https://api.fitbit.com"

// Secrets keys holding the OAuth client credentials minted by the one-time
// bootstrap flow.
const (
	SecretKeyClientID     = "FITBIT_CLIENT_ID"
	SecretKeyClientSecret = "FITBIT_CLIENT_SECRET"
)

type ConnectorDeps struct {
	APIBaseURL    string
	TokenEndpoint *oauth2.Endpoint
	HTTPClient    *http.Client
	Now           func() time.Time
}

func NewFitbitConnector(deps ConnectorDeps) domain.Connector {
	baseURL := deps.APIBaseURL
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	endpoint := endpoints.Fitbit
	if deps.TokenEndpoint != nil {
		endpoint = *deps.TokenEndpoint
	}
	// Fitbit requires the client id and secret as a Basic authorization
	// header on the token endpoint.
	endpoint.AuthStyle = oauth2.AuthStyleInHeader

	return connectors.NewRunner(connectors.RunnerDeps{
		Adapter: &fitbitAdapter{baseURL: baseURL},
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

type fitbitAdapter struct {
	baseURL string
}

func (a *fitbitAdapter) Type() domain.ConnectorType {
	return domain.ConnectorType_Fitbit
}

// BuildRequests covers one day with two independent requests: the daily
// activity summary and the daily weight log.
func (a *fitbitAdapter) BuildRequests(ctx context.Context, day time.Time, auth connectors.RequestAuth) ([]*http.Request, error) {
	date := day.Format("2006-01-02")

	urls := []string{
		fmt.Sprintf("%s/1/user/-/activities/date/%s.json", a.baseURL, date),
		fmt.Sprintf("%s/1/user/-/body/log/weight/date/%s.json", a.baseURL, date),
	}

	requests := make([]*http.Request, 0, len(urls))

	for _, url := range urls {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		request.Header.Set("Accept-Language", "en_US")
		request.Header.Set("Authorization", "Bearer "+auth.AccessToken)

		requests = append(requests, request)
	}

	return requests, nil
}

type activitySummaryResponse struct {
	Summary *activitySummary `json:"summary"`
}

type activitySummary struct {
	Steps                int64 `json:"steps"`
	CaloriesBMR          int64 `json:"caloriesBMR"`
	CaloriesOut          int64 `json:"caloriesOut"`
	ActivityCalories     int64 `json:"activityCalories"`
	MarginalCalories     int64 `json:"marginalCalories"`
	SedentaryMinutes     int64 `json:"sedentaryMinutes"`
	LightlyActiveMinutes int64 `json:"lightlyActiveMinutes"`
	FairlyActiveMinutes  int64 `json:"fairlyActiveMinutes"`
	VeryActiveMinutes    int64 `json:"veryActiveMinutes"`
}

type weightLogResponse struct {
	Weight *[]weightLogEntry `json:"weight"`
}

type weightLogEntry struct {
	Weight float64 `json:"weight"`
}

func (a *fitbitAdapter) ParseResponses(day time.Time, bodies [][]byte) (map[string][]domain.Record, error) {
	if len(bodies) != 2 {
		return nil, fmt.Errorf("%w: expected 2 response bodies, got %d", domain.ErrMalformedResponse, len(bodies))
	}

	date := day.Format("2006-01-02")

	var activity activitySummaryResponse
	if err := json.Unmarshal(bodies[0], &activity); err != nil {
		return nil, fmt.Errorf("%w: activity summary: %v", domain.ErrMalformedResponse, err)
	}

	if activity.Summary == nil {
		return nil, fmt.Errorf("%w: activity response has no summary", domain.ErrMalformedResponse)
	}

	var weightLog weightLogResponse
	if err := json.Unmarshal(bodies[1], &weightLog); err != nil {
		return nil, fmt.Errorf("%w: weight log: %v", domain.ErrMalformedResponse, err)
	}

	if weightLog.Weight == nil {
		return nil, fmt.Errorf("%w: weight response has no weight log", domain.ErrMalformedResponse)
	}

	// Days without a logged entry still produce a row, with a null weight.
	var weight any
	if entries := *weightLog.Weight; len(entries) > 0 {
		weight = entries[0].Weight
	}

	return map[string][]domain.Record{
		TableActivity: {
			{
				"date":                 date,
				"steps":                activity.Summary.Steps,
				"caloriesBMR":          activity.Summary.CaloriesBMR,
				"caloriesOut":          activity.Summary.CaloriesOut,
				"activityCalories":     activity.Summary.ActivityCalories,
				"marginalCalories":     activity.Summary.MarginalCalories,
				"sedentaryMinutes":     activity.Summary.SedentaryMinutes,
				"lightlyActiveMinutes": activity.Summary.LightlyActiveMinutes,
				"fairlyActiveMinutes":  activity.Summary.FairlyActiveMinutes,
				"veryActiveMinutes":    activity.Summary.VeryActiveMinutes,
			},
		},
		TableWeight: {
			{
				"date":   date,
				"weight": weight,
			},
		},
	}, nil
}

func (a *fitbitAdapter) Schema() map[string]domain.TableSchema {
	return Schema
}
