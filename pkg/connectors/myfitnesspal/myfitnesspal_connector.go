package myfitnesspal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fitsync/fitsync/pkg/connectors"
	"github.com/fitsync/fitsync/pkg/domain"
)

const defaultAPIBaseURL = "https://api.myfitnesspal.com"

// MyFitnessPal has no OAuth flow; the diary is read with a direct
// username/password client login pulled from the secrets on every request.
const (
	SecretKeyUsername = "MYFITNESSPAL_USERNAME"
	SecretKeyPassword = "MYFITNESSPAL_PASSWORD"
)

type ConnectorDeps struct {
	APIBaseURL string
	HTTPClient *http.Client
	Now        func() time.Time
}

// NewMyFitnessPalConnector builds the diary connector. No TokenRefresher is
// wired, so a 401 from the source is fatal rather than a refresh branch.
func NewMyFitnessPalConnector(deps ConnectorDeps) domain.Connector {
	baseURL := deps.APIBaseURL
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	return connectors.NewRunner(connectors.RunnerDeps{
		Adapter:    &myFitnessPalAdapter{baseURL: baseURL},
		HTTPClient: deps.HTTPClient,
		Now:        deps.Now,
	})
}

type myFitnessPalAdapter struct {
	baseURL string
}

func (a *myFitnessPalAdapter) Type() domain.ConnectorType {
	return domain.ConnectorType_MyFitnessPal
}

// diaryDays returns the days covered by one invocation: the cursor day plus
// the preceding day, to catch meals entered late (dinner logged the next
// morning).
func diaryDays(day time.Time) []time.Time {
	return []time.Time{day.AddDate(0, 0, -1), day}
}

func (a *myFitnessPalAdapter) BuildRequests(ctx context.Context, day time.Time, auth connectors.RequestAuth) ([]*http.Request, error) {
	days := diaryDays(day)

	requests := make([]*http.Request, 0, len(days))

	for _, d := range days {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/api/v2/diary?date=%s", a.baseURL, d.Format("2006-01-02")), nil)
		if err != nil {
			return nil, err
		}

		request.SetBasicAuth(auth.Secrets[SecretKeyUsername], auth.Secrets[SecretKeyPassword])

		requests = append(requests, request)
	}

	return requests, nil
}

type diaryResponse struct {
	Meals *[]diaryMeal `json:"meals"`
}

type diaryMeal struct {
	Name   string             `json:"name"`
	Totals map[string]float64 `json:"totals"`
}

func (a *myFitnessPalAdapter) ParseResponses(day time.Time, bodies [][]byte) (map[string][]domain.Record, error) {
	days := diaryDays(day)

	if len(bodies) != len(days) {
		return nil, fmt.Errorf("%w: expected %d response bodies, got %d", domain.ErrMalformedResponse, len(days), len(bodies))
	}

	var records []domain.Record

	for i, body := range bodies {
		var diary diaryResponse
		if err := json.Unmarshal(body, &diary); err != nil {
			return nil, fmt.Errorf("%w: diary: %v", domain.ErrMalformedResponse, err)
		}

		if diary.Meals == nil {
			return nil, fmt.Errorf("%w: diary response has no meals", domain.ErrMalformedResponse)
		}

		date := days[i].Format("2006-01-02")

		for _, meal := range *diary.Meals {
			record := domain.Record{
				"date": date,
				"name": meal.Name,
			}

			// The nutrient totals pass through as-is; the set of keys is
			// whatever the diary tracks (calories, carbohydrates, fat, ...).
			for nutrient, value := range meal.Totals {
				record[nutrient] = value
			}

			records = append(records, record)
		}
	}

	if len(records) == 0 {
		return map[string][]domain.Record{}, nil
	}

	return map[string][]domain.Record{
		TableTotals: records,
	}, nil
}

func (a *myFitnessPalAdapter) Schema() map[string]domain.TableSchema {
	return Schema
}
