package googlefit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/fitsync/fitsync/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const sessionsBody = `{
	"session": [
		{
			"id": "session-1",
			"name": "Morning run",
			"description": "",
			"startTimeMillis": "1704450600000",
			"endTimeMillis": "1704452400000",
			"modifiedTimeMillis": "1704452500000",
			"application": {"packageName": "com.google.android.apps.fitness"}
		},
		{
			"id": "session-2",
			"name": "Evening ride",
			"description": "commute",
			"startTimeMillis": "1704487800000",
			"endTimeMillis": "1704491400000",
			"modifiedTimeMillis": "1704491500000",
			"application": {"packageName": "com.strava"}
		}
	]
}`

func fixedNow() time.Time {
	return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
}

type googleFitFixture struct {
	server *httptest.Server

	sessionsStatus int
	sessionsBody   string
	queryParams    url.Values

	tokenStatus int
}

func newGoogleFitFixture(t *testing.T) *googleFitFixture {
	t.Helper()

	f := &googleFitFixture{
		sessionsStatus: http.StatusOK,
		sessionsBody:   sessionsBody,
		tokenStatus:    http.StatusOK,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/fitness/v1/users/me/sessions", func(w http.ResponseWriter, r *http.Request) {
		f.queryParams = r.URL.Query()
		w.WriteHeader(f.sessionsStatus)
		fmt.Fprint(w, f.sessionsBody)
	})

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)

		if f.tokenStatus == http.StatusOK {
			// Google omits the refresh token from the exchange; it never
			// rotates.
			fmt.Fprint(w, `{"access_token": "A2", "token_type": "Bearer"}`)
		} else {
			fmt.Fprint(w, `{"error": "invalid_grant"}`)
		}
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	return f
}

func (f *googleFitFixture) connector(location *time.Location) domain.Connector {
	return NewGoogleFitConnector(ConnectorDeps{
		APIBaseURL: f.server.URL,
		TokenEndpoint: &oauth2.Endpoint{
			TokenURL: f.server.URL + "/token",
		},
		Location:   location,
		HTTPClient: f.server.Client(),
		Now:        fixedNow,
	})
}

func (f *googleFitFixture) request() domain.SyncRequest {
	return domain.SyncRequest{
		Secrets: map[string]string{
			SecretKeyClientID:     "client-id",
			SecretKeyClientSecret: "client-secret",
		},
		State: domain.SyncState{
			Cursor:       "2024-01-05",
			AccessToken:  "A",
			RefreshToken: "R",
		},
	}
}

func TestGoogleFitSyncSuccess(t *testing.T) {
	f := newGoogleFitFixture(t)

	resp, err := f.connector(time.UTC).Sync(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, "2024-01-06", resp.State.Cursor)
	assert.True(t, resp.HasMore)

	// The window covers exactly the cursor day in the configured zone.
	assert.Equal(t, "2024-01-05T00:00:00Z", f.queryParams.Get("startTime"))
	assert.Equal(t, "2024-01-06T00:00:00Z", f.queryParams.Get("endTime"))

	require.Len(t, resp.Insert[TableSessions], 2)

	first := resp.Insert[TableSessions][0]
	assert.Equal(t, "2024-01-05", first["date"])
	assert.Equal(t, "session-1", first["id"])
	assert.Equal(t, "Morning run", first["name"])
	assert.Equal(t, "1704450600000", first["start_time_millis"])
	assert.Equal(t, "com.google.android.apps.fitness", first["source"])

	second := resp.Insert[TableSessions][1]
	assert.Equal(t, "session-2", second["id"])
	assert.Equal(t, "com.strava", second["source"])

	assert.Equal(t, []string{"date", "id"}, resp.Schema[TableSessions].PrimaryKey)
}

func TestGoogleFitSyncWindowFollowsZone(t *testing.T) {
	f := newGoogleFitFixture(t)

	location := time.FixedZone("CST", -6*60*60)

	_, err := f.connector(location).Sync(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, "2024-01-05T00:00:00-06:00", f.queryParams.Get("startTime"))
	assert.Equal(t, "2024-01-06T00:00:00-06:00", f.queryParams.Get("endTime"))
}

func TestGoogleFitSyncNoSessions(t *testing.T) {
	f := newGoogleFitFixture(t)
	f.sessionsBody = `{"session": []}`

	resp, err := f.connector(time.UTC).Sync(context.Background(), f.request())
	require.NoError(t, err)

	// Still a successful day: the cursor advances but nothing is inserted,
	// not even a null placeholder.
	assert.Equal(t, "2024-01-06", resp.State.Cursor)
	assert.True(t, resp.HasMore)
	assert.Empty(t, resp.Insert)
}

func TestGoogleFitSyncMissingSessionList(t *testing.T) {
	f := newGoogleFitFixture(t)
	f.sessionsBody = `{}`

	_, err := f.connector(time.UTC).Sync(context.Background(), f.request())
	require.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestGoogleFitSyncMissingApplication(t *testing.T) {
	f := newGoogleFitFixture(t)
	f.sessionsBody = `{"session": [{"id": "session-1", "name": "Run"}]}`

	_, err := f.connector(time.UTC).Sync(context.Background(), f.request())
	require.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestGoogleFitSyncTokenExpired(t *testing.T) {
	f := newGoogleFitFixture(t)
	f.sessionsStatus = http.StatusUnauthorized

	resp, err := f.connector(time.UTC).Sync(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, "2024-01-05", resp.State.Cursor)
	assert.Equal(t, "A2", resp.State.AccessToken)
	assert.Equal(t, domain.ReturnCause_TokenRefreshed, resp.ReturnCause)
	assert.True(t, resp.HasMore)

	// The previous refresh token carries over untouched.
	assert.Equal(t, "R", resp.State.RefreshToken)
}

func TestGoogleFitSyncRefreshRejected(t *testing.T) {
	f := newGoogleFitFixture(t)
	f.sessionsStatus = http.StatusUnauthorized
	f.tokenStatus = http.StatusBadRequest

	_, err := f.connector(time.UTC).Sync(context.Background(), f.request())
	require.ErrorIs(t, err, domain.ErrAuthRefreshFailed)
}
