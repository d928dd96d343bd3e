package connectors

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fitsync/fitsync/pkg/domain"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const cursorDateLayout = "2006-01-02"

// Secrets keys used to seed the state blob on the first invocation. The
// orchestrator keeps track of subsequent updates in the state node itself.
const (
	secretKeyCursor       = "cursor"
	secretKeyAccessToken  = "access_token"
	secretKeyRefreshToken = "refresh_token"
)

// Runner drives the cursor-advance and token-refresh protocol shared by all
// connectors. Each Sync call performs exactly one protocol step: it either
// fetches one day of data and advances the cursor, refreshes an expired
// token without advancing, or reports a non-advancing condition to the
// orchestrator.
type Runner struct {
	adapter   SourceAdapter
	refresher TokenRefresher
	client    *http.Client
	now       func() time.Time
}

type RunnerDeps struct {
	Adapter    SourceAdapter
	Refresher  TokenRefresher
	HTTPClient *http.Client
	Now        func() time.Time
}

func NewRunner(deps RunnerDeps) *Runner {
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Runner{
		adapter:   deps.Adapter,
		refresher: deps.Refresher,
		client:    client,
		now:       now,
	}
}

func (r *Runner) Type() domain.ConnectorType {
	return r.adapter.Type()
}

func (r *Runner) Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResponse, error) {
	state := seedState(req)

	day, err := parseCursorDate(state.Cursor)
	if err != nil {
		return domain.SyncResponse{}, fmt.Errorf("invalid cursor %q: %w", state.Cursor, err)
	}

	today := dateOf(r.now())

	if day.After(today) {
		return domain.SyncResponse{}, fmt.Errorf("%w: cursor %s is later than today %s",
			domain.ErrInvariantViolation, formatDate(day), formatDate(today))
	}

	// The cursor sitting on today means that day is not over yet and must not
	// be fetched. State and tokens are left untouched.
	if day.Equal(today) {
		return domain.SyncResponse{
			State:       state,
			HasMore:     false,
			ReturnCause: domain.ReturnCause_CursorNotComplete,
		}, nil
	}

	requests, err := r.adapter.BuildRequests(ctx, day, RequestAuth{
		AccessToken: state.AccessToken,
		Secrets:     req.Secrets,
	})
	if err != nil {
		return domain.SyncResponse{}, fmt.Errorf("failed to build requests: %w", err)
	}

	results, err := r.fetchAll(ctx, requests)
	if err != nil {
		return domain.SyncResponse{}, err
	}

	if anyStatus(results, http.StatusUnauthorized) {
		return r.refreshTokens(ctx, req, state)
	}

	if anyStatus(results, http.StatusTooManyRequests) {
		log.Info().
			Str("connector", string(r.adapter.Type())).
			Str("cursor", state.Cursor).
			Msg("Source rate limited, deferring to a later invocation")

		return domain.SyncResponse{
			State:       state,
			HasMore:     false,
			ReturnCause: domain.ReturnCause_RateLimited,
		}, nil
	}

	for _, result := range results {
		if result.status != http.StatusOK {
			return domain.SyncResponse{}, fmt.Errorf("source returned unexpected status %d", result.status)
		}
	}

	bodies := make([][]byte, len(results))
	for i, result := range results {
		bodies[i] = result.body
	}

	records, err := r.adapter.ParseResponses(day, bodies)
	if err != nil {
		return domain.SyncResponse{}, err
	}

	// The cursor advances only on confirmed success. A crash between fetch
	// and advance causes a re-fetch of the same day, and the primary key on
	// date makes the re-inserted records idempotent downstream.
	state.Cursor = formatDate(day.AddDate(0, 0, 1))

	return domain.SyncResponse{
		State:   state,
		Insert:  records,
		Schema:  r.adapter.Schema(),
		HasMore: true,
	}, nil
}

func (r *Runner) refreshTokens(ctx context.Context, req domain.SyncRequest, state domain.SyncState) (domain.SyncResponse, error) {
	if r.refresher == nil {
		return domain.SyncResponse{}, fmt.Errorf("%w: source rejected credentials and has no token refresh flow",
			domain.ErrAuthRefreshFailed)
	}

	pair, err := r.refresher.Refresh(ctx, req.Secrets, state)
	if err != nil {
		return domain.SyncResponse{}, err
	}

	log.Info().
		Str("connector", string(r.adapter.Type())).
		Str("cursor", state.Cursor).
		Msg("Access token refreshed, same day will be retried")

	state.AccessToken = pair.AccessToken
	state.RefreshToken = pair.RefreshToken

	return domain.SyncResponse{
		State:       state,
		HasMore:     true,
		ReturnCause: domain.ReturnCause_TokenRefreshed,
	}, nil
}

type fetchResult struct {
	status int
	body   []byte
}

func (r *Runner) fetchAll(ctx context.Context, requests []*http.Request) ([]fetchResult, error) {
	results := make([]fetchResult, len(requests))

	g, ctx := errgroup.WithContext(ctx)

	for i, request := range requests {
		g.Go(func() error {
			resp, err := r.client.Do(request.WithContext(ctx))
			if err != nil {
				return fmt.Errorf("request to %s failed: %w", request.URL.Host, err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response from %s: %w", request.URL.Host, err)
			}

			results[i] = fetchResult{status: resp.StatusCode, body: body}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func anyStatus(results []fetchResult, status int) bool {
	for _, result := range results {
		if result.status == status {
			return true
		}
	}

	return false
}

// seedState fills missing state keys from the caller-supplied secrets. This
// only has an effect on the first invocation; afterwards the state already
// carries the keys and the seed values are ignored.
func seedState(req domain.SyncRequest) domain.SyncState {
	state := req.State

	if state.Cursor == "" {
		state.Cursor = req.Secrets[secretKeyCursor]
	}
	if state.AccessToken == "" {
		state.AccessToken = req.Secrets[secretKeyAccessToken]
	}
	if state.RefreshToken == "" {
		state.RefreshToken = req.Secrets[secretKeyRefreshToken]
	}

	return state
}

func parseCursorDate(cursor string) (time.Time, error) {
	if day, err := time.Parse(cursorDateLayout, cursor); err == nil {
		return day, nil
	}

	stamp, err := time.Parse(time.RFC3339, cursor)
	if err != nil {
		return time.Time{}, err
	}

	return dateOf(stamp), nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatDate(day time.Time) string {
	return day.Format(cursorDateLayout)
}
