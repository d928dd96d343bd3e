package domain

type ReturnCause string

const (
	// ReturnCause_CursorNotComplete means the cursor sits on the current day,
	// which is not over yet and must not be fetched.
	ReturnCause_CursorNotComplete ReturnCause = "CURSOR_NOT_COMPLETE"

	// ReturnCause_TokenRefreshed means the access token was exchanged and the
	// same day should be retried with the new credentials.
	ReturnCause_TokenRefreshed ReturnCause = "TOKEN_REFRESHED"

	// ReturnCause_RateLimited means the source throttled the invocation; the
	// orchestrator should back off and re-invoke later.
	ReturnCause_RateLimited ReturnCause = "RATE_LIMITED"
)

// SyncState is the externally persisted state blob. The connector only knows
// these three keys; the orchestrator stores whatever comes back wholesale and
// replays it on the next invocation.
type SyncState struct {
	Cursor       string `json:"cursor,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// SyncRequest is the invocation contract of the external orchestrator.
// Secrets carry the initial credentials and cursor used to seed the state on
// the very first run; State carries the mutable fields persisted between
// invocations.
type SyncRequest struct {
	Secrets map[string]string `json:"secrets"`
	State   SyncState         `json:"state"`
}

// Record is one day's worth of a metric, flattened to scalar fields. Every
// record carries a "date" field.
type Record map[string]any

type TableSchema struct {
	PrimaryKey []string `json:"primary_key"`
}

type SyncResponse struct {
	State       SyncState              `json:"state"`
	Insert      map[string][]Record    `json:"insert,omitempty"`
	Schema      map[string]TableSchema `json:"schema,omitempty"`
	HasMore     bool                   `json:"hasMore"`
	ReturnCause ReturnCause            `json:"returnCause,omitempty"`
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
