package googlefit

import "github.com/fitsync/fitsync/pkg/domain"

const TableSessions = "sessions"

// A day can hold any number of sessions, so the session id joins the date in
// the primary key.
var Schema = map[string]domain.TableSchema{
	TableSessions: {PrimaryKey: []string{"date", "id"}},
}
