package fitbit

import "github.com/fitsync/fitsync/pkg/domain"

const (
	TableActivity = "activity"
	TableWeight   = "weight"
)

// Both tables hold one row per day, so the date alone identifies a record and
// re-fetching a day upserts cleanly downstream.
var Schema = map[string]domain.TableSchema{
	TableActivity: {PrimaryKey: []string{"date"}},
	TableWeight:   {PrimaryKey: []string{"date"}},
}
