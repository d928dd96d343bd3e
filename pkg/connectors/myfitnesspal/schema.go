package myfitnesspal

import "github.com/fitsync/fitsync/pkg/domain"

const TableTotals = "totals"

// One row per logged meal per day; the meal name joins the date in the
// primary key so the lookback re-fetch of the previous day upserts cleanly.
var Schema = map[string]domain.TableSchema{
	TableTotals: {PrimaryKey: []string{"date", "name"}},
}
