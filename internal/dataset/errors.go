package dataset

import "errors"

var (
	// ErrMissingRequiredColumn is returned when zone_id is absent after normalization.
	ErrMissingRequiredColumn = errors.New("missing required column")

	// ErrMissingTimeColumn is returned when none of the time column candidates is present.
	ErrMissingTimeColumn = errors.New("missing time column")

	// ErrConnectionFailure is returned by data sources that cannot reach or
	// authenticate against their backing store.
	ErrConnectionFailure = errors.New("data source connection failure")

	// ErrTableNotFound is returned by data sources asked for an unknown table.
	ErrTableNotFound = errors.New("table not found")
)
