package domain

import (
	"errors"
)

// ErrNoOrders indicates the primary orders table loaded empty. It is the
// only fatal input condition and is surfaced at the presentation boundary;
// the computational core never raises it.
var ErrNoOrders = errors.New("orders table is empty or failed to load")

// ErrInsufficientData indicates a model fit was skipped because the
// required columns were not jointly present with enough non-null rows.
// Consumers treat the resulting nil model as a valid "no model" state.
var ErrInsufficientData = errors.New("insufficient data to fit model")
