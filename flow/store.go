// Package flow implements the interrupt/resume continuation mechanism: an
// authentication pipeline step can suspend mid-flight, persist its working
// state under an opaque token, hand control to the user via a redirect, and
// be resumed later from that state by a brand-new request.
package flow

import (
	"context"
	"errors"
)

// ErrStateNotFound is returned by a StateStore when no state exists for a
// token/stage pair (expired, consumed, or fabricated token).
var ErrStateNotFound = errors.New("flow state not found")

// StateStore persists suspended working state keyed by (token, stage). The
// stage label disambiguates state created by different pipeline steps. Token
// entropy and state expiry are the store's contract, not the flow's.
type StateStore interface {
	// Save persists the payload under a freshly minted token and returns it.
	Save(ctx context.Context, stage string, payload map[string]interface{}) (string, error)
	// Load retrieves the payload saved under (token, stage), or
	// ErrStateNotFound if there is none.
	Load(ctx context.Context, token, stage string) (map[string]interface{}, error)
}

// StageExpiryWarning is the stage label under which the expiry filter
// persists suspended state. Reserved; no other step may use it.
const StageExpiryWarning = "cert-expiry-warning"

// Keys the filter adds to the working state at suspend time.
const (
	StateKeyDaysLeft = "daysLeft"
	StateKeyRenewURL = "renewUrl"
)
