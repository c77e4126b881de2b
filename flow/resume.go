package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/houzhh15/certauth/logging"
)

// ErrMissingToken - the inbound request carried no correlator at all; a
// malformed request, not a system fault.
var ErrMissingToken = errors.New("missing continuation token")

// ErrNoSuchState - the correlator maps to nothing: expired, already consumed,
// or fabricated.
var ErrNoSuchState = errors.New("no state for continuation token")

// Disposition is the terminal shape the resume controller picks for one
// warning-page request: either the pipeline resumes with its persisted
// working state, or the warning is (re-)rendered.
type Disposition struct {
	Resumed bool

	// State is the working state to hand back to the pipeline's resume entry
	// point. Set only when Resumed.
	State map[string]interface{}

	// Render data. Token is re-attached so a follow-up acknowledgement can
	// reload the same state.
	DaysLeft int
	RenewURL string
	Token    string
}

// ResumeController is the inbound side of the warning page: it loads the
// suspended state by token and decides between resuming the pipeline and
// rendering the warning. It never issues the outer completion itself.
type ResumeController struct {
	store  StateStore
	logger logging.Logger
}

// NewResumeController creates the controller.
func NewResumeController(store StateStore, logger logging.Logger) (*ResumeController, error) {
	if store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	return &ResumeController{store: store, logger: logger}, nil
}

// Handle processes one warning-page request. token is the correlator from
// the request; acked is true when the acknowledgement marker was present,
// regardless of its value. Store faults other than "not found" propagate
// unchanged.
func (c *ResumeController) Handle(ctx context.Context, token string, acked bool) (*Disposition, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	state, err := c.store.Load(ctx, token, StageExpiryWarning)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			c.logger.Warn("Continuation token resolved to no state", "token", token)
			return nil, ErrNoSuchState
		}
		return nil, fmt.Errorf("load warning state: %w", err)
	}

	if acked {
		c.logger.Info("Resuming suspended authentication", "token", token)
		return &Disposition{Resumed: true, State: state}, nil
	}

	renewURL, _ := state[StateKeyRenewURL].(string)
	return &Disposition{
		DaysLeft: intValue(state[StateKeyDaysLeft]),
		RenewURL: renewURL,
		Token:    token,
	}, nil
}

// intValue tolerates the numeric widenings a payload suffers across store
// backends (JSON round trips yield float64).
func intValue(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
