package flow

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/houzhh15/certauth/cert"
	"github.com/houzhh15/certauth/logging"
)

// DecisionKind tags the filter's outcome.
type DecisionKind int

const (
	// KindContinue - the pipeline proceeds immediately.
	KindContinue DecisionKind = iota
	// KindSuspend - the pipeline stops here; the client is redirected and the
	// working state waits in the store under Decision.Token.
	KindSuspend
)

// Decision is the tagged outcome of one filter inspection. Token and
// RedirectURL are only meaningful when Kind is KindSuspend.
type Decision struct {
	Kind        DecisionKind
	Token       string
	RedirectURL string
}

// Continue reports whether the pipeline should proceed.
func (d Decision) Continue() bool { return d.Kind == KindContinue }

var decisionContinue = Decision{Kind: KindContinue}

// FilterConfig configures the expiry interrupt filter.
type FilterConfig struct {
	// WarnDaysBefore is the warning threshold in days (default 30). The
	// filter suspends when the certificate expires within this many days.
	WarnDaysBefore int
	// RenewURL is an optional address the warning page offers for renewal.
	RenewURL string
	// WarningURL is the address of the warning page; the continuation token
	// is attached to it as the "token" query parameter.
	WarningURL string
}

// ExpiryFilter is a pipeline step that warns users about a certificate close
// to expiry. It is advisory, not a gate: absence or invalidity of the
// certificate is the resolver's concern and passes through untouched.
type ExpiryFilter struct {
	store  StateStore
	config *FilterConfig
	logger logging.Logger
}

// NewExpiryFilter creates the filter. WarningURL is required; WarnDaysBefore
// defaults to 30.
func NewExpiryFilter(store StateStore, config *FilterConfig, logger logging.Logger) (*ExpiryFilter, error) {
	if store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if config == nil || config.WarningURL == "" {
		return nil, fmt.Errorf("warning url is required")
	}
	if config.WarnDaysBefore == 0 {
		config.WarnDaysBefore = 30
	}

	return &ExpiryFilter{
		store:  store,
		config: config,
		logger: logger,
	}, nil
}

// Inspect decides whether the pipeline continues or suspends for a warning.
// passive marks a no-user-interaction flow, which is never interrupted. The
// caller must not re-invoke the filter on the resumed path; resumption hands
// the persisted state straight back to the pipeline.
func (f *ExpiryFilter) Inspect(ctx context.Context, raw []byte, state map[string]interface{}, passive bool) (Decision, error) {
	if passive {
		return decisionContinue, nil
	}

	if len(raw) == 0 {
		return decisionContinue, nil
	}
	parsed, err := cert.Parse(raw)
	if err != nil {
		// Advisory step: a broken certificate falls through to the resolver,
		// which owns that failure.
		f.logger.Debug("Expiry filter skipping unparseable certificate", "error", err)
		return decisionContinue, nil
	}

	return f.InspectParsed(ctx, parsed, state)
}

// InspectParsed is Inspect for an already parsed certificate.
func (f *ExpiryFilter) InspectParsed(ctx context.Context, parsed *cert.ParsedCertificate, state map[string]interface{}) (Decision, error) {
	remaining := time.Until(parsed.NotAfter)
	threshold := time.Duration(f.config.WarnDaysBefore) * 24 * time.Hour
	if remaining > threshold {
		return decisionContinue, nil
	}

	// Integer day truncation toward zero: 23h left is 0 days, -25h is -1.
	daysLeft := int(remaining / (24 * time.Hour))

	if state == nil {
		state = make(map[string]interface{})
	}
	state[StateKeyDaysLeft] = daysLeft
	if f.config.RenewURL != "" {
		state[StateKeyRenewURL] = f.config.RenewURL
	}

	token, err := f.store.Save(ctx, StageExpiryWarning, state)
	if err != nil {
		return Decision{}, fmt.Errorf("persist warning state: %w", err)
	}

	f.logger.Info("Suspending for certificate expiry warning",
		"subject", parsed.SubjectString(),
		"days_left", daysLeft,
		"token", token,
	)

	return Decision{
		Kind:        KindSuspend,
		Token:       token,
		RedirectURL: f.config.WarningURL + "?token=" + url.QueryEscape(token),
	}, nil
}
