package directory

import (
	"context"
	"fmt"

	"github.com/go-ldap/ldap/v3"

	"github.com/houzhh15/certauth/logging"
)

// Matcher finds the directory entry matching one attribute/value pair across
// an ordered list of search bases. It owns nothing beyond the duration of one
// lookup; the underlying client carries the connection.
type Matcher struct {
	client Client
	bases  []string
	logger logging.Logger
}

// NewMatcher creates a matcher over the given search bases, tried in order.
func NewMatcher(client Client, bases []string, logger logging.Logger) (*Matcher, error) {
	if client == nil {
		return nil, fmt.Errorf("directory client is required")
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("at least one search base is required")
	}

	return &Matcher{
		client: client,
		bases:  bases,
		logger: logger,
	}, nil
}

// FindEntryByAttribute searches each configured base in order for an entry
// whose attribute equals value, requesting fetchAttrs in the same round trip
// so that later attribute reads stay local. Returns (nil, nil) when no base
// yields a match. The value is filter-escaped; lookup errors other than
// "no match" propagate rather than being swallowed.
func (m *Matcher) FindEntryByAttribute(ctx context.Context, attribute, value string, fetchAttrs []string) (*Entry, error) {
	if attribute == "" {
		return nil, fmt.Errorf("attribute name is required")
	}

	filter := fmt.Sprintf("(%s=%s)", attribute, ldap.EscapeFilter(value))

	for _, base := range m.bases {
		entry, err := m.client.Search(ctx, base, filter, fetchAttrs)
		if err != nil {
			return nil, fmt.Errorf("search %s under %q: %w", filter, base, err)
		}
		if entry != nil {
			return entry, nil
		}

		m.logger.Debug("No entry under base, trying next",
			"base", base,
			"attribute", attribute,
		)
	}

	return nil, nil
}

// GetAttributeValues returns the raw values of a named attribute on an entry
// found by this matcher. Possibly empty; no network call.
func (m *Matcher) GetAttributeValues(entry *Entry, attribute string) [][]byte {
	if entry == nil {
		return nil
	}
	return entry.AttributeValues(attribute)
}
