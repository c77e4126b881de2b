package directory

import "context"

// Entry is one directory record matched during a resolution, together with
// the attribute values fetched in the same search round trip. Values are kept
// raw to accommodate multi-valued and binary attributes such as stored
// certificates.
type Entry struct {
	DN         string
	attributes map[string][][]byte
}

// NewEntry constructs an entry from pre-fetched attribute values.
// Used by directory client implementations and by test fakes.
func NewEntry(dn string, attributes map[string][][]byte) *Entry {
	if attributes == nil {
		attributes = make(map[string][][]byte)
	}
	return &Entry{DN: dn, attributes: attributes}
}

// AttributeValues returns the raw values of a named attribute, possibly empty.
// No network call is involved; all requested attributes were fetched when the
// entry was found.
func (e *Entry) AttributeValues(name string) [][]byte {
	return e.attributes[name]
}

// StringValues returns the values of a named attribute as strings.
func (e *Entry) StringValues(name string) []string {
	raw := e.attributes[name]
	if len(raw) == 0 {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		values = append(values, string(v))
	}
	return values
}

// AttributeNames lists the names of all fetched attributes.
func (e *Entry) AttributeNames() []string {
	names := make([]string, 0, len(e.attributes))
	for name := range e.attributes {
		names = append(names, name)
	}
	return names
}

// Client is the capability the matcher needs from a directory backend:
// resolve at most one entry for a filter under a search base, fetching the
// named attributes along with it. Implementations own their connection and
// authentication lifecycle. Search returns (nil, nil) when nothing matches;
// a non-nil error always indicates an infrastructure fault, never "no match".
type Client interface {
	Search(ctx context.Context, base, filter string, attrs []string) (*Entry, error)
	Close() error
}
