package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/houzhh15/certauth/logging"
)

// LDAPConfig configures the LDAP directory client.
type LDAPConfig struct {
	URL          string        // ldap:// or ldaps:// URL
	BindDN       string        // service account DN, empty for anonymous bind
	BindPassword string        // service account password
	StartTLS     bool          // upgrade a plain connection with StartTLS
	SkipVerify   bool          // skip server certificate verification
	Timeout      time.Duration // per-operation timeout (default 10s)
}

// LDAPClient implements Client against an LDAP directory using go-ldap.
// A single connection is kept and re-established on demand; resolution
// attempts are sequential per request, so no pooling is needed here.
type LDAPClient struct {
	config *LDAPConfig
	logger logging.Logger

	mu   sync.Mutex
	conn *ldap.Conn
}

// NewLDAPClient creates an LDAP client. No connection is made until the
// first search.
func NewLDAPClient(config *LDAPConfig, logger logging.Logger) (*LDAPClient, error) {
	if config == nil || config.URL == "" {
		return nil, fmt.Errorf("directory url is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &LDAPClient{
		config: config,
		logger: logger,
	}, nil
}

// Search looks up at most one entry matching filter under base, requesting
// attrs in the same round trip. Returns (nil, nil) when no entry matches.
func (c *LDAPClient) Search(ctx context.Context, base, filter string, attrs []string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := c.connection()
	if err != nil {
		return nil, err
	}

	request := ldap.NewSearchRequest(
		base,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		1, // one entry is enough: first match wins
		int(c.config.Timeout.Seconds()),
		false,
		filter,
		attrs,
		nil,
	)

	result, err := conn.Search(request)
	if err != nil {
		// A size limit overrun still carries the first entry; anything else
		// is an infrastructure fault and must propagate unchanged.
		if !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
			c.drop()
			return nil, fmt.Errorf("ldap search under %q: %w", base, err)
		}
	}

	if result == nil || len(result.Entries) == 0 {
		return nil, nil
	}

	found := result.Entries[0]
	attributes := make(map[string][][]byte, len(found.Attributes))
	for _, attr := range found.Attributes {
		values := make([][]byte, len(attr.ByteValues))
		copy(values, attr.ByteValues)
		attributes[attr.Name] = values
	}

	c.logger.Debug("Directory entry found",
		"dn", found.DN,
		"base", base,
		"attributes", len(attributes),
	)

	return NewEntry(found.DN, attributes), nil
}

// Close tears down the connection.
func (c *LDAPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// connection returns the live connection, dialing and binding if needed.
func (c *LDAPClient) connection() (*ldap.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosing() {
		return c.conn, nil
	}

	var opts []ldap.DialOpt
	if c.config.SkipVerify {
		opts = append(opts, ldap.DialWithTLSConfig(&tls.Config{InsecureSkipVerify: true}))
	}

	conn, err := ldap.DialURL(c.config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial directory %s: %w", c.config.URL, err)
	}
	conn.SetTimeout(c.config.Timeout)

	if c.config.StartTLS {
		if err := conn.StartTLS(&tls.Config{InsecureSkipVerify: c.config.SkipVerify}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}

	if c.config.BindDN != "" {
		if err := conn.Bind(c.config.BindDN, c.config.BindPassword); err != nil {
			conn.Close()
			return nil, fmt.Errorf("bind as %s: %w", c.config.BindDN, err)
		}
	}

	c.conn = conn
	return conn, nil
}

// drop discards the current connection so the next search redials.
func (c *LDAPClient) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
