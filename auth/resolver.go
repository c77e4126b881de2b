package auth

import (
	"context"
	"fmt"

	"github.com/houzhh15/certauth/cert"
	"github.com/houzhh15/certauth/directory"
	"github.com/houzhh15/certauth/logging"
)

// AttributePair maps one certificate subject attribute to the directory
// attribute it is looked up under. Order across pairs is significant.
type AttributePair struct {
	CertAttribute      string `yaml:"cert_attribute" json:"cert_attribute"`
	DirectoryAttribute string `yaml:"directory_attribute" json:"directory_attribute"`
}

// EntryFinder is the single capability the resolver needs from a directory
// backend: resolve at most one entry for an attribute/value pair and fetch
// named attributes with it. directory.Matcher satisfies it; variants that
// reach the directory differently plug in here.
type EntryFinder interface {
	FindEntryByAttribute(ctx context.Context, attribute, value string, fetchAttrs []string) (*directory.Entry, error)
}

// Config configures the resolver.
type Config struct {
	// AttributeMapping is tried in order; the first pair whose certificate
	// attribute is present and whose lookup yields an entry wins.
	// Default: a single UID -> uid mapping.
	AttributeMapping []AttributePair

	// StoredCertAttributes names the directory attributes holding the
	// entry's certificates. Empty means the cross-check is disabled and a
	// directory match alone is trusted.
	StoredCertAttributes []string

	// IdentityAttributes restricts which attributes are returned on success.
	// Empty means all fetched attributes except the stored-certificate ones.
	IdentityAttributes []string
}

// DefaultAttributeMapping is used when no mapping is configured at all.
var DefaultAttributeMapping = []AttributePair{{CertAttribute: "UID", DirectoryAttribute: "uid"}}

// Resolver orchestrates parsing and directory matching into one terminal
// resolution outcome per authentication attempt.
type Resolver struct {
	finder  EntryFinder
	mapping []AttributePair
	config  *Config
	logger  logging.Logger
}

// NewResolver creates a resolver. A nil or zero-valued config falls back to
// the default UID mapping with the cross-check disabled.
func NewResolver(finder EntryFinder, config *Config, logger logging.Logger) (*Resolver, error) {
	if finder == nil {
		return nil, fmt.Errorf("entry finder is required")
	}
	if config == nil {
		config = &Config{}
	}

	mapping := config.AttributeMapping
	if mapping == nil {
		mapping = DefaultAttributeMapping
	}

	return &Resolver{
		finder:  finder,
		mapping: mapping,
		config:  config,
		logger:  logger,
	}, nil
}

// Resolve runs one resolution attempt over the presented certificate bytes.
// The returned Result is always terminal: success with identity attributes or
// one specific failure reason. A non-nil error means a directory or transport
// fault; the caller decides whether to retry the whole request.
func (r *Resolver) Resolve(ctx context.Context, raw []byte) (*Result, error) {
	if len(raw) == 0 {
		return failure(ReasonNoCertificate), nil
	}

	parsed, err := cert.Parse(raw)
	if err != nil {
		r.logger.Warn("Presented certificate failed to parse", "error", err)
		return failure(ReasonInvalidCertificate), nil
	}

	return r.ResolveParsed(ctx, parsed)
}

// ResolveParsed resolves an already parsed certificate. The transport layer
// uses this form when the certificate arrives pre-parsed from the TLS
// handshake.
func (r *Resolver) ResolveParsed(ctx context.Context, presented *cert.ParsedCertificate) (*Result, error) {
	subject := presented.SubjectString()

	entry, err := r.findEntry(ctx, presented)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		r.logger.Info("No directory entry matched certificate", "subject", subject)
		result := failure(ReasonNoMatchingEntry)
		result.Subject = subject
		return result, nil
	}

	// Cross-check disabled: trust the directory match alone.
	if len(r.config.StoredCertAttributes) == 0 {
		return r.success(entry, subject), nil
	}

	candidates := r.storedCandidates(entry)
	if len(candidates) == 0 {
		r.logger.Info("Matched entry carries no stored certificate",
			"subject", subject,
			"entry_dn", entry.DN,
		)
		return r.failureAt(entry, subject, ReasonNoStoredCertificate), nil
	}

	for i, candidate := range candidates {
		stored, err := cert.Parse(candidate)
		if err != nil {
			// Undecodable stored values are skipped, not fatal: a later
			// candidate may still match.
			r.logger.Warn("Skipping undecodable stored certificate",
				"entry_dn", entry.DN,
				"index", i,
				"error", err,
			)
			continue
		}
		if presented.Equal(stored) {
			return r.success(entry, subject), nil
		}
	}

	r.logger.Info("No stored certificate matched the presented one",
		"subject", subject,
		"entry_dn", entry.DN,
		"candidates", len(candidates),
	)
	return r.failureAt(entry, subject, ReasonCertificateMismatch), nil
}

// findEntry walks the attribute mapping in configured order and returns the
// first entry any pair yields. Only pairs whose certificate attribute is
// present in the subject are tried; the first entry found short-circuits the
// walk, so at most one directory match is ever taken to completion.
func (r *Resolver) findEntry(ctx context.Context, presented *cert.ParsedCertificate) (*directory.Entry, error) {
	fetchAttrs := r.fetchAttributes()

	for _, pair := range r.mapping {
		value, ok := presented.Subject[pair.CertAttribute]
		if !ok || value == "" {
			continue
		}

		entry, err := r.finder.FindEntryByAttribute(ctx, pair.DirectoryAttribute, value, fetchAttrs)
		if err != nil {
			return nil, fmt.Errorf("directory lookup %s=%s: %w", pair.DirectoryAttribute, value, err)
		}
		if entry != nil {
			r.logger.Debug("Mapping pair matched",
				"cert_attribute", pair.CertAttribute,
				"directory_attribute", pair.DirectoryAttribute,
				"entry_dn", entry.DN,
			)
			return entry, nil
		}
	}

	return nil, nil
}

// fetchAttributes is the attribute set requested with the entry search, so
// identity attributes and stored certificates arrive in one round trip.
func (r *Resolver) fetchAttributes() []string {
	var attrs []string
	if len(r.config.IdentityAttributes) > 0 {
		attrs = append(attrs, r.config.IdentityAttributes...)
	} else {
		attrs = append(attrs, "*")
	}
	attrs = append(attrs, r.config.StoredCertAttributes...)
	return attrs
}

// storedCandidates merges all values of all configured stored-certificate
// attributes, preserving attribute order then value order.
func (r *Resolver) storedCandidates(entry *directory.Entry) [][]byte {
	var candidates [][]byte
	for _, name := range r.config.StoredCertAttributes {
		candidates = append(candidates, entry.AttributeValues(name)...)
	}
	return candidates
}

// identityAttributes builds the attribute set returned on success, honoring
// the allow-list and never leaking stored-certificate values.
func (r *Resolver) identityAttributes(entry *directory.Entry) map[string][]string {
	certAttrs := make(map[string]bool, len(r.config.StoredCertAttributes))
	for _, name := range r.config.StoredCertAttributes {
		certAttrs[name] = true
	}

	attrs := make(map[string][]string)
	if len(r.config.IdentityAttributes) > 0 {
		for _, name := range r.config.IdentityAttributes {
			if certAttrs[name] {
				continue
			}
			if values := entry.StringValues(name); len(values) > 0 {
				attrs[name] = values
			}
		}
		return attrs
	}

	for _, name := range entry.AttributeNames() {
		if certAttrs[name] {
			continue
		}
		if values := entry.StringValues(name); len(values) > 0 {
			attrs[name] = values
		}
	}
	return attrs
}

func (r *Resolver) success(entry *directory.Entry, subject string) *Result {
	return &Result{
		Attributes: r.identityAttributes(entry),
		EntryDN:    entry.DN,
		Subject:    subject,
	}
}

func (r *Resolver) failureAt(entry *directory.Entry, subject string, reason FailureReason) *Result {
	result := failure(reason)
	result.EntryDN = entry.DN
	result.Subject = subject
	return result
}
