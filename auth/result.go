// Package auth implements the certificate authentication source: it resolves
// a client-presented X.509 certificate to an identity held in a directory,
// optionally cross-checking the directory's stored certificate against the
// one presented.
package auth

// FailureReason is the terminal reason a resolution was denied. Exactly one
// reason is produced per failed attempt; infrastructure faults are not
// reasons, they propagate as errors.
type FailureReason string

const (
	// ReasonNoCertificate - the transport supplied no certificate bytes at all.
	ReasonNoCertificate FailureReason = "no_certificate"
	// ReasonInvalidCertificate - bytes were present but not a well-formed certificate.
	ReasonInvalidCertificate FailureReason = "invalid_certificate"
	// ReasonNoMatchingEntry - no configured mapping pair yielded a directory entry.
	ReasonNoMatchingEntry FailureReason = "no_matching_entry"
	// ReasonNoStoredCertificate - cross-check is enabled but the matched entry
	// carries no usable stored certificate. Remediation: provision one.
	ReasonNoStoredCertificate FailureReason = "no_stored_certificate"
	// ReasonCertificateMismatch - stored certificates exist but none equals the
	// presented one. Remediation: renew or re-enroll.
	ReasonCertificateMismatch FailureReason = "certificate_mismatch"
)

// Result is the tagged outcome of one resolution attempt: either identity
// attributes (success) or a failure reason, never both, never neither.
type Result struct {
	Attributes map[string][]string `json:"attributes,omitempty"`
	Reason     FailureReason       `json:"reason,omitempty"`
	EntryDN    string              `json:"entry_dn,omitempty"` // matched entry, when one was found
	Subject    string              `json:"subject,omitempty"`  // presented certificate subject, when parseable
}

// Success reports whether the attempt resolved to an identity.
func (r *Result) Success() bool {
	return r.Reason == ""
}

func failure(reason FailureReason) *Result {
	return &Result{Reason: reason}
}
