package domain

// RejectReason classifies why a callback did not yield an identity.
type RejectReason string

const (
	RejectCancelled          RejectReason = "cancelled_or_failed"
	RejectVerificationFailed RejectReason = "verification_failed"
	RejectMalformed          RejectReason = "malformed"
)

// VerificationResult is the outcome of handling one provider callback.
// Exactly one of Identity or Reason is set.
type VerificationResult struct {
	Identity *Identity
	Reason   RejectReason
	// Detail is for server-side logs only.
	Detail string
}

// Verified wraps a successfully verified identity.
func Verified(identity Identity) VerificationResult {
	return VerificationResult{Identity: &identity}
}

// Rejected builds a rejection with a log-only detail message.
func Rejected(reason RejectReason, detail string) VerificationResult {
	return VerificationResult{Reason: reason, Detail: detail}
}

// OK reports whether the result carries a verified identity.
func (r VerificationResult) OK() bool {
	return r.Identity != nil
}
