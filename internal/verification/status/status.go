// Package status holds the verification lifecycle rules. The machine is
// deliberately small and pure: stores persist the outcome, services decide
// when to call it, and nothing else may move a profile between states.
//
//	new ──submit──▶ pending ──approve──▶ verified (terminal)
//	                   │
//	                rejected ──submit──▶ pending
//
// Exactly two actors drive transitions: the owning user (new/rejected →
// pending, via submission) and an administrator (pending → verified or
// rejected, via review).
package status

import (
	dErrors "trueconnect/pkg/domainerrors"
)

// Status is the verification state carried on a user profile.
type Status string

const (
	New      Status = "new"
	Pending  Status = "pending"
	Verified Status = "verified"
	Rejected Status = "rejected"
)

// RequestStatus is the state of a single verification request record.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Valid reports whether s is one of the four known profile states.
func (s Status) Valid() bool {
	switch s {
	case New, Pending, Verified, Rejected:
		return true
	}
	return false
}

// CanSubmit reports whether a user in state s may submit a document.
func (s Status) CanSubmit() bool {
	return s == New || s == Rejected
}

// Submit transitions the profile into pending review. Refused with a policy
// error while a review is already pending or the user is verified; the
// caller must surface it, not swallow it.
func Submit(current Status) (Status, error) {
	if !current.CanSubmit() {
		switch current {
		case Pending:
			return current, dErrors.New(dErrors.CodePolicy, "a verification request is already pending review")
		case Verified:
			return current, dErrors.New(dErrors.CodePolicy, "identity is already verified")
		default:
			return current, dErrors.New(dErrors.CodePolicy, "submission not allowed in current status")
		}
	}
	return Pending, nil
}

// Approve transitions a pending profile to verified. Verified is terminal.
func Approve(current Status) (Status, error) {
	if current != Pending {
		return current, dErrors.New(dErrors.CodePolicy, "only a pending request can be approved")
	}
	return Verified, nil
}

// Reject transitions a pending profile to rejected. A non-empty reason is
// required; rejected users may resubmit.
func Reject(current Status, reason string) (Status, error) {
	if reason == "" {
		return current, dErrors.New(dErrors.CodeInvalidInput, "a rejection reason is required")
	}
	if current != Pending {
		return current, dErrors.New(dErrors.CodePolicy, "only a pending request can be rejected")
	}
	return Rejected, nil
}
