package ledger

import (
	"errors"
	"fmt"
)

// RejectReason tells why a transfer was rejected. A rejected transfer leaves
// the ledger state untouched.
type RejectReason int

const (
	// InvalidEncoding means a point, scalar, statement or proof could not be
	// decoded.
	InvalidEncoding RejectReason = iota + 1
	// SubgroupCheckFailed means a statement point is outside the prime order
	// subgroup.
	SubgroupCheckFailed
	// StaleNonce means the statement nonce is not the sender nonce plus one.
	StaleNonce
	// BalanceMismatch means the statement balance is not the stored balance of
	// the sender.
	BalanceMismatch
	// ProofRejected means the proof did not verify.
	ProofRejected
	// DecryptionOutOfRange means a value is over the supported decryption
	// bound.
	DecryptionOutOfRange
	// AccountNotFound means the sender account does not exist.
	AccountNotFound
	// FeeCollectorMismatch means the statement pays the fee to an account
	// other than the configured fee collector.
	FeeCollectorMismatch
	// SelfTransferDisallowed means sender and recipient are the same account
	// and the ledger does not allow it.
	SelfTransferDisallowed
)

var reasonNames = map[RejectReason]string{
	InvalidEncoding:        "invalid encoding",
	SubgroupCheckFailed:    "subgroup check failed",
	StaleNonce:             "stale nonce",
	BalanceMismatch:        "balance mismatch",
	ProofRejected:          "proof rejected",
	DecryptionOutOfRange:   "value exceeds supported range",
	AccountNotFound:        "account not found",
	FeeCollectorMismatch:   "fee collector mismatch",
	SelfTransferDisallowed: "self transfer disallowed",
}

func (r RejectReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("unknown reason %d", int(r))
}

// RejectError is returned when a transfer or account operation is rejected.
// The wrapped error only carries public information and is empty for
// ProofRejected.
type RejectError struct {
	Reason RejectReason
	err    error
}

func (e *RejectError) Error() string {
	if e.err == nil {
		return "transfer rejected: " + e.Reason.String()
	}
	return fmt.Sprintf("transfer rejected: %s: %v", e.Reason, e.err)
}

func (e *RejectError) Unwrap() error {
	return e.err
}

// Is matches any RejectError with the same reason.
func (e *RejectError) Is(target error) bool {
	t, ok := target.(*RejectError)
	return ok && t.Reason == e.Reason && t.err == nil
}

func reject(reason RejectReason, err error) *RejectError {
	return &RejectError{Reason: reason, err: err}
}

// Reason returns the reject reason carried by err, if any.
func Reason(err error) (RejectReason, bool) {
	var rerr *RejectError
	if errors.As(err, &rerr) {
		return rerr.Reason, true
	}
	return 0, false
}

// Sentinel values to compare with errors.Is.
var (
	ErrInvalidEncoding        = reject(InvalidEncoding, nil)
	ErrSubgroupCheckFailed    = reject(SubgroupCheckFailed, nil)
	ErrStaleNonce             = reject(StaleNonce, nil)
	ErrBalanceMismatch        = reject(BalanceMismatch, nil)
	ErrProofRejected          = reject(ProofRejected, nil)
	ErrDecryptionOutOfRange   = reject(DecryptionOutOfRange, nil)
	ErrAccountNotFound        = reject(AccountNotFound, nil)
	ErrFeeCollectorMismatch   = reject(FeeCollectorMismatch, nil)
	ErrSelfTransferDisallowed = reject(SelfTransferDisallowed, nil)
)
