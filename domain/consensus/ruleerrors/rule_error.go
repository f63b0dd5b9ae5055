package ruleerrors

import (
	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrDuplicateBlock indicates a block with the same hash already
	// exists.
	ErrDuplicateBlock = newRuleError("ErrDuplicateBlock")

	// ErrKnownInvalid indicates the block was already marked invalid in a
	// previous validation attempt.
	ErrKnownInvalid = newRuleError("ErrKnownInvalid")

	// ErrBelowTrackedHeight indicates the block's number is below the
	// lowest height the node still tracks.
	ErrBelowTrackedHeight = newRuleError("ErrBelowTrackedHeight")

	// ErrMissingHeader indicates the block carries no header at all.
	ErrMissingHeader = newRuleError("ErrMissingHeader")

	// ErrVersionTooNew indicates the block version is newer than this node
	// understands.
	ErrVersionTooNew = newRuleError("ErrVersionTooNew")

	// ErrWrongShard indicates the block belongs to a different shard.
	ErrWrongShard = newRuleError("ErrWrongShard")

	// ErrNoParents indicates that the block is missing parents.
	ErrNoParents = newRuleError("ErrNoParents")

	// ErrInvalidSignature indicates the block signature doesn't verify
	// against the block hash and the sender's public key.
	ErrInvalidSignature = newRuleError("ErrInvalidSignature")

	// ErrInvalidDeploySignature indicates a deploy signature doesn't
	// verify against its deployer's public key.
	ErrInvalidDeploySignature = newRuleError("ErrInvalidDeploySignature")

	// ErrUnsortedHeaderFields indicates the header's parents,
	// justifications or bonds are not in canonical order.
	ErrUnsortedHeaderFields = newRuleError("ErrUnsortedHeaderFields")

	// ErrSenderNotBonded indicates the block sender has no stake in its
	// own bonds map.
	ErrSenderNotBonded = newRuleError("ErrSenderNotBonded")

	// ErrPreStateMismatch indicates the block's declared pre-state hash
	// differs from the one computed by merging its parents.
	ErrPreStateMismatch = newRuleError("ErrPreStateMismatch")

	// ErrPostStateMismatch indicates the replayed post-state hash differs
	// from the block's claim.
	ErrPostStateMismatch = newRuleError("ErrPostStateMismatch")

	// ErrRejectedDeploysMismatch indicates the block's claimed rejected
	// deploy set differs from the computed one.
	ErrRejectedDeploysMismatch = newRuleError("ErrRejectedDeploysMismatch")

	// ErrDeployStatusMismatch indicates a deploy's claimed execution
	// status differs from the replayed one.
	ErrDeployStatusMismatch = newRuleError("ErrDeployStatusMismatch")

	// ErrDeployCostMismatch indicates a deploy's claimed execution cost
	// differs from the replayed one after the retry bound was exhausted.
	ErrDeployCostMismatch = newRuleError("ErrDeployCostMismatch")

	// ErrUnusedEvents indicates replay left unused events behind after the
	// retry bound was exhausted.
	ErrUnusedEvents = newRuleError("ErrUnusedEvents")

	// ErrDeployOutsideValidityWindow indicates the block includes a deploy
	// whose validity window doesn't contain the block's number.
	ErrDeployOutsideValidityWindow = newRuleError("ErrDeployOutsideValidityWindow")

	// ErrBlockNumberMismatch indicates the block's number is not one above
	// the highest of its parents'.
	ErrBlockNumberMismatch = newRuleError("ErrBlockNumberMismatch")

	// ErrSequenceNumberMismatch indicates the block's sequence number is
	// not one above its creator's justified previous block.
	ErrSequenceNumberMismatch = newRuleError("ErrSequenceNumberMismatch")

	// ErrBondsMismatch indicates the block's bonds map differs from the
	// one established by the last finalized block.
	ErrBondsMismatch = newRuleError("ErrBondsMismatch")

	// ErrNeglectedEquivocation indicates the block introduces an
	// equivocation but neglects to cite both conflicting ancestors.
	ErrNeglectedEquivocation = newRuleError("ErrNeglectedEquivocation")

	// ErrInvalidParent indicates the block references a parent that was
	// marked invalid.
	ErrInvalidParent = newRuleError("ErrInvalidParent")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block failed due to one of the many validation
// rules. It has full support for errors.Is and errors.As, so the
// specific violation can be matched.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// IsRuleError returns whether the given error is a RuleError (possibly
// wrapped). Non-rule errors are internal failures that must not be folded
// into a block's validity verdict.
func IsRuleError(err error) bool {
	var ruleError RuleError
	return errors.As(err, &ruleError)
}
