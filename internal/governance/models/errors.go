package models

import (
	"errors"

	dErrors "condo/pkg/domain-errors"
)

// Named governance errors. Callers match them with errors.Is; role-specific
// wording is layered on top with dErrors.Wrap so the sentinel stays in the chain.
var (
	ErrPermissionDenied      = dErrors.New(dErrors.CodeForbidden, "permission denied")
	ErrInvalidAddress        = dErrors.New(dErrors.CodeInvalidInput, "Invalid address")
	ErrResidenceNotFound     = dErrors.New(dErrors.CodeNotFound, "Residence does not exist")
	ErrResidentNotFound      = dErrors.New(dErrors.CodeNotFound, "Resident not found")
	ErrResidenceOccupied     = dErrors.New(dErrors.CodeConflict, "The residence already has a resident")
	ErrCounselorProtected    = dErrors.New(dErrors.CodeInvalidState, "A counselor cannot be removed")
	ErrCounselorNotFound     = dErrors.New(dErrors.CodeNotFound, "Counselor not found")
	ErrMustBeResident        = dErrors.New(dErrors.CodeValidation, "The counselor must be a resident")
	ErrInvalidTitle          = dErrors.New(dErrors.CodeValidation, "The title cannot be empty")
	ErrWrongCategory         = dErrors.New(dErrors.CodeValidation, "Wrong category")
	ErrTopicAlreadyExists    = dErrors.New(dErrors.CodeConflict, "Topic already exists")
	ErrTopicNotFound         = dErrors.New(dErrors.CodeNotFound, "Topic does not exists")
	ErrNotIdle               = dErrors.New(dErrors.CodeInvalidState, "Only IDLE topics can be changed")
	ErrNotVoting             = dErrors.New(dErrors.CodeInvalidState, "Only VOTING topics accept this operation")
	ErrEmptyOption           = dErrors.New(dErrors.CodeValidation, "The option cannot be EMPTY")
	ErrInvalidOption         = dErrors.New(dErrors.CodeInvalidInput, "Unknown vote option")
	ErrDefaulter             = dErrors.New(dErrors.CodeForbidden, "The resident must not be a defaulter")
	ErrAlreadyVoted          = dErrors.New(dErrors.CodeConflict, "A residence should vote only once")
	ErrQuorumNotMet          = dErrors.New(dErrors.CodeInvalidState, "You cannot finish a voting without the minimum votes")
	ErrWrongValue            = dErrors.New(dErrors.CodeValidation, "Wrong value")
	ErrAlreadyPaidThisPeriod = dErrors.New(dErrors.CodeConflict, "You cannot pay twice a month")
	ErrInsufficientFunds     = dErrors.New(dErrors.CodeInvalidState, "Insufficient funds")
	ErrBalanceOverflow       = dErrors.New(dErrors.CodeInvalidState, "The balance cannot hold this payment")
	ErrWrongTopicState       = dErrors.New(dErrors.CodeInvalidState, "Only APPROVED SPENT topics can be used for transfers")
	ErrAmountExceedsApproved = dErrors.New(dErrors.CodeValidation, "The amount must be less or equal the APPROVED topic")
	ErrNotUpgraded           = dErrors.New(dErrors.CodeUnavailable, "The adapter has no implementation yet")
)

// Role and state specific variants.
var (
	ErrOnlyManager           = dErrors.Wrap(ErrPermissionDenied, dErrors.CodeForbidden, "Only the manager can do this")
	ErrOnlyManagerOrCouncil  = dErrors.Wrap(ErrPermissionDenied, dErrors.CodeForbidden, "Only the manager or the council can do this")
	ErrOnlyManagerOrResident = dErrors.Wrap(ErrPermissionDenied, dErrors.CodeForbidden, "Only the manager or the residents can do this")
	ErrOnlyOwner             = dErrors.Wrap(ErrPermissionDenied, dErrors.CodeForbidden, "You do not have permission")

	ErrEditNotIdle    = dErrors.Wrap(ErrNotIdle, dErrors.CodeInvalidState, "Only IDLE topics can be edited")
	ErrRemoveNotIdle  = dErrors.Wrap(ErrNotIdle, dErrors.CodeInvalidState, "Only IDLE topics can be removed")
	ErrOpenNotIdle    = dErrors.Wrap(ErrNotIdle, dErrors.CodeInvalidState, "Only IDLE topics can be open to voting")
	ErrVoteNotVoting  = dErrors.Wrap(ErrNotVoting, dErrors.CodeInvalidState, "Only VOTING topics can be voted")
	ErrCloseNotVoting = dErrors.Wrap(ErrNotVoting, dErrors.CodeInvalidState, "Only VOTING topics can be closed")
)

var reasons = []struct {
	err    error
	reason string
}{
	{ErrPermissionDenied, "permission_denied"},
	{ErrInvalidAddress, "invalid_address"},
	{ErrResidenceNotFound, "residence_not_found"},
	{ErrResidentNotFound, "resident_not_found"},
	{ErrResidenceOccupied, "residence_occupied"},
	{ErrCounselorProtected, "counselor_protected"},
	{ErrCounselorNotFound, "counselor_not_found"},
	{ErrMustBeResident, "must_be_resident"},
	{ErrInvalidTitle, "invalid_title"},
	{ErrWrongCategory, "wrong_category"},
	{ErrTopicAlreadyExists, "topic_already_exists"},
	{ErrTopicNotFound, "topic_not_found"},
	{ErrNotIdle, "not_idle"},
	{ErrNotVoting, "not_voting"},
	{ErrEmptyOption, "empty_option"},
	{ErrInvalidOption, "invalid_option"},
	{ErrDefaulter, "defaulter"},
	{ErrAlreadyVoted, "already_voted"},
	{ErrQuorumNotMet, "quorum_not_met"},
	{ErrWrongValue, "wrong_value"},
	{ErrAlreadyPaidThisPeriod, "already_paid_this_period"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrBalanceOverflow, "balance_overflow"},
	{ErrWrongTopicState, "wrong_topic_state"},
	{ErrAmountExceedsApproved, "amount_exceeds_approved"},
	{ErrNotUpgraded, "not_upgraded"},
}

// Reason returns a stable slug naming the governance error in err's chain,
// or "" when err carries none.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ""
}
