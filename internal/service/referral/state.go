// Package referral implements the hand-over of a lead or property from one
// agent to another, pending until the recipient confirms or rejects it.
package referral

import (
	"errors"
	"fmt"

	"estacrm_backend/internal/model"
)

type Action string

const (
	ActionRefer   Action = "refer"
	ActionConfirm Action = "confirm"
	ActionReject  Action = "reject"
)

// ErrAlreadyResolved is returned by a Store when the referral left the pending
// state between reading it and resolving it.
var ErrAlreadyResolved = errors.New("referral already resolved")

type TransitionError struct {
	From   model.ReferralStatus
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a referral in state %q", e.Action, e.From)
}

// Next returns the referral state reached by applying action to state.
func Next(state model.ReferralStatus, action Action) (model.ReferralStatus, error) {
	if state == "" {
		state = model.ReferralNone
	}

	switch action {
	case ActionRefer:
		switch state {
		case model.ReferralNone, model.ReferralRejected, model.ReferralConfirmed:
			return model.ReferralPending, nil
		}
	case ActionConfirm:
		if state == model.ReferralPending {
			return model.ReferralConfirmed, nil
		}
	case ActionReject:
		if state == model.ReferralPending {
			return model.ReferralRejected, nil
		}
	}
	return state, &TransitionError{From: state, Action: action}
}
