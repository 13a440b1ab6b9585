package models

import "errors"

var (
	// ErrNotOwner indicates the acting participant lacks ownership
	// rights over the target actor. Checked locally, never relayed.
	ErrNotOwner = errors.New("participant does not own this actor")

	// ErrAlreadyClaimed indicates the roll's adversity token latch is
	// already set.
	ErrAlreadyClaimed = errors.New("adversity token already claimed for this roll")

	// ErrInsufficientTokens indicates a spend or deduction would drive
	// an actor's balance below zero.
	ErrInsufficientTokens = errors.New("not enough adversity tokens")

	// ErrUnknownActorType indicates a roll was attempted against an
	// actor of an unrecognized kind.
	ErrUnknownActorType = errors.New("unknown actor type")

	// ErrInvalidSpendAmount indicates a non-positive spend amount.
	ErrInvalidSpendAmount = errors.New("spend amount must be greater than zero")

	ErrActorNotFound   = errors.New("actor not found")
	ErrMessageNotFound = errors.New("roll message not found")
	ErrRequestNotFound = errors.New("pending request not found")

	// ErrRequestResolved indicates an accept/deny was attempted on a
	// request that already reached a terminal state.
	ErrRequestResolved = errors.New("pending request already resolved")
)
