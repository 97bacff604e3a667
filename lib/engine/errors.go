package engine

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors.
type Kind int

// Error kinds.
const (
	KindConnection Kind = iota + 1
	KindDecode
	KindInvalidRecipient
	KindInvalidAmount
	KindNoFunds
	KindNetwork
	KindExecutionFailure
)

var kindNames = map[Kind]string{ //nolint:gochecknoglobals
	KindConnection:       "connection",
	KindDecode:           "decode",
	KindInvalidRecipient: "invalid recipient",
	KindInvalidAmount:    "invalid amount",
	KindNoFunds:          "no funds available",
	KindNetwork:          "network",
	KindExecutionFailure: "execution failure",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Stage is a step of the transfer workflow.
type Stage int

// Transfer stages, in order. Failed is terminal.
const (
	StageIdle Stage = iota
	StageRecipientValidated
	StageGasCoinSelected
	StagePriceResolved
	StageIntentBuilt
	StageSigned
	StageSubmitted
	StageConfirmed
	StageFailed
)

var stageNames = [...]string{
	"idle", "recipient validated", "gas coin selected", "price resolved", "intent built", "signed", "submitted",
	"confirmed", "failed",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}

	return fmt.Sprintf("stage(%d)", int(s))
}

// Error is returned by every engine operation. Stage is the last stage the workflow reached before failing.
type Error struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error after stage %q: %v", e.Kind, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of an engine error, or 0 when err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}

// Sentinel causes.
var (
	ErrNoFunds       = errors.New("sender owns no SUI coin to pay for gas")
	ErrInvalidAmount = errors.New("amount must be a finite number not lower than 0")
	ErrAmountRange   = errors.New("amount does not fit in 64 bits of MIST")
	ErrNoEffects     = errors.New("node returned no effects")
)
