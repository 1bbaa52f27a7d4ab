package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// SplitMode selects how an expense is divided among its participants.
type SplitMode string

const (
	// SplitEqual divides the total evenly among all participants.
	SplitEqual SplitMode = "equal"
	// SplitCustom uses caller-provided per-member amounts.
	SplitCustom SplitMode = "custom"
)

// Validation errors returned by ComputeSplits. Callers must block
// persistence of the expense when any of these is returned.
var (
	ErrInvalidAmount  = errors.New("amount must be a positive decimal")
	ErrNoParticipants = errors.New("at least one participant required")
	ErrInvalidShare   = errors.New("share amounts must be non-negative decimals")
	ErrSplitMismatch  = errors.New("split amounts do not add up to the expense total")
	ErrUnknownMode    = errors.New("unknown split mode")
)

// epsilon is the tolerance for all monetary comparisons, one minor unit
// of the expense's currency.
var epsilon = decimal.New(1, -2)

// ComputeSplits validates an expense's split configuration and returns the
// per-member share amounts to persist, keyed by member ID.
//
// In equal mode every participant receives total/n rounded to two decimals
// independently, so the shares can sum to slightly less than the total
// (e.g. 100.00 across three members yields 33.33 each, leaving 0.01
// unaccounted). The residue is bounded by one minor unit per participant
// and is deliberately not reassigned.
//
// In custom mode the shares are taken as given; ComputeSplits only checks
// that each participant has a valid non-negative amount and that the sum
// matches the total within epsilon. No rescaling is performed.
func ComputeSplits(total string, mode SplitMode, participants []string, custom map[string]string) (map[string]decimal.Decimal, error) {
	amount, err := decimal.NewFromString(total)
	if err != nil || !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	shares := make(map[string]decimal.Decimal, len(participants))

	switch mode {
	case SplitEqual:
		share := amount.DivRound(decimal.NewFromInt(int64(len(participants))), 2)
		for _, memberID := range participants {
			shares[memberID] = share
		}

	case SplitCustom:
		sum := decimal.Zero
		for _, memberID := range participants {
			raw, ok := custom[memberID]
			if !ok {
				return nil, ErrInvalidShare
			}
			share, err := decimal.NewFromString(raw)
			if err != nil || share.IsNegative() {
				return nil, ErrInvalidShare
			}
			share = share.Round(2)
			shares[memberID] = share
			sum = sum.Add(share)
		}
		if sum.Sub(amount).Abs().GreaterThan(epsilon) {
			return nil, ErrSplitMismatch
		}

	default:
		return nil, ErrUnknownMode
	}

	return shares, nil
}
