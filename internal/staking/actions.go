package staking

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/Meridian-labs/meridian-wallet/pkg/types"
)

// ActionType identifies a delegation action. The declaration order is the
// fixed presentation ordinal used to sort eligibility results.
type ActionType uint8

const (
	ActionBondNominate ActionType = iota
	ActionNominate
	ActionChangeNomination
	ActionCancelNomination
	ActionBondExtra
	ActionUnbond
	ActionRebond
	ActionRebondNominate
	ActionRebondExtra
	ActionWithdrawUnbonded
)

func (t ActionType) String() string {
	switch t {
	case ActionBondNominate:
		return "bond_nominate"
	case ActionNominate:
		return "nominate"
	case ActionChangeNomination:
		return "change_nomination"
	case ActionCancelNomination:
		return "cancel_nomination"
	case ActionBondExtra:
		return "bond_extra"
	case ActionUnbond:
		return "unbond"
	case ActionRebond:
		return "rebond"
	case ActionRebondNominate:
		return "rebond_nominate"
	case ActionRebondExtra:
		return "rebond_extra"
	case ActionWithdrawUnbonded:
		return "withdraw_unbonded"
	default:
		return fmt.Sprintf("action(%d)", uint8(t))
	}
}

// Action is one currently legal delegation action, with the validator
// targets it would apply to where relevant. Actions are computed fresh
// from a snapshot on every query and never persisted.
type Action struct {
	Type    ActionType
	Targets []types.AccountID
}

// EligibleActions determines which delegation actions the account may
// legally perform right now, given the requested validator target set.
// The result is sorted by the fixed action ordinal. While an election is
// open the chain refuses all staking mutations, so the list is empty.
func (c *Controller) EligibleActions(ctx context.Context, account types.AccountID, targets []types.AccountID) ([]Action, error) {
	snap, err := c.Snapshot(ctx, account)
	if err != nil {
		return nil, err
	}
	minBond, err := c.minimumBond(ctx)
	if err != nil {
		return nil, fmt.Errorf("eligible actions: %w", err)
	}
	return eligibleActions(snap, minBond, targets), nil
}

// eligibleActions is the pure rule table. Rules are evaluated
// independently; several actions may be eligible at once.
func eligibleActions(snap *Snapshot, minBond *big.Int, targets []types.AccountID) []Action {
	if snap.ElectionOpen {
		return nil
	}

	bonded := snap.Ledger != nil
	nominating := snap.Nominations != nil && len(snap.Nominations.Targets) > 0
	unbonding := bonded && snap.Ledger.IsUnbonding()
	withdrawable := bonded && snap.Ledger.WithdrawableValue(snap.ActiveEra.Index).Sign() > 0
	funded := snap.Transferable.Cmp(minBond) > 0

	var out []Action
	if !bonded && !unbonding && funded {
		out = append(out, Action{Type: ActionBondNominate, Targets: targets})
	}
	if bonded && !unbonding && funded {
		out = append(out, Action{Type: ActionBondExtra})
	}
	if bonded && !nominating && !unbonding {
		out = append(out,
			Action{Type: ActionNominate, Targets: targets},
			Action{Type: ActionUnbond})
	}
	if unbonding && !nominating {
		out = append(out, Action{Type: ActionRebondNominate, Targets: targets})
	}
	if unbonding && nominating {
		out = append(out, Action{Type: ActionRebondExtra})
	}
	if nominating {
		current := snap.Nominations.Targets
		if len(targets) > 0 && sameTargetSet(targets, current) {
			out = append(out, Action{Type: ActionCancelNomination, Targets: current})
		}
		if len(targets) > 0 && !sameTargetSet(targets, current) {
			out = append(out, Action{Type: ActionChangeNomination, Targets: targets})
		}
	}
	if withdrawable {
		out = append(out, Action{Type: ActionWithdrawUnbonded})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// sameTargetSet reports whether the two target lists name the same
// validators, order-insensitively.
func sameTargetSet(a, b []types.AccountID) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[types.AccountID]int, len(a))
	for _, t := range a {
		seen[t]++
	}
	for _, t := range b {
		if seen[t] == 0 {
			return false
		}
		seen[t]--
	}
	return true
}
