// Package staking composes node client queries into domain views of one
// account's delegation state: balances, staking ledger, nominations,
// era-indexed rewards, validator details and the set of currently legal
// delegation actions.
package staking

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Meridian-labs/meridian-wallet/internal/log"
	"github.com/Meridian-labs/meridian-wallet/internal/rpcclient"
	"github.com/Meridian-labs/meridian-wallet/pkg/scale"
	"github.com/Meridian-labs/meridian-wallet/pkg/types"
)

const (
	moduleSystem   = "System"
	moduleStaking  = "Staking"
	moduleBalances = "Balances"
	moduleIdentity = "Identity"
	moduleBabe     = "Babe"

	entryAccount         = "Account"
	entryBonded          = "Bonded"
	entryLedger          = "Ledger"
	entryNominators      = "Nominators"
	entryActiveEra       = "ActiveEra"
	entryElectionStatus  = "EraElectionStatus"
	entryValidatorReward = "ErasValidatorReward"
	entryRewardPoints    = "ErasRewardPoints"
	entryStakersClipped  = "ErasStakersClipped"
	entryValidatorPrefs  = "ErasValidatorPrefs"
	entryIdentityOf      = "IdentityOf"

	constExistentialDeposit    = "ExistentialDeposit"
	constMinNominatorBond      = "MinNominatorBond"
	constMaxRewardedNominators = "MaxNominatorRewardedPerValidator"
	constSessionsPerEra        = "SessionsPerEra"
	constEpochDuration         = "EpochDuration"
)

// perbillDenominator converts commission values to a fraction.
const perbillDenominator = 1_000_000_000

// defaultOversubscriptionThreshold applies when the chain does not declare
// Staking.MaxNominatorRewardedPerValidator.
const defaultOversubscriptionThreshold = 256

// ErrIncompleteState is returned when a composed query cannot obtain all
// of its required state fragments. No partial result is ever returned in
// its place.
var ErrIncompleteState = errors.New("staking: incomplete chain state")

// ChainState is the node surface the controller consumes. Storage absence
// is reported through the bool, constant misses through an error wrapping
// rpcclient.ErrNotFound.
type ChainState interface {
	GetStorage(ctx context.Context, module, entry string, keys ...[]byte) ([]byte, bool, error)
	GetConstant(ctx context.Context, module, name string) ([]byte, error)
}

// Controller builds domain views on top of a single chain endpoint.
type Controller struct {
	chain ChainState
}

// NewController creates a controller backed by the given chain state.
func NewController(chain ChainState) *Controller {
	return &Controller{chain: chain}
}

// TransferableBalance computes free − reserved − locked, minus the
// existential deposit when excludeED is set. The locked amount is the
// non-fee lock when ignoreFees is set, the fee-affecting lock otherwise.
// A negative result is passed through; it signals an inconsistent or
// overdrawn account to the caller.
func (c *Controller) TransferableBalance(ctx context.Context, account types.AccountID, excludeED, ignoreFees bool) (*big.Int, error) {
	info, err := c.accountInfo(ctx, account)
	if err != nil {
		return nil, err
	}

	locked := info.Data.FeeFrozen
	if ignoreFees {
		locked = info.Data.MiscFrozen
	}

	out := new(big.Int).Sub(info.Data.Free, info.Data.Reserved)
	out.Sub(out, locked)
	if excludeED {
		ed, err := c.existentialDeposit(ctx)
		if err != nil {
			return nil, err
		}
		out.Sub(out, ed)
	}
	return out, nil
}

// Snapshot is the fused delegation state of one account, built fresh per
// call. Ledger is nil when the account is not bonded, Nominations when it
// nominates no one.
type Snapshot struct {
	Transferable *big.Int
	Ledger       *StakingLedger
	Nominations  *Nominations
	ActiveEra    ActiveEraInfo
	EraLength    uint64 // blocks per era, 0 when the chain declares no session constants
	ElectionOpen bool
}

// Snapshot fetches all delegation state fragments for an account
// concurrently and joins them. Any fragment failing fails the whole call;
// no partial snapshot is returned.
func (c *Controller) Snapshot(ctx context.Context, account types.AccountID) (*Snapshot, error) {
	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		transferable, err := c.TransferableBalance(gctx, account, true, true)
		if err != nil {
			return fmt.Errorf("transferable balance: %w", err)
		}
		snap.Transferable = transferable
		return nil
	})
	g.Go(func() error {
		ledger, err := c.ledger(gctx, account)
		if err != nil {
			return fmt.Errorf("staking ledger: %w", err)
		}
		snap.Ledger = ledger
		return nil
	})
	g.Go(func() error {
		nom, err := c.nominations(gctx, account)
		if err != nil {
			return fmt.Errorf("nominations: %w", err)
		}
		snap.Nominations = nom
		return nil
	})
	g.Go(func() error {
		era, err := c.activeEra(gctx)
		if err != nil {
			return fmt.Errorf("active era: %w", err)
		}
		snap.ActiveEra = era
		return nil
	})
	g.Go(func() error {
		length, err := c.eraLength(gctx)
		if err != nil {
			return fmt.Errorf("era length: %w", err)
		}
		snap.EraLength = length
		return nil
	})
	g.Go(func() error {
		open, err := c.electionOpen(gctx)
		if err != nil {
			return fmt.Errorf("election status: %w", err)
		}
		snap.ElectionOpen = open
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("staking snapshot: %w", errors.Join(ErrIncompleteState, err))
	}

	log.Staking.Debug().
		Str("account", account.String()).
		Uint32("era", snap.ActiveEra.Index).
		Bool("bonded", snap.Ledger != nil).
		Bool("election_open", snap.ElectionOpen).
		Msg("snapshot built")
	return snap, nil
}

// EraReward is one era's reward attributable to an account. Amount is
// exact, in the chain's smallest unit.
type EraReward struct {
	Era    uint32
	Amount *big.Rat
}

// RewardsForEras computes the account's reward for each requested era.
// Eras are computed independently and concurrently. An era whose payout or
// reward points are not yet recorded contributes no entry; it is never
// reported as a zero reward.
func (c *Controller) RewardsForEras(ctx context.Context, account types.AccountID, eras []uint32) ([]EraReward, error) {
	targets, err := c.rewardTargets(ctx, account)
	if err != nil {
		return nil, err
	}

	amounts := make([]*big.Rat, len(eras))
	g, gctx := errgroup.WithContext(ctx)
	for i, era := range eras {
		i, era := i, era
		g.Go(func() error {
			amount, ok, err := c.eraReward(gctx, account, targets, era)
			if err != nil {
				return fmt.Errorf("era %d: %w", era, err)
			}
			if ok {
				amounts[i] = amount
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("era rewards: %w", err)
	}

	rewards := make([]EraReward, 0, len(eras))
	for i, era := range eras {
		if amounts[i] != nil {
			rewards = append(rewards, EraReward{Era: era, Amount: amounts[i]})
		}
	}
	return rewards, nil
}

// rewardTargets returns the validators whose exposure can carry rewards
// for the account: its nomination targets, or the account itself when it
// nominates no one (it may be a validator).
func (c *Controller) rewardTargets(ctx context.Context, account types.AccountID) ([]types.AccountID, error) {
	nom, err := c.nominations(ctx, account)
	if err != nil {
		return nil, err
	}
	if nom == nil || len(nom.Targets) == 0 {
		return []types.AccountID{account}, nil
	}
	return nom.Targets, nil
}

// eraReward computes one era's reward across all targets. The bool is
// false when the era's prerequisite data is incomplete or the account
// backed no exposed validator that era.
func (c *Controller) eraReward(ctx context.Context, account types.AccountID, targets []types.AccountID, era uint32) (*big.Rat, bool, error) {
	eraKey := scale.AppendU32(nil, era)

	payoutRaw, ok, err := c.chain.GetStorage(ctx, moduleStaking, entryValidatorReward, eraKey)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	payout, _, err := scale.DecodeU128(payoutRaw, 0)
	if err != nil {
		return nil, false, fmt.Errorf("era payout: %w", err)
	}

	pointsRaw, ok, err := c.chain.GetStorage(ctx, moduleStaking, entryRewardPoints, eraKey)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	points, _, err := DecodeEraRewardPoints(pointsRaw, 0)
	if err != nil {
		return nil, false, err
	}
	if points.Total == 0 {
		return nil, false, nil
	}

	total := new(big.Rat)
	contributed := false
	for _, validator := range targets {
		amount, ok, err := c.validatorEraShare(ctx, account, validator, era, eraKey, payout, &points)
		if err != nil {
			return nil, false, err
		}
		if ok {
			total.Add(total, amount)
			contributed = true
		}
	}
	if !contributed {
		return nil, false, nil
	}
	return total, true, nil
}

// validatorEraShare computes the account's share of one validator's era
// reward, either as a nominator in the clipped exposure or as the
// validator itself (commission plus own-stake share).
func (c *Controller) validatorEraShare(ctx context.Context, account, validator types.AccountID, era uint32, eraKey []byte, payout *big.Int, points *EraRewardPoints) (*big.Rat, bool, error) {
	expRaw, ok, err := c.chain.GetStorage(ctx, moduleStaking, entryStakersClipped, eraKey, validator.Bytes())
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	exposure, _, err := DecodeExposure(expRaw, 0)
	if err != nil {
		return nil, false, err
	}
	if exposure.Total.Sign() <= 0 {
		return nil, false, nil
	}

	valPoints, _ := points.PointsFor(validator)

	// Absent prefs decode to the chain default of zero commission.
	var prefs ValidatorPrefs
	prefsRaw, ok, err := c.chain.GetStorage(ctx, moduleStaking, entryValidatorPrefs, eraKey, validator.Bytes())
	if err != nil {
		return nil, false, err
	}
	if ok {
		prefs, _, err = DecodeValidatorPrefs(prefsRaw, 0)
		if err != nil {
			return nil, false, err
		}
	}

	//   validatorReward = payout × valPoints / totalPoints
	valReward := new(big.Rat).SetInt(payout)
	valReward.Mul(valReward, big.NewRat(int64(valPoints), int64(points.Total)))
	afterCommission := new(big.Rat).Mul(valReward,
		big.NewRat(perbillDenominator-int64(prefs.Commission), perbillDenominator))

	if validator.Equal(account) {
		// Validator: full commission plus the own-stake share of the rest.
		commission := new(big.Rat).Mul(valReward,
			big.NewRat(int64(prefs.Commission), perbillDenominator))
		ownShare := new(big.Rat).SetFrac(exposure.Own, exposure.Total)
		return commission.Add(commission, ownShare.Mul(ownShare, afterCommission)), true, nil
	}

	for _, other := range exposure.Others {
		if other.Who.Equal(account) {
			share := new(big.Rat).SetFrac(other.Value, exposure.Total)
			return share.Mul(share, afterCommission), true, nil
		}
	}
	return nil, false, nil
}

// NominationStatus classifies one nomination for a given era.
type NominationStatus uint8

const (
	// NominationInactive: the nomination exists but the account is not in
	// the validator's exposure, or the validator has no exposure recorded.
	NominationInactive NominationStatus = iota
	// NominationActive: the account appears in the validator's clipped
	// exposure and is within the rewarded set.
	NominationActive
	// NominationOversubscribed: the account's stake rank exceeds the
	// chain's rewarded-nominator limit.
	NominationOversubscribed
)

func (s NominationStatus) String() string {
	switch s {
	case NominationActive:
		return "active"
	case NominationOversubscribed:
		return "oversubscribed"
	default:
		return "inactive"
	}
}

// Status determines whether a nomination earns rewards in the given era.
func (c *Controller) Status(ctx context.Context, nominator, validator types.AccountID, era uint32) (NominationStatus, error) {
	eraKey := scale.AppendU32(nil, era)
	raw, ok, err := c.chain.GetStorage(ctx, moduleStaking, entryStakersClipped, eraKey, validator.Bytes())
	if err != nil {
		return NominationInactive, err
	}
	if !ok {
		return NominationInactive, nil
	}
	exposure, _, err := DecodeExposure(raw, 0)
	if err != nil {
		return NominationInactive, err
	}

	found := false
	for _, other := range exposure.Others {
		if other.Who.Equal(nominator) {
			found = true
			break
		}
	}
	if !found {
		return NominationInactive, nil
	}

	threshold, err := c.oversubscriptionThreshold(ctx)
	if err != nil {
		return NominationInactive, err
	}
	if len(exposure.Others) <= threshold {
		return NominationActive, nil
	}

	// Rank by stake descending; ties keep the original list order.
	ranked := make([]IndividualExposure, len(exposure.Others))
	copy(ranked, exposure.Others)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value.Cmp(ranked[j].Value) > 0
	})
	for rank, other := range ranked {
		if other.Who.Equal(nominator) {
			if rank+1 > threshold {
				return NominationOversubscribed, nil
			}
			return NominationActive, nil
		}
	}
	return NominationInactive, nil
}

// ValidatorDetails is a fused per-era view of one validator.
type ValidatorDetails struct {
	Validator      types.AccountID
	Commission     uint32 // parts per billion
	OwnStake       *big.Int
	TotalStake     *big.Int
	NominatorCount int
	RewardPoints   uint32
	DisplayName    string
}

// ValidatorDetails fetches a validator's exposure, preferences, reward
// points and on-chain identity for one era, all concurrently. A validator
// with no exposure in the era yields ErrIncompleteState.
func (c *Controller) ValidatorDetails(ctx context.Context, validator types.AccountID, era uint32) (*ValidatorDetails, error) {
	eraKey := scale.AppendU32(nil, era)
	details := &ValidatorDetails{Validator: validator}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		raw, ok, err := c.chain.GetStorage(gctx, moduleStaking, entryStakersClipped, eraKey, validator.Bytes())
		if err != nil {
			return fmt.Errorf("exposure: %w", err)
		}
		if !ok {
			return fmt.Errorf("exposure: no stake recorded for era %d", era)
		}
		exposure, _, err := DecodeExposure(raw, 0)
		if err != nil {
			return fmt.Errorf("exposure: %w", err)
		}
		details.OwnStake = exposure.Own
		details.TotalStake = exposure.Total
		details.NominatorCount = len(exposure.Others)
		return nil
	})
	g.Go(func() error {
		raw, ok, err := c.chain.GetStorage(gctx, moduleStaking, entryValidatorPrefs, eraKey, validator.Bytes())
		if err != nil {
			return fmt.Errorf("preferences: %w", err)
		}
		if !ok {
			return nil // chain default, zero commission
		}
		prefs, _, err := DecodeValidatorPrefs(raw, 0)
		if err != nil {
			return fmt.Errorf("preferences: %w", err)
		}
		details.Commission = prefs.Commission
		return nil
	})
	g.Go(func() error {
		raw, ok, err := c.chain.GetStorage(gctx, moduleStaking, entryRewardPoints, eraKey)
		if err != nil {
			return fmt.Errorf("reward points: %w", err)
		}
		if !ok {
			return nil
		}
		points, _, err := DecodeEraRewardPoints(raw, 0)
		if err != nil {
			return fmt.Errorf("reward points: %w", err)
		}
		details.RewardPoints, _ = points.PointsFor(validator)
		return nil
	})
	g.Go(func() error {
		raw, ok, err := c.chain.GetStorage(gctx, moduleIdentity, entryIdentityOf, validator.Bytes())
		if err != nil || !ok {
			return err // no identity pallet or no registration
		}
		display, err := identityDisplay(raw, 0)
		if err != nil {
			return fmt.Errorf("identity: %w", err)
		}
		details.DisplayName = display
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("validator details: %w", errors.Join(ErrIncompleteState, err))
	}
	return details, nil
}

// --- fragment fetchers ---

func (c *Controller) accountInfo(ctx context.Context, account types.AccountID) (AccountInfo, error) {
	raw, ok, err := c.chain.GetStorage(ctx, moduleSystem, entryAccount, account.Bytes())
	if err != nil {
		return AccountInfo{}, err
	}
	if !ok {
		// Nonexistent account: all balances zero.
		return AccountInfo{Data: AccountData{
			Free:       new(big.Int),
			Reserved:   new(big.Int),
			MiscFrozen: new(big.Int),
			FeeFrozen:  new(big.Int),
		}}, nil
	}
	info, _, err := DecodeAccountInfo(raw, 0)
	if err != nil {
		return AccountInfo{}, err
	}
	return info, nil
}

// ledger resolves stash → controller via Staking.Bonded, then fetches the
// controller's ledger. A nil result means the account is not bonded.
func (c *Controller) ledger(ctx context.Context, stash types.AccountID) (*StakingLedger, error) {
	raw, ok, err := c.chain.GetStorage(ctx, moduleStaking, entryBonded, stash.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	controller, _, err := types.DecodeAccountID(raw, 0)
	if err != nil {
		return nil, fmt.Errorf("bonded controller: %w", err)
	}

	raw, ok, err = c.chain.GetStorage(ctx, moduleStaking, entryLedger, controller.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	ledger, _, err := DecodeStakingLedger(raw, 0)
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

func (c *Controller) nominations(ctx context.Context, account types.AccountID) (*Nominations, error) {
	raw, ok, err := c.chain.GetStorage(ctx, moduleStaking, entryNominators, account.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	nom, _, err := DecodeNominations(raw, 0)
	if err != nil {
		return nil, err
	}
	return &nom, nil
}

func (c *Controller) activeEra(ctx context.Context) (ActiveEraInfo, error) {
	raw, ok, err := c.chain.GetStorage(ctx, moduleStaking, entryActiveEra)
	if err != nil {
		return ActiveEraInfo{}, err
	}
	if !ok {
		return ActiveEraInfo{}, errors.New("chain reports no active era")
	}
	era, _, err := DecodeActiveEraInfo(raw, 0)
	if err != nil {
		return ActiveEraInfo{}, err
	}
	return era, nil
}

// electionOpen reads Staking.EraElectionStatus. Chains without the entry
// (the phragmen election was moved off-chain in later runtimes) never have
// an open election window.
func (c *Controller) electionOpen(ctx context.Context) (bool, error) {
	raw, ok, err := c.chain.GetStorage(ctx, moduleStaking, entryElectionStatus)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	status, _, err := DecodeElectionStatus(raw, 0)
	if err != nil {
		return false, err
	}
	return status.Open, nil
}

// eraLength derives blocks-per-era from session constants, 0 when the
// chain declares none.
func (c *Controller) eraLength(ctx context.Context) (uint64, error) {
	sessionsRaw, err := c.chain.GetConstant(ctx, moduleStaking, constSessionsPerEra)
	if errors.Is(err, rpcclient.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	sessions, _, err := scale.DecodeU32(sessionsRaw, 0)
	if err != nil {
		return 0, err
	}

	epochRaw, err := c.chain.GetConstant(ctx, moduleBabe, constEpochDuration)
	if errors.Is(err, rpcclient.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	epoch, _, err := scale.DecodeU64(epochRaw, 0)
	if err != nil {
		return 0, err
	}
	return uint64(sessions) * epoch, nil
}

func (c *Controller) existentialDeposit(ctx context.Context) (*big.Int, error) {
	raw, err := c.chain.GetConstant(ctx, moduleBalances, constExistentialDeposit)
	if err != nil {
		return nil, err
	}
	ed, _, err := scale.DecodeU128(raw, 0)
	if err != nil {
		return nil, fmt.Errorf("existential deposit: %w", err)
	}
	return ed, nil
}

// minimumBond is the smallest amount a new nominator can bond, falling
// back to the existential deposit on chains without an explicit minimum.
func (c *Controller) minimumBond(ctx context.Context) (*big.Int, error) {
	raw, err := c.chain.GetConstant(ctx, moduleStaking, constMinNominatorBond)
	if errors.Is(err, rpcclient.ErrNotFound) {
		return c.existentialDeposit(ctx)
	}
	if err != nil {
		return nil, err
	}
	minBond, _, err := scale.DecodeU128(raw, 0)
	if err != nil {
		return nil, fmt.Errorf("minimum bond: %w", err)
	}
	return minBond, nil
}

func (c *Controller) oversubscriptionThreshold(ctx context.Context) (int, error) {
	raw, err := c.chain.GetConstant(ctx, moduleStaking, constMaxRewardedNominators)
	if errors.Is(err, rpcclient.ErrNotFound) {
		return defaultOversubscriptionThreshold, nil
	}
	if err != nil {
		return 0, err
	}
	limit, _, err := scale.DecodeU32(raw, 0)
	if err != nil {
		return 0, fmt.Errorf("rewarded nominator limit: %w", err)
	}
	return int(limit), nil
}
