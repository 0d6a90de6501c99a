package staking

import (
	"fmt"
	"math/big"

	"github.com/Meridian-labs/meridian-wallet/pkg/scale"
	"github.com/Meridian-labs/meridian-wallet/pkg/types"
)

// Decoded chain value types. All are immutable value objects produced fresh
// per query; decoders follow the cursor convention of pkg/scale.

// AccountData is the balance part of an account record, amounts in the
// chain's smallest unit.
type AccountData struct {
	Free       *big.Int
	Reserved   *big.Int
	MiscFrozen *big.Int
	FeeFrozen  *big.Int
}

// AccountInfo is the System.Account storage value.
type AccountInfo struct {
	Nonce       uint32
	Consumers   uint32
	Providers   uint32
	Sufficients uint32
	Data        AccountData
}

// DecodeAccountInfo parses a System.Account value.
func DecodeAccountInfo(buf []byte, off int) (AccountInfo, int, error) {
	var info AccountInfo
	start := off

	for _, dst := range []*uint32{&info.Nonce, &info.Consumers, &info.Providers, &info.Sufficients} {
		v, n, err := scale.DecodeU32(buf, off)
		if err != nil {
			return info, 0, fmt.Errorf("account info: %w", err)
		}
		*dst = v
		off += n
	}

	for _, dst := range []**big.Int{&info.Data.Free, &info.Data.Reserved, &info.Data.MiscFrozen, &info.Data.FeeFrozen} {
		v, n, err := scale.DecodeU128(buf, off)
		if err != nil {
			return info, 0, fmt.Errorf("account data: %w", err)
		}
		*dst = v
		off += n
	}

	return info, off - start, nil
}

// UnlockChunk is a portion of bonded funds scheduled to unlock at an era.
type UnlockChunk struct {
	Value *big.Int
	Era   uint32
}

func decodeUnlockChunk(buf []byte, off int) (UnlockChunk, int, error) {
	var c UnlockChunk
	start := off

	value, n, err := scale.DecodeCompact(buf, off)
	if err != nil {
		return c, 0, fmt.Errorf("unlock chunk value: %w", err)
	}
	c.Value = value
	off += n

	era, n, err := scale.DecodeCompactU32(buf, off)
	if err != nil {
		return c, 0, fmt.Errorf("unlock chunk era: %w", err)
	}
	c.Era = era
	off += n

	return c, off - start, nil
}

// StakingLedger is the Staking.Ledger storage value.
type StakingLedger struct {
	Stash          types.AccountID
	Total          *big.Int
	Active         *big.Int
	Unlocking      []UnlockChunk
	ClaimedRewards []uint32
}

// IsUnbonding reports whether any funds are scheduled to unlock.
func (l *StakingLedger) IsUnbonding() bool {
	return len(l.Unlocking) > 0
}

// WithdrawableValue sums the unlock chunks whose era has passed.
func (l *StakingLedger) WithdrawableValue(activeEra uint32) *big.Int {
	total := new(big.Int)
	for _, c := range l.Unlocking {
		if c.Era <= activeEra {
			total.Add(total, c.Value)
		}
	}
	return total
}

// DecodeStakingLedger parses a Staking.Ledger value.
func DecodeStakingLedger(buf []byte, off int) (StakingLedger, int, error) {
	var l StakingLedger
	start := off

	stash, n, err := types.DecodeAccountID(buf, off)
	if err != nil {
		return l, 0, fmt.Errorf("ledger stash: %w", err)
	}
	l.Stash = stash
	off += n

	total, n, err := scale.DecodeCompact(buf, off)
	if err != nil {
		return l, 0, fmt.Errorf("ledger total: %w", err)
	}
	l.Total = total
	off += n

	active, n, err := scale.DecodeCompact(buf, off)
	if err != nil {
		return l, 0, fmt.Errorf("ledger active: %w", err)
	}
	l.Active = active
	off += n

	unlocking, n, err := scale.DecodeVec(buf, off, decodeUnlockChunk)
	if err != nil {
		return l, 0, fmt.Errorf("ledger unlocking: %w", err)
	}
	l.Unlocking = unlocking
	off += n

	claimed, n, err := scale.DecodeVec(buf, off, scale.DecodeU32)
	if err != nil {
		return l, 0, fmt.Errorf("ledger claimed rewards: %w", err)
	}
	l.ClaimedRewards = claimed
	off += n

	return l, off - start, nil
}

// Nominations is the Staking.Nominators storage value.
type Nominations struct {
	Targets     []types.AccountID
	SubmittedIn uint32
	Suppressed  bool
}

// DecodeNominations parses a Staking.Nominators value.
func DecodeNominations(buf []byte, off int) (Nominations, int, error) {
	var nom Nominations
	start := off

	targets, n, err := scale.DecodeVec(buf, off, types.DecodeAccountID)
	if err != nil {
		return nom, 0, fmt.Errorf("nomination targets: %w", err)
	}
	nom.Targets = targets
	off += n

	submittedIn, n, err := scale.DecodeU32(buf, off)
	if err != nil {
		return nom, 0, fmt.Errorf("nomination submitted era: %w", err)
	}
	nom.SubmittedIn = submittedIn
	off += n

	suppressed, n, err := scale.DecodeBool(buf, off)
	if err != nil {
		return nom, 0, fmt.Errorf("nomination suppressed flag: %w", err)
	}
	nom.Suppressed = suppressed
	off += n

	return nom, off - start, nil
}

// ActiveEraInfo is the Staking.ActiveEra storage value. Start is the era's
// start timestamp in milliseconds, absent while the first session of the
// era is still in progress.
type ActiveEraInfo struct {
	Index uint32
	Start *uint64
}

// DecodeActiveEraInfo parses a Staking.ActiveEra value.
func DecodeActiveEraInfo(buf []byte, off int) (ActiveEraInfo, int, error) {
	var era ActiveEraInfo
	start := off

	index, n, err := scale.DecodeU32(buf, off)
	if err != nil {
		return era, 0, fmt.Errorf("active era index: %w", err)
	}
	era.Index = index
	off += n

	begin, n, err := scale.DecodeOption(buf, off, scale.DecodeU64)
	if err != nil {
		return era, 0, fmt.Errorf("active era start: %w", err)
	}
	era.Start = begin
	off += n

	return era, off - start, nil
}

// IndividualExposure is one nominator's stake behind a validator.
type IndividualExposure struct {
	Who   types.AccountID
	Value *big.Int
}

func decodeIndividualExposure(buf []byte, off int) (IndividualExposure, int, error) {
	var e IndividualExposure
	start := off

	who, n, err := types.DecodeAccountID(buf, off)
	if err != nil {
		return e, 0, fmt.Errorf("exposure account: %w", err)
	}
	e.Who = who
	off += n

	value, n, err := scale.DecodeCompact(buf, off)
	if err != nil {
		return e, 0, fmt.Errorf("exposure value: %w", err)
	}
	e.Value = value
	off += n

	return e, off - start, nil
}

// Exposure is the stake backing a validator in one era.
type Exposure struct {
	Total  *big.Int
	Own    *big.Int
	Others []IndividualExposure
}

// DecodeExposure parses a Staking.ErasStakers / ErasStakersClipped value.
func DecodeExposure(buf []byte, off int) (Exposure, int, error) {
	var e Exposure
	start := off

	total, n, err := scale.DecodeCompact(buf, off)
	if err != nil {
		return e, 0, fmt.Errorf("exposure total: %w", err)
	}
	e.Total = total
	off += n

	own, n, err := scale.DecodeCompact(buf, off)
	if err != nil {
		return e, 0, fmt.Errorf("exposure own: %w", err)
	}
	e.Own = own
	off += n

	others, n, err := scale.DecodeVec(buf, off, decodeIndividualExposure)
	if err != nil {
		return e, 0, fmt.Errorf("exposure others: %w", err)
	}
	e.Others = others
	off += n

	return e, off - start, nil
}

// ValidatorPoints is one validator's share of an era's reward points.
type ValidatorPoints struct {
	Who    types.AccountID
	Points uint32
}

func decodeValidatorPoints(buf []byte, off int) (ValidatorPoints, int, error) {
	var p ValidatorPoints
	start := off

	who, n, err := types.DecodeAccountID(buf, off)
	if err != nil {
		return p, 0, fmt.Errorf("reward points account: %w", err)
	}
	p.Who = who
	off += n

	points, n, err := scale.DecodeU32(buf, off)
	if err != nil {
		return p, 0, fmt.Errorf("reward points value: %w", err)
	}
	p.Points = points
	off += n

	return p, off - start, nil
}

// EraRewardPoints is the Staking.ErasRewardPoints storage value.
type EraRewardPoints struct {
	Total      uint32
	Individual []ValidatorPoints
}

// PointsFor returns the points earned by a validator in this era.
func (e *EraRewardPoints) PointsFor(validator types.AccountID) (uint32, bool) {
	for _, p := range e.Individual {
		if p.Who.Equal(validator) {
			return p.Points, true
		}
	}
	return 0, false
}

// DecodeEraRewardPoints parses a Staking.ErasRewardPoints value.
func DecodeEraRewardPoints(buf []byte, off int) (EraRewardPoints, int, error) {
	var e EraRewardPoints
	start := off

	total, n, err := scale.DecodeU32(buf, off)
	if err != nil {
		return e, 0, fmt.Errorf("era reward points total: %w", err)
	}
	e.Total = total
	off += n

	individual, n, err := scale.DecodeVec(buf, off, decodeValidatorPoints)
	if err != nil {
		return e, 0, fmt.Errorf("era reward points individual: %w", err)
	}
	e.Individual = individual
	off += n

	return e, off - start, nil
}

// ValidatorPrefs is the Staking.ErasValidatorPrefs storage value.
// Commission is parts per billion.
type ValidatorPrefs struct {
	Commission uint32
	Blocked    bool
}

// DecodeValidatorPrefs parses a Staking.Validators / ErasValidatorPrefs
// value.
func DecodeValidatorPrefs(buf []byte, off int) (ValidatorPrefs, int, error) {
	var p ValidatorPrefs
	start := off

	commission, n, err := scale.DecodeCompactU32(buf, off)
	if err != nil {
		return p, 0, fmt.Errorf("validator commission: %w", err)
	}
	p.Commission = commission
	off += n

	// Older runtimes had no blocked flag; tolerate its absence at the end
	// of the buffer.
	if off < len(buf) {
		blocked, n, err := scale.DecodeBool(buf, off)
		if err != nil {
			return p, 0, fmt.Errorf("validator blocked flag: %w", err)
		}
		p.Blocked = blocked
		off += n
	}

	return p, off - start, nil
}

// ElectionStatus is the Staking.EraElectionStatus storage value. When an
// election window is open all staking mutations are refused by the chain.
type ElectionStatus struct {
	Open     bool
	OpenedAt uint32
}

// DecodeElectionStatus parses a Staking.EraElectionStatus value.
func DecodeElectionStatus(buf []byte, off int) (ElectionStatus, int, error) {
	_, status, n, err := scale.DecodeEnum(buf, off, map[uint8]scale.Decoder[ElectionStatus]{
		0: func(buf []byte, off int) (ElectionStatus, int, error) {
			return ElectionStatus{}, 0, nil
		},
		1: func(buf []byte, off int) (ElectionStatus, int, error) {
			at, n, err := scale.DecodeU32(buf, off)
			if err != nil {
				return ElectionStatus{}, 0, fmt.Errorf("election open block: %w", err)
			}
			return ElectionStatus{Open: true, OpenedAt: at}, n, nil
		},
	})
	if err != nil {
		return ElectionStatus{}, 0, fmt.Errorf("election status: %w", err)
	}
	return status, n, nil
}

// identityDisplay extracts the display name from an Identity.IdentityOf
// registration value. Only the fields up to the display name are parsed.
func identityDisplay(buf []byte, off int) (string, error) {
	// judgements: Vec<(RegistrarIndex, Judgement)>
	_, n, err := scale.DecodeVec(buf, off, decodeJudgementEntry)
	if err != nil {
		return "", fmt.Errorf("identity judgements: %w", err)
	}
	off += n

	// deposit
	_, n, err = scale.DecodeU128(buf, off)
	if err != nil {
		return "", fmt.Errorf("identity deposit: %w", err)
	}
	off += n

	// info.additional: Vec<(Data, Data)>
	_, n, err = scale.DecodeVec(buf, off, decodeDataPair)
	if err != nil {
		return "", fmt.Errorf("identity additional fields: %w", err)
	}
	off += n

	display, _, err := decodeIdentityData(buf, off)
	if err != nil {
		return "", fmt.Errorf("identity display: %w", err)
	}
	return display, nil
}

func decodeJudgementEntry(buf []byte, off int) (struct{}, int, error) {
	start := off

	_, n, err := scale.DecodeU32(buf, off) // registrar index
	if err != nil {
		return struct{}{}, 0, err
	}
	off += n

	tag, n, err := scale.DecodeU8(buf, off)
	if err != nil {
		return struct{}{}, 0, err
	}
	off += n
	if tag == 1 { // FeePaid carries a balance
		_, n, err = scale.DecodeU128(buf, off)
		if err != nil {
			return struct{}{}, 0, err
		}
		off += n
	} else if tag > 6 {
		return struct{}{}, 0, fmt.Errorf("judgement: %w: %d", scale.ErrUnknownVariant, tag)
	}

	return struct{}{}, off - start, nil
}

func decodeDataPair(buf []byte, off int) (struct{}, int, error) {
	start := off
	for i := 0; i < 2; i++ {
		_, n, err := decodeIdentityData(buf, off)
		if err != nil {
			return struct{}{}, 0, err
		}
		off += n
	}
	return struct{}{}, off - start, nil
}

// decodeIdentityData parses the identity Data enum: 0 is none, 1..33 carry
// tag-1 raw bytes inline, 34..37 carry a 32-byte hash.
func decodeIdentityData(buf []byte, off int) (string, int, error) {
	tag, n, err := scale.DecodeU8(buf, off)
	if err != nil {
		return "", 0, err
	}
	start := off
	off += n

	switch {
	case tag == 0:
		return "", off - start, nil
	case tag <= 33:
		raw, n, err := scale.DecodeFixedBytes(buf, off, int(tag)-1)
		if err != nil {
			return "", 0, err
		}
		off += n
		return string(raw), off - start, nil
	case tag <= 37:
		_, n, err := scale.DecodeFixedBytes(buf, off, 32)
		if err != nil {
			return "", 0, err
		}
		off += n
		return "", off - start, nil
	default:
		return "", 0, fmt.Errorf("identity data: %w: %d", scale.ErrUnknownVariant, tag)
	}
}
