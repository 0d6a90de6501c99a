package staking

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Meridian-labs/meridian-wallet/internal/rpcclient"
	"github.com/Meridian-labs/meridian-wallet/pkg/scale"
	"github.com/Meridian-labs/meridian-wallet/pkg/types"
)

// fakeChain is an in-memory ChainState with programmable failures.
type fakeChain struct {
	storage   map[string][]byte
	constants map[string][]byte
	failOn    map[string]error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		storage:   make(map[string][]byte),
		constants: make(map[string][]byte),
		failOn:    make(map[string]error),
	}
}

func storageRef(module, entry string, keys ...[]byte) string {
	ref := module + "." + entry
	for _, k := range keys {
		ref += "/" + hex.EncodeToString(k)
	}
	return ref
}

func (f *fakeChain) set(module, entry string, value []byte, keys ...[]byte) {
	f.storage[storageRef(module, entry, keys...)] = value
}

func (f *fakeChain) setConstant(module, name string, value []byte) {
	f.constants[module+"."+name] = value
}

func (f *fakeChain) GetStorage(ctx context.Context, module, entry string, keys ...[]byte) ([]byte, bool, error) {
	if err, ok := f.failOn[module+"."+entry]; ok {
		return nil, false, err
	}
	value, ok := f.storage[storageRef(module, entry, keys...)]
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

func (f *fakeChain) GetConstant(ctx context.Context, module, name string) ([]byte, error) {
	value, ok := f.constants[module+"."+name]
	if !ok {
		return nil, fmt.Errorf("constant %s.%s: %w", module, name, rpcclient.ErrNotFound)
	}
	return value, nil
}

func u128Bytes(t *testing.T, v int64) []byte {
	t.Helper()
	b, err := scale.AppendU128(nil, big.NewInt(v))
	require.NoError(t, err)
	return b
}

func eraKey(era uint32) []byte {
	return scale.AppendU32(nil, era)
}

// bond records a stash as its own controller with the given ledger value.
func (f *fakeChain) bond(stash types.AccountID, ledger []byte) {
	f.set(moduleStaking, entryBonded, stash.Bytes(), stash.Bytes())
	f.set(moduleStaking, entryLedger, ledger, stash.Bytes())
}

func TestTransferableBalanceExcludesExistentialDeposit(t *testing.T) {
	account := testAccount(0x01)
	chain := newFakeChain()
	chain.set(moduleSystem, entryAccount, encodeAccountInfo(t, 0, 1000, 0, 0, 0), account.Bytes())
	chain.setConstant(moduleBalances, constExistentialDeposit, u128Bytes(t, 1))

	c := NewController(chain)
	got, err := c.TransferableBalance(context.Background(), account, true, true)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(999), got)
}

func TestTransferableBalanceLockSelection(t *testing.T) {
	account := testAccount(0x02)
	chain := newFakeChain()
	chain.set(moduleSystem, entryAccount, encodeAccountInfo(t, 0, 1000, 50, 100, 200), account.Bytes())

	c := NewController(chain)

	// ignoreFees selects the non-fee lock.
	got, err := c.TransferableBalance(context.Background(), account, false, true)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(850), got)

	got, err = c.TransferableBalance(context.Background(), account, false, false)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(750), got)
}

func TestTransferableBalanceNegativePassesThrough(t *testing.T) {
	account := testAccount(0x03)
	chain := newFakeChain()
	chain.setConstant(moduleBalances, constExistentialDeposit, u128Bytes(t, 1))

	// Nonexistent account: zero balances minus the deposit goes negative.
	c := NewController(chain)
	got, err := c.TransferableBalance(context.Background(), account, true, true)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(-1), got)
}

func TestRewardsForErasNominatorShare(t *testing.T) {
	nominator := testAccount(0x0a)
	validator := testAccount(0x0b)
	const era = uint32(100)

	chain := newFakeChain()
	chain.set(moduleStaking, entryNominators, encodeNominations([]types.AccountID{validator}, 90, false), nominator.Bytes())
	chain.set(moduleStaking, entryValidatorReward, u128Bytes(t, 100), eraKey(era))
	chain.set(moduleStaking, entryRewardPoints,
		encodeRewardPoints(1000, []ValidatorPoints{{Who: validator, Points: 250}}), eraKey(era))
	chain.set(moduleStaking, entryStakersClipped,
		encodeExposure(5000, 4500, []IndividualExposure{{Who: nominator, Value: big.NewInt(500)}}),
		eraKey(era), validator.Bytes())
	chain.set(moduleStaking, entryValidatorPrefs, encodePrefs(100_000_000, false), eraKey(era), validator.Bytes())

	c := NewController(chain)
	rewards, err := c.RewardsForEras(context.Background(), nominator, []uint32{era})
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	require.Equal(t, era, rewards[0].Era)

	// (250/1000) × 100 × 0.9 × (500/5000) = 2.25
	require.Equal(t, big.NewRat(9, 4), rewards[0].Amount)
}

func TestRewardsForErasSkipsIncompleteEra(t *testing.T) {
	nominator := testAccount(0x0a)
	validator := testAccount(0x0b)
	const complete, incomplete = uint32(100), uint32(101)

	chain := newFakeChain()
	chain.set(moduleStaking, entryNominators, encodeNominations([]types.AccountID{validator}, 90, false), nominator.Bytes())
	chain.set(moduleStaking, entryValidatorReward, u128Bytes(t, 100), eraKey(complete))
	chain.set(moduleStaking, entryRewardPoints,
		encodeRewardPoints(100, []ValidatorPoints{{Who: validator, Points: 100}}), eraKey(complete))
	chain.set(moduleStaking, entryStakersClipped,
		encodeExposure(1000, 0, []IndividualExposure{{Who: nominator, Value: big.NewInt(1000)}}),
		eraKey(complete), validator.Bytes())
	// Era 101 has reward points but no recorded payout yet.
	chain.set(moduleStaking, entryRewardPoints,
		encodeRewardPoints(100, []ValidatorPoints{{Who: validator, Points: 100}}), eraKey(incomplete))

	c := NewController(chain)
	rewards, err := c.RewardsForEras(context.Background(), nominator, []uint32{complete, incomplete})
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	require.Equal(t, complete, rewards[0].Era)
	require.Equal(t, big.NewRat(100, 1), rewards[0].Amount)
}

func TestRewardsForErasValidatorOwnReward(t *testing.T) {
	validator := testAccount(0x0c)
	const era = uint32(55)

	chain := newFakeChain()
	chain.set(moduleStaking, entryValidatorReward, u128Bytes(t, 1000), eraKey(era))
	chain.set(moduleStaking, entryRewardPoints,
		encodeRewardPoints(100, []ValidatorPoints{{Who: validator, Points: 50}}), eraKey(era))
	chain.set(moduleStaking, entryStakersClipped,
		encodeExposure(2000, 1000, []IndividualExposure{{Who: testAccount(0x0d), Value: big.NewInt(1000)}}),
		eraKey(era), validator.Bytes())
	chain.set(moduleStaking, entryValidatorPrefs, encodePrefs(200_000_000, false), eraKey(era), validator.Bytes())

	c := NewController(chain)
	rewards, err := c.RewardsForEras(context.Background(), validator, []uint32{era})
	require.NoError(t, err)
	require.Len(t, rewards, 1)

	// valReward = 1000 × 50/100 = 500; commission 20% = 100;
	// own share = 400 × (1000/2000) = 200.
	require.Equal(t, big.NewRat(300, 1), rewards[0].Amount)
}

func TestNominationStatusRanking(t *testing.T) {
	validator := testAccount(0xee)
	const era = uint32(200)

	// 300 nominators with strictly descending stakes.
	others := make([]IndividualExposure, 300)
	for i := range others {
		others[i] = IndividualExposure{
			Who:   testAccount(byte(0)),
			Value: big.NewInt(int64(1_000_000 - i)),
		}
		// Distinct 32-byte accounts beyond what a single seed byte allows.
		others[i].Who[0] = byte(i)
		others[i].Who[1] = byte(i >> 8)
	}
	raw := encodeExposure(300_000_000, 0, others)

	chain := newFakeChain()
	chain.set(moduleStaking, entryStakersClipped, raw, eraKey(era), validator.Bytes())
	c := NewController(chain)
	ctx := context.Background()

	// Rank 257 with the default threshold of 256.
	status, err := c.Status(ctx, others[256].Who, validator, era)
	require.NoError(t, err)
	require.Equal(t, NominationOversubscribed, status)

	status, err = c.Status(ctx, others[99].Who, validator, era)
	require.NoError(t, err)
	require.Equal(t, NominationActive, status)

	absent := testAccount(0xfe)
	status, err = c.Status(ctx, absent, validator, era)
	require.NoError(t, err)
	require.Equal(t, NominationInactive, status)
}

func TestNominationStatusNoExposure(t *testing.T) {
	chain := newFakeChain()
	c := NewController(chain)

	status, err := c.Status(context.Background(), testAccount(0x01), testAccount(0x02), 10)
	require.NoError(t, err)
	require.Equal(t, NominationInactive, status)
}

func TestNominationStatusChainThreshold(t *testing.T) {
	validator := testAccount(0xee)
	const era = uint32(201)

	others := make([]IndividualExposure, 10)
	for i := range others {
		others[i] = IndividualExposure{Value: big.NewInt(int64(100 - i))}
		others[i].Who[0] = byte(i + 1)
	}

	chain := newFakeChain()
	chain.set(moduleStaking, entryStakersClipped, encodeExposure(1000, 0, others), eraKey(era), validator.Bytes())
	chain.setConstant(moduleStaking, constMaxRewardedNominators, scale.AppendU32(nil, 4))

	c := NewController(chain)
	ctx := context.Background()

	status, err := c.Status(ctx, others[4].Who, validator, era) // rank 5 of 4
	require.NoError(t, err)
	require.Equal(t, NominationOversubscribed, status)

	status, err = c.Status(ctx, others[3].Who, validator, era)
	require.NoError(t, err)
	require.Equal(t, NominationActive, status)
}

// snapshotFixture wires the minimum state for a Snapshot call to succeed.
func snapshotFixture(t *testing.T, account types.AccountID) *fakeChain {
	t.Helper()
	chain := newFakeChain()
	chain.set(moduleSystem, entryAccount, encodeAccountInfo(t, 0, 10_000, 0, 0, 0), account.Bytes())
	chain.set(moduleStaking, entryActiveEra, encodeActiveEra(100, nil))
	chain.setConstant(moduleBalances, constExistentialDeposit, u128Bytes(t, 1))
	return chain
}

func TestSnapshotUnbondedAccount(t *testing.T) {
	account := testAccount(0x41)
	chain := snapshotFixture(t, account)

	c := NewController(chain)
	snap, err := c.Snapshot(context.Background(), account)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(9999), snap.Transferable)
	require.Nil(t, snap.Ledger)
	require.Nil(t, snap.Nominations)
	require.Equal(t, uint32(100), snap.ActiveEra.Index)
	require.False(t, snap.ElectionOpen)
}

func TestSnapshotFailsWholeOnMissingFragment(t *testing.T) {
	account := testAccount(0x42)
	chain := snapshotFixture(t, account)
	chain.failOn[moduleStaking+"."+entryActiveEra] = fmt.Errorf("node unreachable")

	c := NewController(chain)
	_, err := c.Snapshot(context.Background(), account)
	require.ErrorIs(t, err, ErrIncompleteState)
}

func TestEligibleActionsElectionOpenGate(t *testing.T) {
	account := testAccount(0x43)
	chain := snapshotFixture(t, account)
	chain.set(moduleStaking, entryElectionStatus, encodeElectionStatus(true, 12345))

	c := NewController(chain)
	actions, err := c.EligibleActions(context.Background(), account, []types.AccountID{testAccount(0xaa)})
	require.NoError(t, err)
	require.Empty(t, actions)
}

func TestEligibleActionsUnbondedFundedAccount(t *testing.T) {
	account := testAccount(0x44)
	chain := snapshotFixture(t, account)
	targets := []types.AccountID{testAccount(0xaa)}

	c := NewController(chain)
	actions, err := c.EligibleActions(context.Background(), account, targets)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	require.Equal(t, ActionBondNominate, actions[0].Type)
	require.Equal(t, targets, actions[0].Targets)
}

func TestEligibleActionsBondedNotNominating(t *testing.T) {
	account := testAccount(0x45)
	chain := snapshotFixture(t, account)
	chain.bond(account, encodeLedger(account, 5000, 5000, nil, nil))

	c := NewController(chain)
	actions, err := c.EligibleActions(context.Background(), account, nil)
	require.NoError(t, err)

	got := make([]ActionType, len(actions))
	for i, a := range actions {
		got[i] = a.Type
	}
	require.Equal(t, []ActionType{ActionNominate, ActionBondExtra, ActionUnbond}, got)
}

func TestEligibleActionsRules(t *testing.T) {
	targetA := testAccount(0xa1)
	targetB := testAccount(0xa2)
	minBond := big.NewInt(100)

	bondedLedger := &StakingLedger{Total: big.NewInt(500), Active: big.NewInt(500)}
	unbondingLedger := &StakingLedger{
		Total:     big.NewInt(500),
		Active:    big.NewInt(200),
		Unlocking: []UnlockChunk{{Value: big.NewInt(300), Era: 110}},
	}
	withdrawableLedger := &StakingLedger{
		Total:     big.NewInt(500),
		Active:    big.NewInt(200),
		Unlocking: []UnlockChunk{{Value: big.NewInt(300), Era: 90}},
	}
	nominating := &Nominations{Targets: []types.AccountID{targetA}}

	tests := []struct {
		name    string
		snap    *Snapshot
		targets []types.AccountID
		want    []ActionType
	}{
		{
			name:    "election open blocks everything",
			snap:    &Snapshot{Transferable: big.NewInt(1000), Ledger: unbondingLedger, ElectionOpen: true},
			targets: []types.AccountID{targetA},
			want:    nil,
		},
		{
			name: "unbonded underfunded account has no actions",
			snap: &Snapshot{Transferable: big.NewInt(50)},
			want: nil,
		},
		{
			name:    "unbonding without nominations offers rebond+nominate",
			snap:    &Snapshot{Transferable: big.NewInt(0), Ledger: unbondingLedger, ActiveEra: ActiveEraInfo{Index: 100}},
			targets: []types.AccountID{targetA},
			want:    []ActionType{ActionRebondNominate},
		},
		{
			name: "unbonding while nominating offers rebond-extra",
			snap: &Snapshot{Transferable: big.NewInt(0), Ledger: unbondingLedger, Nominations: nominating, ActiveEra: ActiveEraInfo{Index: 100}},
			want: []ActionType{ActionRebondExtra},
		},
		{
			name:    "same target set offers cancel",
			snap:    &Snapshot{Transferable: big.NewInt(0), Ledger: bondedLedger, Nominations: nominating},
			targets: []types.AccountID{targetA},
			want:    []ActionType{ActionCancelNomination},
		},
		{
			name:    "different target set offers change",
			snap:    &Snapshot{Transferable: big.NewInt(0), Ledger: bondedLedger, Nominations: nominating},
			targets: []types.AccountID{targetB},
			want:    []ActionType{ActionChangeNomination},
		},
		{
			name: "passed unlock era offers withdraw",
			snap: &Snapshot{Transferable: big.NewInt(0), Ledger: withdrawableLedger, Nominations: nominating, ActiveEra: ActiveEraInfo{Index: 100}},
			want: []ActionType{ActionRebondExtra, ActionWithdrawUnbonded},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			actions := eligibleActions(tc.snap, minBond, tc.targets)
			got := make([]ActionType, len(actions))
			for i, a := range actions {
				got[i] = a.Type
			}
			if tc.want == nil {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestValidatorDetails(t *testing.T) {
	validator := testAccount(0x61)
	nominator := testAccount(0x62)
	const era = uint32(300)

	chain := newFakeChain()
	chain.set(moduleStaking, entryStakersClipped,
		encodeExposure(9000, 6000, []IndividualExposure{{Who: nominator, Value: big.NewInt(3000)}}),
		eraKey(era), validator.Bytes())
	chain.set(moduleStaking, entryValidatorPrefs, encodePrefs(50_000_000, false), eraKey(era), validator.Bytes())
	chain.set(moduleStaking, entryRewardPoints,
		encodeRewardPoints(400, []ValidatorPoints{{Who: validator, Points: 120}}), eraKey(era))
	chain.set(moduleIdentity, entryIdentityOf, encodeIdentity(t, "Validator One"), validator.Bytes())

	c := NewController(chain)
	details, err := c.ValidatorDetails(context.Background(), validator, era)
	require.NoError(t, err)
	require.Equal(t, uint32(50_000_000), details.Commission)
	require.Equal(t, big.NewInt(6000), details.OwnStake)
	require.Equal(t, big.NewInt(9000), details.TotalStake)
	require.Equal(t, 1, details.NominatorCount)
	require.Equal(t, uint32(120), details.RewardPoints)
	require.Equal(t, "Validator One", details.DisplayName)
}

func TestValidatorDetailsNoExposureFails(t *testing.T) {
	chain := newFakeChain()
	c := NewController(chain)

	_, err := c.ValidatorDetails(context.Background(), testAccount(0x61), 300)
	require.ErrorIs(t, err, ErrIncompleteState)
}
