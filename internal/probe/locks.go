package probe

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"bsc-token-sentinel/internal/bsc"
)

// Locker is a known LP custody address.
type Locker struct {
	Address common.Address
	Label   string
}

// KnownLockers are the LP custody addresses recognized as locks, checked
// in order. LP sent to the dead address counts as a permanent lock.
var KnownLockers = []Locker{
	{bsc.DeadAddress, "Burned LP"},
	{common.HexToAddress("0x71b5759d73262fbB223956913ecF4ecC51057641"), "PinkLock"},
	{common.HexToAddress("0x160C404B2b49CB2bB4eacF99C43D87bE4D5d7011"), "Unicrypt"},
	{common.HexToAddress("0x04e6F62f0fB5C0a2bF9b2b9D8c9C28840fd6B5C8"), "Team.Finance"},
}

// LockStatus reports the strongest LP lock found for a pair.
type LockStatus struct {
	LockedPct float64
	Locker    string
}

// LockChecker measures how much of a v2 pair's LP supply sits with known
// lockers.
type LockChecker struct {
	chain bsc.RPCClient
}

// NewLockChecker creates a lock checker over the given chain client.
func NewLockChecker(chain bsc.RPCClient) *LockChecker {
	return &LockChecker{chain: chain}
}

// Check reads the pair's LP supply and each known locker's balance and
// returns the locker holding the largest share. Ties keep the earlier
// locker. Any failed read leaves the lock unknown.
func (c *LockChecker) Check(ctx context.Context, pair common.Address) (LockStatus, bool) {
	if c.chain == nil {
		return LockStatus{}, false
	}
	total, err := c.chain.TotalSupply(ctx, pair)
	if err != nil || total.Sign() == 0 {
		return LockStatus{}, false
	}

	var best LockStatus
	for _, locker := range KnownLockers {
		bal, err := c.chain.BalanceOf(ctx, pair, locker.Address)
		if err != nil {
			return LockStatus{}, false
		}
		pct := ratioPercent(bal, total)
		if pct > best.LockedPct {
			best = LockStatus{LockedPct: pct, Locker: locker.Label}
		}
	}
	if best.Locker == "" {
		return LockStatus{}, false
	}
	best.LockedPct = round4(best.LockedPct)
	return best, true
}
