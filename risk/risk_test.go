package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"futbot/market"
)

func validPolicy() Policy {
	return Policy{
		Leverage:     5,
		RiskPerTrade: 0.01,
		MaxLotSize:   1.0,
		DailyRiskCap: 0.05,
	}
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, validPolicy().Validate())

	p := validPolicy()
	p.RiskPerTrade = 0
	require.Error(t, p.Validate())

	p = validPolicy()
	p.RiskPerTrade = 0.10 // above the daily cap
	require.Error(t, p.Validate())

	p = validPolicy()
	p.DailyRiskCap = 1.5
	require.Error(t, p.Validate())

	p = validPolicy()
	p.MaxLotSize = 0.0001
	require.Error(t, p.Validate())

	p = validPolicy()
	p.Leverage = 0
	require.Error(t, p.Validate())
}

func TestPositionSize_Basic(t *testing.T) {
	size, err := PositionSize(100, 40, 100)
	require.NoError(t, err)
	require.InDelta(t, 2.5, size, 1e-12)
}

func TestPositionSize_ClampsToMaxLot(t *testing.T) {
	size, err := PositionSize(1000, 1, 5)
	require.NoError(t, err)
	require.Equal(t, 5.0, size)
}

func TestPositionSize_BoundsOrError(t *testing.T) {
	for _, tc := range []struct {
		riskAmount, atr, maxLot float64
	}{
		{100, 40, 100},
		{1000, 1, 5},
		{0.5, 100, 1},
		{100, 0.0001, 0.5},
		{3, 3000, 10},
	} {
		size, err := PositionSize(tc.riskAmount, tc.atr, tc.maxLot)
		if err != nil {
			require.ErrorIs(t, err, ErrInvalidPositionSize)
			continue
		}
		require.Greater(t, size, MinLot)
		require.LessOrEqual(t, size, tc.maxLot)
	}
}

func TestPositionSize_ZeroATRFailsCleanly(t *testing.T) {
	// A flat candle series yields ATR 0; this must be a typed failure,
	// not a division by zero propagating Inf.
	_, err := PositionSize(100, 0, 10)
	require.ErrorIs(t, err, ErrInvalidPositionSize)

	_, err = PositionSize(100, -3, 10)
	require.ErrorIs(t, err, ErrInvalidPositionSize)
}

func TestPositionSize_SubMinimumFails(t *testing.T) {
	// 0.05/100 = 0.0005 < MinLot
	_, err := PositionSize(0.05, 100, 10)
	require.ErrorIs(t, err, ErrInvalidPositionSize)
}

func TestStopAndTarget_LongDefaults(t *testing.T) {
	// Support far below price: no substitution.
	stop, target := StopAndTarget(100, 10, 20, 180, market.Long)
	require.InDelta(t, 100-15.0, stop, 1e-12)
	require.InDelta(t, 100+20.0, target, 1e-12)
}

func TestStopAndTarget_LongStructuralSupport(t *testing.T) {
	// Support within 3 ATR below price replaces the default stop.
	stop, target := StopAndTarget(100, 10, 95, 180, market.Long)
	require.Equal(t, 95.0, stop)
	require.InDelta(t, 120.0, target, 1e-12)

	// Support above price never becomes a long stop.
	stop, _ = StopAndTarget(100, 10, 101, 180, market.Long)
	require.InDelta(t, 85.0, stop, 1e-12)
}

func TestStopAndTarget_ShortMirror(t *testing.T) {
	stop, target := StopAndTarget(100, 10, 20, 108, market.Short)
	require.Equal(t, 108.0, stop) // resistance within reach anchors the stop
	require.InDelta(t, 80.0, target, 1e-12)

	// Resistance too far: default stop.
	stop, _ = StopAndTarget(100, 10, 20, 200, market.Short)
	require.InDelta(t, 115.0, stop, 1e-12)
}

func TestMinRiskReward(t *testing.T) {
	p := validPolicy()
	require.Equal(t, BaseMinRiskReward, p.MinRiskReward(100))
	require.Equal(t, RelaxedMinRiskReward, p.MinRiskReward(HighVolatilityATR+1))

	p.MinRiskRewardBase = 2.5
	require.Equal(t, 2.5, p.MinRiskReward(100))
	// Relaxation still wins in high volatility.
	require.Equal(t, RelaxedMinRiskReward, p.MinRiskReward(HighVolatilityATR+1))
}

func TestRewardRatio(t *testing.T) {
	// Stop 5 below, target 6 above: ratio 1.2, which fails the normal gate.
	ratio := RewardRatio(100, 95, 106)
	require.InDelta(t, 1.2, ratio, 1e-12)
	require.Less(t, ratio, BaseMinRiskReward)

	require.Zero(t, RewardRatio(100, 100, 110))
}

func TestDailyAccumulator_GateAndReset(t *testing.T) {
	var acc DailyAccumulator
	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	require.True(t, acc.Allow(day1, 10000, 0.05))

	acc.RecordLoss(day1, 300)
	require.Equal(t, 300.0, acc.Loss(day1))
	require.True(t, acc.Allow(day1, 10000, 0.05))

	acc.RecordLoss(day1.Add(2*time.Hour), 200)
	require.Equal(t, 500.0, acc.Loss(day1))
	require.False(t, acc.Allow(day1.Add(3*time.Hour), 10000, 0.05))

	// Still gated just before midnight, reset just after.
	require.False(t, acc.Allow(time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC), 10000, 0.05))
	day2 := time.Date(2024, 3, 2, 0, 0, 1, 0, time.UTC)
	require.True(t, acc.Allow(day2, 10000, 0.05))
	require.Zero(t, acc.Loss(day2))
}

func TestDailyAccumulator_IgnoresNonLosses(t *testing.T) {
	var acc DailyAccumulator
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	acc.RecordLoss(now, -50) // a profit is not a loss
	acc.RecordLoss(now, 0)
	require.Zero(t, acc.Loss(now))
}
