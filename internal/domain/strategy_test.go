package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStrategy() StrategyConfig {
	return StrategyConfig{
		EntryThreshold: 0.15,
		ExitThreshold:  0.05,
		BetAmount:      100,
	}
}

func TestStrategyConfig_Validate(t *testing.T) {
	assert.NoError(t, validStrategy().Validate())

	exitAboveEntry := validStrategy()
	exitAboveEntry.ExitThreshold = 0.20
	assert.Error(t, exitAboveEntry.Validate())

	exitEqualsEntry := validStrategy()
	exitEqualsEntry.ExitThreshold = exitEqualsEntry.EntryThreshold
	assert.Error(t, exitEqualsEntry.Validate())

	noBet := validStrategy()
	noBet.BetAmount = 0
	assert.Error(t, noBet.Validate())

	negativeFee := validStrategy()
	negativeFee.FeePerTrade = -1
	assert.Error(t, negativeFee.Validate())
}

func TestStrategyConfig_WithThresholds(t *testing.T) {
	cfg := validStrategy()
	cfg.FeePerTrade = 0.5

	got := cfg.WithThresholds(GridCombination{Entry: 0.25, Exit: 0.03})
	assert.Equal(t, 0.25, got.EntryThreshold)
	assert.Equal(t, 0.03, got.ExitThreshold)
	assert.Equal(t, 0.5, got.FeePerTrade) // el resto se conserva
	require.NoError(t, got.Validate())
}

func TestSplitRatios_Validate(t *testing.T) {
	assert.NoError(t, SplitRatios{Train: 0.6, Validation: 0.2, Test: 0.2}.Validate())
	assert.Error(t, SplitRatios{Train: 0.6, Validation: 0.2, Test: 0.1}.Validate())
	assert.Error(t, SplitRatios{Train: 1.2, Validation: -0.1, Test: -0.1}.Validate())
}
