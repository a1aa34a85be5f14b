package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortscript-api/internal/domain/entity"
)

func TestSectionWordsWithinTwoOfTotal(t *testing.T) {
	for _, d := range SupportedDurations() {
		m, ok := Lookup(d)
		require.True(t, ok, d)

		diff := m.SectionWords() - m.TotalWords
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, 2, "duration %s", d)
	}
}

func TestTotalsFollowSpeakingRate(t *testing.T) {
	for _, m := range All() {
		expected := int(float64(m.Duration.Seconds())*WordsPerSecond + 0.5)
		assert.Equal(t, expected, m.TotalWords, "duration %s", m.Duration)
		assert.Equal(t, m.Duration.Seconds(), m.Hook.Seconds+m.Bridge.Seconds+m.Nugget.Seconds+m.WTA.Seconds)
	}
}

func TestLookup(t *testing.T) {
	m, ok := Lookup(entity.Duration30)
	require.True(t, ok)
	assert.Equal(t, 66, m.TotalWords)
	assert.Equal(t, 31, m.Nugget.Words)

	_, ok = Lookup("25")
	assert.False(t, ok)
}

func TestAllReturnsCopy(t *testing.T) {
	rows := All()
	rows[0].TotalWords = 0

	m, _ := Lookup(entity.Duration15)
	assert.Equal(t, 33, m.TotalWords)
}

func TestRange(t *testing.T) {
	m, _ := Lookup(entity.Duration30)
	lo, hi := m.Range(0.2)
	assert.Equal(t, 52, lo)
	assert.Equal(t, 80, hi)
}

func TestEstimateSeconds(t *testing.T) {
	assert.InDelta(t, 30.0, EstimateSeconds(66), 0.001)
	assert.InDelta(t, 0.0, EstimateSeconds(0), 0.001)
}
