package opportunity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsGolden(t *testing.T) {
	testCases := []struct {
		demand int
		count  int64
		golden bool
	}{
		{demand: 61, count: 1, golden: true},
		{demand: 100, count: 4_999_999, golden: true},
		{demand: 60, count: 1000, golden: false},
		{demand: 61, count: 5_000_000, golden: false},
		{demand: 99, count: 0, golden: false},
		{demand: 0, count: 0, golden: false},
		{demand: 75, count: 1_200_000, golden: true},
		{demand: 90, count: 80_000_000, golden: false},
	}

	for _, test := range testCases {
		t.Run(fmt.Sprintf("%d/%d", test.demand, test.count), func(t *testing.T) {
			rec := Record{DemandScore: test.demand, CompetitionCount: test.count}
			require.Equal(t, test.golden, IsGolden(rec, DefaultThresholds))
		})
	}
}

func TestIsGoldenCustomThresholds(t *testing.T) {
	thresholds := Thresholds{MinDemand: 10, MaxCompetition: 100}
	require.True(t, IsGolden(Record{DemandScore: 11, CompetitionCount: 99}, thresholds))
	require.False(t, IsGolden(Record{DemandScore: 11, CompetitionCount: 100}, thresholds))
	require.Error(t, Thresholds{MinDemand: 50}.Validate())
	require.NoError(t, DefaultThresholds.Validate())
}
