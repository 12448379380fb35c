package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopN_Ordering(t *testing.T) {
	records := []Record{
		{Row: 0, Location: "a", Severity: 3, CaseCount: 22},
		{Row: 1, Location: "b", Severity: 5, CaseCount: 44},
		{Row: 2, Location: "c", Severity: 4, CaseCount: 38},
		{Row: 3, Location: "d", Severity: 5, CaseCount: 45},
		{Row: 4, Location: "e", Severity: 3, CaseCount: 22},
		{Row: 5, Location: "f", Severity: 4, CaseCount: 40},
	}

	top := TopN(records, 0)

	require.Len(t, top, len(records))
	got := make([]string, len(top))
	for i, r := range top {
		got[i] = r.Location
	}
	assert.Equal(t, []string{"d", "b", "f", "c", "a", "e"}, got)

	for i := 1; i < len(top); i++ {
		prev, cur := top[i-1], top[i]
		ordered := prev.Severity > cur.Severity ||
			(prev.Severity == cur.Severity && prev.CaseCount >= cur.CaseCount)
		assert.True(t, ordered, "pair %d out of order: %+v then %+v", i, prev, cur)
	}
}

func TestTopN_LimitAndNoMutation(t *testing.T) {
	records := []Record{
		{Location: "low", Severity: 1, CaseCount: 5},
		{Location: "high", Severity: 5, CaseCount: 50},
		{Location: "mid", Severity: 3, CaseCount: 25},
	}

	top := TopN(records, 2)

	require.Len(t, top, 2)
	assert.Equal(t, "high", top[0].Location)
	assert.Equal(t, "mid", top[1].Location)
	assert.Equal(t, "low", records[0].Location, "input must not be reordered")
}

func TestTopN_Empty(t *testing.T) {
	top := TopN(nil, 10)
	assert.NotNil(t, top)
	assert.Empty(t, top)
}
