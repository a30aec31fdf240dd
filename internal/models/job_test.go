package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to JobStatus
		ok       bool
	}{
		{JobDiscussion, JobDiscussion, true},
		{JobDiscussion, JobQuoted, true},
		{JobDiscussion, JobInProgress, true},
		{JobDiscussion, JobCompleted, false},
		{JobDiscussion, JobCancelled, true},
		{JobAccepted, JobQuoted, false},
		{JobInProgress, JobReview, true},
		{JobReview, JobInProgress, true},
		{JobReview, JobCompleted, true},
		{JobInProgress, JobCompleted, false},
		{JobCompleted, JobCancelled, false},
		{JobCompleted, JobCompleted, true},
		{JobCancelled, JobDiscussion, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestParseJobStatus(t *testing.T) {
	st, err := ParseJobStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, JobInProgress, st)

	_, err = ParseJobStatus("done")
	assert.Error(t, err)
}

func TestPriceRendersAsNumber(t *testing.T) {
	d := Dataset{Price: decimal.RequireFromString("49.99")}
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":49.99`)

	var back Dataset
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Price.Equal(decimal.RequireFromString("49.99")))
}

func TestJobParticipants(t *testing.T) {
	provider := "p1"
	j := Job{ClientID: "c1", ProviderID: &provider}
	assert.True(t, j.IsParticipant("c1"))
	assert.True(t, j.IsParticipant("p1"))
	assert.False(t, j.IsParticipant("x"))
}

func TestMoneyRejectsSubCentAmounts(t *testing.T) {
	for _, in := range []string{"49.999", "0.001", "10.125"} {
		v := decimal.RequireFromString(in)
		_, err := Money("price", &v)
		assert.ErrorContains(t, err, "price must have at most two decimal places", in)
	}

	for in, want := range map[string]string{"49.99": "49.99", "50": "50", "49.990": "49.99", "0": "0"} {
		v := decimal.RequireFromString(in)
		got, err := Money("price", &v)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%s -> %s", in, got)
	}

	neg := decimal.RequireFromString("-1")
	_, err := Money("price", &neg)
	assert.Error(t, err)

	_, err = Money("price", nil)
	assert.ErrorContains(t, err, "price is required")
}
