package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskIDs(t *testing.T) {
	assert.Equal(t, []int{0}, TaskIDs(1, false))
	assert.Equal(t, []int{0, 1, 2}, TaskIDs(3, false))
	assert.Equal(t, []int{0}, TaskIDs(25, true))
	assert.Equal(t, []int{0}, TaskIDs(0, false))
}

func TestAggregateAllSucceeded(t *testing.T) {
	requested := TaskIDs(3, false)
	results := []DispatchResult{
		{TaskID: 0, Status: 0},
		{TaskID: 1, Status: 0},
		{TaskID: 2, Status: 0},
	}

	assert.Nil(t, Aggregate(requested, results, "run"))
}

func TestAggregateNamesEveryFailure(t *testing.T) {
	requested := TaskIDs(4, false)
	results := []DispatchResult{
		{TaskID: 3, Status: 2},
		{TaskID: 0, Status: 0},
		{TaskID: 1, Status: 1},
		{TaskID: 2, Status: 0},
	}

	report := Aggregate(requested, results, "run-call")
	require.NotNil(t, report)
	assert.Equal(t, []int{1, 3}, report.TaskIDs)
	assert.Equal(t, "run-call", report.RunCall)
	assert.Contains(t, report.Error(), "[1 3]")
	assert.Contains(t, report.Error(), "run-call")
}

func TestAggregateMissingResultIsFailure(t *testing.T) {
	requested := TaskIDs(3, false)
	results := []DispatchResult{
		{TaskID: 0, Status: 0},
		{TaskID: 2, Status: 0},
	}

	report := Aggregate(requested, results, "run")
	require.NotNil(t, report)
	assert.Equal(t, []int{1}, report.TaskIDs)
}

func TestAggregateIndeterminateIsFailure(t *testing.T) {
	requested := TaskIDs(2, false)
	results := []DispatchResult{
		{TaskID: 0, Status: 0},
		{TaskID: 1, Status: StatusIndeterminate},
	}

	report := Aggregate(requested, results, "run")
	require.NotNil(t, report)
	assert.Equal(t, []int{1}, report.TaskIDs)
}

func TestLaunchErrorUnwraps(t *testing.T) {
	inner := assert.AnError
	lerr := &LaunchError{TaskID: 4, Err: inner}

	assert.ErrorIs(t, lerr, inner)
	assert.Contains(t, lerr.Error(), "task 4")
}
