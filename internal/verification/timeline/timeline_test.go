package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pastmatters/internal/verification/models"
)

func change(date, prev, next string) models.StatusChange {
	return models.StatusChange{Date: date, PreviousStatus: prev, NewStatus: next}
}

func TestMergeOrdersNewestFirst(t *testing.T) {
	profiles := []models.ProfileRecord{
		{Platform: "Facebook", StatusHistory: []models.StatusChange{
			change("2021-05-01", "Single", "In a relationship"),
			change("2023-02-14", "In a relationship", "Married"),
		}},
		{Platform: "Shaadi", StatusHistory: []models.StatusChange{
			change("2022-08-30", "Active", "Inactive"),
		}},
	}

	got := Merge(profiles)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"2023-02-14", "2022-08-30", "2021-05-01"},
		[]string{got[0].Date, got[1].Date, got[2].Date})
	assert.Equal(t, "Facebook", got[0].Platform)
	assert.Equal(t, "Shaadi", got[1].Platform)
	assert.Equal(t, "Married", got[0].NewStatus)
}

func TestMergeUndatedEventsSortLastInInputOrder(t *testing.T) {
	profiles := []models.ProfileRecord{
		{Platform: "A", StatusHistory: []models.StatusChange{
			change("", "x", "first-undated"),
			change("2020-01-01", "x", "dated-old"),
		}},
		{Platform: "B", StatusHistory: []models.StatusChange{
			change("last spring", "x", "second-undated"),
			change("2024-03-03", "x", "dated-new"),
			change("2024-13-45", "x", "third-undated"),
		}},
	}

	got := Merge(profiles)

	var order []string
	for _, e := range got {
		order = append(order, e.NewStatus)
	}
	assert.Equal(t, []string{"dated-new", "dated-old", "first-undated", "second-undated", "third-undated"}, order)
	assert.Equal(t, "last spring", got[3].Date, "original date text is preserved")
}

func TestMergeEqualDatesAreStable(t *testing.T) {
	profiles := []models.ProfileRecord{
		{Platform: "Tinder", StatusHistory: []models.StatusChange{change("2022-01-01", "Active", "Paused")}},
		{Platform: "Bumble", StatusHistory: []models.StatusChange{change("2022-01-01", "Active", "Deleted")}},
	}

	got := Merge(profiles)
	assert.Equal(t, "Tinder", got[0].Platform)
	assert.Equal(t, "Bumble", got[1].Platform)
}

func TestMergeIsDeterministic(t *testing.T) {
	profiles := []models.ProfileRecord{
		{Platform: "A", StatusHistory: []models.StatusChange{change("", "a", "b"), change("2019-01-01", "b", "c")}},
		{Platform: "B", StatusHistory: []models.StatusChange{change("2019-01-01", "c", "d"), change("", "d", "e")}},
	}
	first := Merge(profiles)
	for range 10 {
		assert.Equal(t, first, Merge(profiles))
	}
}

func TestMergeEmpty(t *testing.T) {
	got := Merge(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
