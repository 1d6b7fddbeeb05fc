package charts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dqbreaks/internal/contracts"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestColor(t *testing.T) {
	assert.Equal(t, "#4caf50", Color(contracts.StatusPassing))
	assert.Equal(t, "#f44336", Color(contracts.StatusBreaking))
	assert.Equal(t, "#ff9800", Color(contracts.StatusException))
	assert.Equal(t, "#9e9e9e", Color(contracts.StatusUnknown))
	assert.Equal(t, "#9e9e9e", Color("SOMETHING"))
}

func TestPieSlicesStatusOrder(t *testing.T) {
	slices := PieSlices([]contracts.GlobalHealth{
		{Status: contracts.StatusException, Count: 1, Ratio: 0.25},
		{Status: contracts.StatusPassing, Count: 2, Ratio: 0.5},
		{Status: contracts.StatusBreaking, Count: 1, Ratio: 0.25},
	})

	require.Len(t, slices, 3)
	assert.Equal(t, contracts.StatusPassing, slices[0].Status)
	assert.Equal(t, contracts.StatusBreaking, slices[1].Status)
	assert.Equal(t, contracts.StatusException, slices[2].Status)
	assert.Equal(t, "#4caf50", slices[0].Color)
	assert.InDelta(t, 0.5, slices[0].Ratio, 1e-9)
}

func TestTimeSeriesLinesOnlyObservedDates(t *testing.T) {
	points := []contracts.TimeSeriesPoint{
		{Status: contracts.StatusBreaking, Count: 3, RunDate: day("2024-03-02")},
		{Status: contracts.StatusPassing, Count: 5, RunDate: day("2024-03-01")},
		{Status: contracts.StatusPassing, Count: 7, RunDate: day("2024-03-02")},
	}

	lines := TimeSeriesLines(points, OrderChart)
	require.Len(t, lines, 2)

	assert.Equal(t, contracts.StatusPassing, lines[0].Status)
	require.Len(t, lines[0].Points, 2)
	assert.Equal(t, "3/1/2024", lines[0].Points[0].Label)
	assert.Equal(t, int64(5), lines[0].Points[0].Count)
	assert.Equal(t, "3/2/2024", lines[0].Points[1].Label)

	// BREAKING has no point on 3/1
	assert.Equal(t, contracts.StatusBreaking, lines[1].Status)
	require.Len(t, lines[1].Points, 1)
	assert.Equal(t, "3/2/2024", lines[1].Points[0].Label)
}

func TestTimeSeriesLinesMergesSameDateAcrossZones(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	points := []contracts.TimeSeriesPoint{
		{Status: contracts.StatusPassing, Count: 2, RunDate: day("2024-03-01")},
		{Status: contracts.StatusPassing, Count: 3, RunDate: time.Date(2024, 3, 1, 0, 0, 0, 0, seoul)},
		{Status: contracts.StatusPassing, Count: 1, RunDate: time.Date(2024, 3, 1, 15, 30, 0, 0, time.Local)},
	}

	lines := TimeSeriesLines(points, OrderChart)
	require.Len(t, lines, 1)
	require.Len(t, lines[0].Points, 1)
	assert.Equal(t, int64(6), lines[0].Points[0].Count)
	assert.Equal(t, "3/1/2024", lines[0].Points[0].Label)
	assert.Equal(t, day("2024-03-01"), lines[0].Points[0].Date)
}

func TestTimeSeriesLinesTableOrderAndDuplicates(t *testing.T) {
	points := []contracts.TimeSeriesPoint{
		{Status: contracts.StatusPassing, Count: 1, RunDate: day("2024-03-01")},
		{Status: contracts.StatusPassing, Count: 2, RunDate: day("2024-03-03")},
		{Status: contracts.StatusPassing, Count: 4, RunDate: day("2024-03-03")},
	}

	lines := TimeSeriesLines(points, OrderTable)
	require.Len(t, lines, 1)
	require.Len(t, lines[0].Points, 2)
	assert.Equal(t, "3/3/2024", lines[0].Points[0].Label)
	assert.Equal(t, int64(6), lines[0].Points[0].Count)
	assert.Equal(t, "3/1/2024", lines[0].Points[1].Label)
}

func TestStackedBarsFillsMissingSegments(t *testing.T) {
	rows := []contracts.Breakdown{
		{GroupKey: "Finance", Status: contracts.StatusBreaking, Count: 2},
		{GroupKey: "Ops", Status: contracts.StatusPassing, Count: 10},
		{GroupKey: "", Status: contracts.StatusPassing, Count: 99},
		{GroupKey: "Finance", Status: contracts.StatusPassing, Count: 1},
	}

	bars := StackedBars(rows, OrderChart)
	require.Len(t, bars, 2)

	// chart order: total descending
	assert.Equal(t, "Ops", bars[0].Key)
	assert.Equal(t, int64(10), bars[0].Total)
	assert.Equal(t, "Finance", bars[1].Key)
	assert.Equal(t, int64(3), bars[1].Total)

	for _, b := range bars {
		require.Len(t, b.Segments, 3)
		assert.Equal(t, contracts.StatusPassing, b.Segments[0].Status)
		assert.Equal(t, contracts.StatusBreaking, b.Segments[1].Status)
		assert.Equal(t, contracts.StatusException, b.Segments[2].Status)
	}
	assert.Equal(t, int64(0), bars[0].Segments[1].Count)
	assert.Equal(t, int64(2), bars[1].Segments[1].Count)
}

func TestStackedBarsUnknownSegmentOnlyWhenPresent(t *testing.T) {
	rows := []contracts.Breakdown{
		{GroupKey: "A", Status: contracts.StatusUnknown, Count: 1},
		{GroupKey: "B", Status: contracts.StatusPassing, Count: 1},
	}

	bars := StackedBars(rows, OrderTable)
	require.Len(t, bars, 2)
	assert.Equal(t, "A", bars[0].Key)
	assert.Equal(t, "B", bars[1].Key)
	for _, b := range bars {
		require.Len(t, b.Segments, 4)
		assert.Equal(t, contracts.StatusUnknown, b.Segments[3].Status)
	}
}

func TestBuild(t *testing.T) {
	d := &contracts.Dashboard{
		GlobalHealth: []contracts.GlobalHealth{{Status: contracts.StatusPassing, Count: 1, Ratio: 1}},
		Dimensions:   []contracts.Breakdown{{GroupKey: "UNSPECIFIED", Status: contracts.StatusPassing, Count: 1}},
	}

	set := Build(d, OrderTable)
	assert.Equal(t, OrderTable, set.Order)
	assert.Len(t, set.Health, 1)
	assert.Empty(t, set.TimeSeries)
	assert.Len(t, set.Dimensions, 1)
	assert.Empty(t, set.BusinessUnits)
}
