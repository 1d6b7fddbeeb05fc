package charts

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/wonny/dqbreaks/internal/contracts"
)

var pngMagic = []byte("\x89PNG")

func sampleDashboard() *contracts.Dashboard {
	return &contracts.Dashboard{
		GlobalHealth: []contracts.GlobalHealth{
			{Status: contracts.StatusPassing, Count: 2, Ratio: 0.5},
			{Status: contracts.StatusBreaking, Count: 1, Ratio: 0.25},
			{Status: contracts.StatusException, Count: 1, Ratio: 0.25},
		},
		TimeSeries: []contracts.TimeSeriesPoint{
			{Status: contracts.StatusPassing, Count: 2, RunDate: day("2024-03-01")},
			{Status: contracts.StatusPassing, Count: 4, RunDate: day("2024-03-02")},
			{Status: contracts.StatusBreaking, Count: 1, RunDate: day("2024-03-02")},
		},
		Dimensions: []contracts.Breakdown{
			{GroupKey: "UNSPECIFIED", Status: contracts.StatusPassing, Count: 2},
			{GroupKey: "Completeness", Status: contracts.StatusBreaking, Count: 1},
		},
		BusinessUnits: []contracts.Breakdown{
			{GroupKey: "Finance", Status: contracts.StatusException, Count: 1},
		},
	}
}

func TestParseKindAndFormat(t *testing.T) {
	k, err := ParseKind("Business-Units")
	require.NoError(t, err)
	assert.Equal(t, KindBusinessUnits, k)

	_, err = ParseKind("radar")
	assert.Error(t, err)

	f, err := ParseFormat("PNG")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)
	assert.Equal(t, "image/png", f.ContentType())
	assert.Equal(t, "image/svg+xml", FormatSVG.ContentType())

	_, err = ParseFormat("gif")
	assert.Error(t, err)
}

func TestRenderEveryKind(t *testing.T) {
	d := sampleDashboard()
	for _, kind := range Kinds {
		t.Run(string(kind)+"/svg", func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, kind, d, FormatSVG))
			assert.Contains(t, buf.String(), "<svg")
		})
		t.Run(string(kind)+"/png", func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, kind, d, FormatPNG))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
		})
	}
}

func TestRenderEmptyDashboardIsPlaceholder(t *testing.T) {
	empty := &contracts.Dashboard{
		GlobalHealth: []contracts.GlobalHealth{},
	}
	for _, kind := range Kinds {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, kind, empty, FormatSVG), kind)
		assert.Contains(t, buf.String(), placeholder, kind)
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, KindHealth, nil, FormatPNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderAllZeroHealthIsPlaceholder(t *testing.T) {
	d := &contracts.Dashboard{GlobalHealth: []contracts.GlobalHealth{
		{Status: contracts.StatusPassing}, {Status: contracts.StatusBreaking}, {Status: contracts.StatusException},
	}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, KindHealth, d, FormatSVG))
	assert.Contains(t, buf.String(), placeholder)
}

func TestRenderSingleDateSeries(t *testing.T) {
	d := &contracts.Dashboard{TimeSeries: []contracts.TimeSeriesPoint{
		{Status: contracts.StatusPassing, Count: 3, RunDate: day("2024-03-01")},
	}}

	for _, f := range []Format{FormatSVG, FormatPNG} {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, KindTimeSeries, d, f), f)
		assert.NotContains(t, buf.String(), placeholder, f)
	}
}

func TestRenderBarsWithUnequalTotals(t *testing.T) {
	d := &contracts.Dashboard{
		Dimensions: []contracts.Breakdown{
			{GroupKey: "UNSPECIFIED", Status: contracts.StatusPassing, Count: 2},
			{GroupKey: "Completeness", Status: contracts.StatusBreaking, Count: 1},
		},
		BusinessUnits: []contracts.Breakdown{
			{GroupKey: "Global Markets Operations and Reference Data", Status: contracts.StatusPassing, Count: 40},
			{GroupKey: "Finance", Status: contracts.StatusBreaking, Count: 3},
			{GroupKey: "Finance", Status: contracts.StatusException, Count: 1},
			{GroupKey: "HR", Status: contracts.StatusBreaking, Count: 7},
		},
	}

	for _, kind := range []Kind{KindDimensions, KindBusinessUnits} {
		var png bytes.Buffer
		require.NoError(t, Render(&png, kind, d, FormatPNG), kind)
		assert.True(t, bytes.HasPrefix(png.Bytes(), pngMagic), kind)

		var svg bytes.Buffer
		require.NoError(t, Render(&svg, kind, d, FormatSVG), kind)
		assert.Contains(t, svg.String(), "<svg", kind)
	}
}

func TestRenderManyBarsWidensCanvas(t *testing.T) {
	var rows []contracts.Breakdown
	for i := 0; i < 30; i++ {
		rows = append(rows, contracts.Breakdown{GroupKey: fmt.Sprintf("unit-%02d", i), Status: contracts.StatusPassing, Count: int64(i + 1)})
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, KindBusinessUnits, &contracts.Dashboard{BusinessUnits: rows}, FormatPNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestFitLabel(t *testing.T) {
	font, err := chart.GetDefaultFont()
	require.NoError(t, err)
	r, err := chart.SVG(200, 100)
	require.NoError(t, err)
	r.SetFont(font)
	r.SetFontSize(chart.DefaultAxisFontSize)

	assert.Equal(t, "HR", fitLabel(r, "HR", 76))

	long := fitLabel(r, "Global Markets Operations and Reference Data", 76)
	assert.True(t, strings.HasSuffix(long, ".."), long)
	assert.LessOrEqual(t, r.MeasureText(long).Width(), 76)
}

func TestRenderUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, Kind("radar"), sampleDashboard(), FormatSVG))
}
