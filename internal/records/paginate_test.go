package records

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/dqbreaks/internal/contracts"
)

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		in           PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"defaults kept", PageRequest{Page: 2, PageSize: 100}, 2, 100},
		{"page below one", PageRequest{Page: 0, PageSize: 10}, 1, 10},
		{"negative page", PageRequest{Page: -4, PageSize: 10}, 1, 10},
		{"page size below one", PageRequest{Page: 1, PageSize: 0}, 1, 1},
		{"page size above max", PageRequest{Page: 1, PageSize: 5000}, 1, 1000},
		{"page past the end is kept", PageRequest{Page: 999, PageSize: 10}, 999, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize(1000)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPageSize, got.PageSize)
		})
	}
}

func TestNormalizeTrimsDataset(t *testing.T) {
	got := PageRequest{Dataset: "  D1 ", Page: 1, PageSize: 1}.Normalize(10)
	assert.Equal(t, "D1", got.Dataset)
}

func TestDistinctDatasets(t *testing.T) {
	runs := []contracts.DatasetRun{
		{Dataset: "orders"},
		{Dataset: "accounts"},
		{Dataset: "orders"},
		{Dataset: ""},
		{Dataset: "ledger"},
	}

	assert.Equal(t, []string{"accounts", "ledger", "orders"}, DistinctDatasets(runs))
	assert.Empty(t, DistinctDatasets(nil))
}
