package report

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestBuckets(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		to     string
		g      Granularity
		labels []string
		first  string
		end    string
	}{
		{
			name:   "MonthlyClipped",
			from:   "2024-01-15",
			to:     "2024-03-10",
			g:      Monthly,
			labels: []string{"2024-01", "2024-02", "2024-03"},
			first:  "2024-01-15",
			end:    "2024-03-11",
		},
		{
			name:   "SingleDay",
			from:   "2024-02-29",
			to:     "2024-02-29",
			g:      Monthly,
			labels: []string{"2024-02"},
			first:  "2024-02-29",
			end:    "2024-03-01",
		},
		{
			name:   "Quarterly",
			from:   "2023-11-01",
			to:     "2024-06-30",
			g:      Quarterly,
			labels: []string{"2023-Q4", "2024-Q1", "2024-Q2"},
			first:  "2023-11-01",
			end:    "2024-07-01",
		},
		{
			name:   "Yearly",
			from:   "2022-01-01",
			to:     "2024-12-31",
			g:      Yearly,
			labels: []string{"2022", "2023", "2024"},
			first:  "2022-01-01",
			end:    "2025-01-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets, err := Buckets(dateRange(tt.from, tt.to), tt.g)
			assert.NoError(t, err)

			labels := make([]string, len(buckets))
			for i, b := range buckets {
				labels[i] = b.Label
			}
			assert.Equal(t, tt.labels, labels)
			assert.Equal(t, tt.first, buckets[0].Start.String())
			assert.Equal(t, tt.end, buckets[len(buckets)-1].End.String())

			for i := 1; i < len(buckets); i++ {
				assert.True(t, buckets[i-1].End.Equal(buckets[i].Start), "gap before %s", buckets[i].Label)
			}
		})
	}
}

func TestBucketsRejectInvertedRange(t *testing.T) {
	_, err := Buckets(dateRange("2024-02-01", "2024-01-01"), Monthly)
	assert.Error(t, err)
}

func TestBucketOf(t *testing.T) {
	b := BucketOf(date("2024-08-17"), Quarterly)
	assert.Equal(t, "2024-Q3", b.Label)
	assert.Equal(t, "2024-07-01", b.Start.String())
	assert.Equal(t, "2024-10-01", b.End.String())
	assert.Equal(t, "2024-09-30", b.Last().String())
	assert.True(t, b.Contains(date("2024-09-30")))
	assert.False(t, b.Contains(date("2024-10-01")))
}

func TestLocate(t *testing.T) {
	buckets, err := Buckets(dateRange("2024-01-10", "2024-04-20"), Monthly)
	assert.NoError(t, err)
	assert.Equal(t, -1, locate(buckets, date("2024-01-09")))
	assert.Equal(t, 0, locate(buckets, date("2024-01-10")))
	assert.Equal(t, 1, locate(buckets, date("2024-02-29")))
	assert.Equal(t, 3, locate(buckets, date("2024-04-20")))
	assert.Equal(t, -1, locate(buckets, date("2024-04-21")))
}

func TestParseGranularity(t *testing.T) {
	for input, want := range map[string]Granularity{
		"monthly": Monthly,
		"Q":       Quarterly,
		"quarter": Quarterly,
		" year ":  Yearly,
		"annual":  Yearly,
	} {
		got, err := ParseGranularity(input)
		assert.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseGranularity("weekly")
	assert.EqualError(t, err, `invalid granularity "weekly": expected monthly, quarterly or yearly`)

	var g Granularity
	assert.NoError(t, g.UnmarshalText([]byte("quarterly")))
	assert.Equal(t, "quarterly", g.String())
}

func TestGranularityMonths(t *testing.T) {
	assert.Equal(t, 1, Monthly.Months())
	assert.Equal(t, 3, Quarterly.Months())
	assert.Equal(t, 12, Yearly.Months())
	assert.Equal(t, date("2023-12-31"), Quarterly.Add(date("2024-03-31"), -1))
	assert.Equal(t, date("2025-01-01"), Yearly.Add(date("2024-01-01"), 1))
}
