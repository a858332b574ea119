package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRisk_Priority(t *testing.T) {
	assert.Greater(t, RiskHigh.Priority(), RiskElevated.Priority())
	assert.Greater(t, RiskElevated.Priority(), RiskLow.Priority())
	assert.Equal(t, 0, Risk("critical").Priority())
}

func TestParseRisk(t *testing.T) {
	r, err := ParseRisk("elevated")
	require.NoError(t, err)
	assert.Equal(t, RiskElevated, r)

	_, err = ParseRisk("HIGH")
	assert.Error(t, err)
}

func TestNewCatalog_PreservesOrder(t *testing.T) {
	c, err := NewCatalog([]Record{
		{Name: "b", Risk: RiskLow, Keywords: []string{"bee"}, Title: "B"},
		{Name: "a", Risk: RiskHigh, Keywords: []string{"ay"}, Title: "A"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, "b", c.At(0).Name)
	assert.Equal(t, "a", c.At(1).Name)
}

func TestNewCatalog_Validation(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		wantMsg string
	}{
		{
			name: "duplicate name",
			records: []Record{
				{Name: "x", Risk: RiskLow, Keywords: []string{"a"}, Title: "X"},
				{Name: "x", Risk: RiskLow, Keywords: []string{"b"}, Title: "X"},
			},
			wantMsg: "duplicate name",
		},
		{
			name:    "no patterns",
			records: []Record{{Name: "x", Risk: RiskLow, Title: "X"}},
			wantMsg: "at least one pattern",
		},
		{
			name:    "empty pattern",
			records: []Record{{Name: "x", Risk: RiskLow, Keywords: []string{"  "}, Title: "X"}},
			wantMsg: "empty pattern",
		},
		{
			name:    "unknown risk",
			records: []Record{{Name: "x", Risk: "severe", Keywords: []string{"a"}, Title: "X"}},
			wantMsg: "unknown risk",
		},
		{
			name:    "bad regex",
			records: []Record{{Name: "x", Risk: RiskLow, Keywords: []string{"re:(unclosed"}, Title: "X"}},
			wantMsg: "compile",
		},
		{
			name:    "missing title",
			records: []Record{{Name: "x", Risk: RiskLow, Keywords: []string{"a"}}},
			wantMsg: "title must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCatalog(tt.records)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Contains(t, err.Error(), tt.wantMsg)

			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestRule_Matches(t *testing.T) {
	c, err := NewCatalog([]Record{
		{Name: "lit", Risk: RiskLow, Keywords: []string{"Sore Throat"}, Title: "T"},
		{Name: "re", Risk: RiskLow, Keywords: []string{`re:chest\s+hurts`}, Title: "T"},
		{Name: "or", Risk: RiskLow, Keywords: []string{"alpha", "beta"}, Title: "T"},
	})
	require.NoError(t, err)

	assert.True(t, c.At(0).Matches(Fold("I have a SORE THROAT")))
	assert.False(t, c.At(0).Matches(Fold("sore")))
	assert.True(t, c.At(1).Matches(Fold("my chest   hurts")))
	assert.True(t, c.At(1).Matches(Fold("MY CHEST HURTS")))
	assert.True(t, c.At(2).Matches("beta only"))
	assert.False(t, c.At(2).Matches("gamma"))
}

func TestCatalog_RecordsRoundTrip(t *testing.T) {
	in := []Record{{Name: "x", Risk: RiskElevated, Keywords: []string{"a", "re:b+"}, Title: "X", Message: "m"}}
	c, err := NewCatalog(in)
	require.NoError(t, err)
	assert.Equal(t, in, c.Records())

	out := c.Records()
	out[0].Keywords[0] = "mutated"
	assert.Equal(t, "a", c.At(0).Patterns[0])
}

func TestCatalog_Counts(t *testing.T) {
	counts := Default().Counts()
	assert.Len(t, counts, 3)
	assert.Positive(t, counts[RiskHigh])
	assert.Positive(t, counts[RiskElevated])
	assert.Positive(t, counts[RiskLow])
}

func TestEmpty(t *testing.T) {
	assert.Equal(t, 0, Empty().Len())
	assert.Empty(t, Empty().Records())

	var nilCatalog *Catalog
	assert.Equal(t, 0, nilCatalog.Len())
}

func TestCatalog_RulesIsCopy(t *testing.T) {
	c := Default()
	rs := c.Rules()
	require.Equal(t, c.Len(), len(rs))

	rs[0].Name = "changed"
	rs[0].Patterns[0] = "changed"
	assert.NotEqual(t, "changed", c.At(0).Name)
	assert.NotEqual(t, "changed", c.At(0).Patterns[0])
}
