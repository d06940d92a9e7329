package analysis

import (
	"testing"

	"github.com/seqlabs/genoportal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyOutputs_PrefersHTMLExtension(t *testing.T) {
	outputs := []models.OutputRef{
		{ID: "out-1", Name: "raw data", FileExt: "txt"},
		{ID: "out-2", Name: "report", FileExt: "html"},
	}

	c, ok := ClassifyOutputs(outputs)
	require.True(t, ok)
	assert.Equal(t, "out-2", c.GalaxyOutputID)
	assert.Equal(t, models.OutputTypeHTML, c.OutputType)
}

func TestClassifyOutputs_MatchesByName(t *testing.T) {
	tests := []struct {
		name   string
		output models.OutputRef
	}{
		{"webpage substring", models.OutputRef{ID: "o", Name: "FastQC Webpage", FileExt: "data"}},
		{"fastqc substring", models.OutputRef{ID: "o", Name: "FastQC on data 1", FileExt: "data"}},
		{"case insensitive", models.OutputRef{ID: "o", Name: "WEBPAGE output", FileExt: "data"}},
		{"html_file extension", models.OutputRef{ID: "o", Name: "anything", FileExt: "html_file"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := ClassifyOutputs([]models.OutputRef{tt.output})
			require.True(t, ok)
			assert.Equal(t, models.OutputTypeHTML, c.OutputType)
		})
	}
}

func TestClassifyOutputs_FallsBackToFirst(t *testing.T) {
	outputs := []models.OutputRef{
		{ID: "out-1", Name: "alignment", FileExt: "txt"},
		{ID: "out-2", Name: "stats", FileExt: "txt"},
	}

	c, ok := ClassifyOutputs(outputs)
	require.True(t, ok)
	assert.Equal(t, "out-1", c.GalaxyOutputID)
	assert.Equal(t, models.OutputTypeUnknown, c.OutputType)
}

func TestClassifyOutputs_EmptyYieldsNothing(t *testing.T) {
	_, ok := ClassifyOutputs(nil)
	assert.False(t, ok)

	_, ok = ClassifyOutputs([]models.OutputRef{})
	assert.False(t, ok)
}

func TestClassifyOutputs_Deterministic(t *testing.T) {
	outputs := []models.OutputRef{
		{ID: "a", Name: "x", FileExt: "txt"},
		{ID: "b", Name: "y", FileExt: "html"},
		{ID: "c", Name: "fastqc report", FileExt: "txt"},
	}

	first, ok := ClassifyOutputs(outputs)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := ClassifyOutputs(outputs)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
	// First match wins even with a later candidate present.
	assert.Equal(t, "b", first.GalaxyOutputID)
}
