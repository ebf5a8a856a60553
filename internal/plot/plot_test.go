package plot

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/symtab/internal/report"
)

func sampleReport() *report.Report {
	return &report.Report{
		Backend:       "bucket",
		Tokens:        12,
		UniqueStrings: 3,
		Top: []report.TokenCount{
			{Text: "err", Count: 7},
			{Text: "ctx", Count: 3},
			{Text: "ok", Count: 2},
		},
	}
}

func TestGenerateChart_WithData(t *testing.T) {
	t.Parallel()

	chart, err := GenerateChart(sampleReport())
	require.NoError(t, err)
	require.NotNil(t, chart)
}

func TestGenerateChart_Empty(t *testing.T) {
	t.Parallel()

	chart, err := GenerateChart(&report.Report{})
	require.NoError(t, err)
	require.NotNil(t, chart) // Returns empty chart.
}

func TestGenerateChart_NilReport(t *testing.T) {
	t.Parallel()

	_, err := GenerateChart(nil)
	require.ErrorIs(t, err, ErrNilReport)
}

func TestGeneratePlot_WithData(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := GeneratePlot(sampleReport(), &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Token Frequencies")
	assert.Contains(t, buf.String(), "err")
}

func TestGeneratePlot_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := GeneratePlot(&report.Report{}, &buf)
	require.NoError(t, err)
	assert.Positive(t, buf.Len())
}

func TestGeneratePlot_NilReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := GeneratePlot(nil, &buf)
	require.ErrorIs(t, err, ErrNilReport)
}
