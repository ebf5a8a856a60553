// Package plot renders interning reports as interactive HTML bar charts.
package plot

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/symtab/internal/report"
)

const (
	xAxisRotate   = 60
	fullZoomPct   = 100
	labelFontSize = 10
	chartWidth    = "1200px"
	chartHeight   = "560px"
	barColor      = "#5470c6"
)

// ErrNilReport indicates a plot was requested without a report.
var ErrNilReport = errors.New("plot: nil report")

// GeneratePlot writes an interactive HTML bar chart of the most frequent
// tokens from an interning run.
func GeneratePlot(rep *report.Report, writer io.Writer) error {
	chart, err := GenerateChart(rep)
	if err != nil {
		return fmt.Errorf("generate chart: %w", err)
	}

	if r, ok := chart.(interface{ Render(io.Writer) error }); ok {
		err = r.Render(writer)
		if err != nil {
			return fmt.Errorf("render chart: %w", err)
		}

		return nil
	}

	return errors.New("chart does not support Render") //nolint:err113 // dynamic error
}

// GenerateChart creates the chart object from the report.
func GenerateChart(rep *report.Report) (components.Charter, error) {
	if rep == nil {
		return nil, ErrNilReport
	}

	if len(rep.Top) == 0 {
		return createEmptyChart(), nil
	}

	labels := make([]string, len(rep.Top))
	data := make([]opts.BarData, len(rep.Top))

	for i, tc := range rep.Top {
		labels[i] = tc.Text
		data[i] = opts.BarData{Value: tc.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Token Frequencies",
			Subtitle: chartSubtitle(rep),
			Left:     "2%",
		}),
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithGridOpts(opts.Grid{
			Top: "15%", Bottom: "18%", Left: "5%", Right: "5%",
			ContainLabel: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: fullZoomPct},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: xAxisRotate, Interval: "0", FontSize: labelFontSize},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Occurrences"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("Occurrences", data, charts.WithItemStyleOpts(opts.ItemStyle{Color: barColor}))

	return bar, nil
}

func chartSubtitle(rep *report.Report) string {
	return fmt.Sprintf(
		"%d tokens, %d unique (%s backend)",
		rep.Tokens, rep.UniqueStrings, rep.Backend,
	)
}

func createEmptyChart() *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Token Frequencies",
			Subtitle: "No data (empty corpus or frequencies not collected)",
		}),
	)
	bar.SetXAxis([]string{})

	return bar
}
