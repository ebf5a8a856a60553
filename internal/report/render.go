package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/symtab/pkg/safeconv"
)

// percentScale converts a 0..1 ratio to a percentage.
const percentScale = 100

// Render writes the report to w in the requested format.
func Render(w io.Writer, r *Report, format string) error {
	normalized, err := ValidateFormat(format)
	if err != nil {
		return err
	}

	switch normalized {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		encodeErr := encoder.Encode(r)
		if encodeErr != nil {
			return fmt.Errorf("encode report json: %w", encodeErr)
		}

		return nil
	case FormatYAML:
		data, marshalErr := yaml.Marshal(r)
		if marshalErr != nil {
			return fmt.Errorf("encode report yaml: %w", marshalErr)
		}

		_, writeErr := w.Write(data)
		if writeErr != nil {
			return fmt.Errorf("write report yaml: %w", writeErr)
		}

		return nil
	default:
		return renderTable(w, r)
	}
}

// renderTable writes the human-readable summary table plus the top-token
// table when frequencies were collected.
func renderTable(w io.Writer, r *Report) error {
	var sb strings.Builder

	header := color.New(color.FgCyan, color.Bold)

	_, _ = header.Fprintln(&sb, "Interning summary")

	sb.WriteString(summaryTable(r))
	sb.WriteByte('\n')

	if len(r.Top) > 0 {
		_, _ = header.Fprintf(&sb, "\nTop %d tokens\n", len(r.Top))

		sb.WriteString(topTable(r.Top))
		sb.WriteByte('\n')
	}

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("write report table: %w", err)
	}

	return nil
}

func summaryTable(r *Report) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	tbl.AppendRow(table.Row{"Tokens", r.Tokens})
	tbl.AppendRow(table.Row{"Unique strings", r.UniqueStrings})
	tbl.AppendRow(table.Row{"Dedup ratio", fmt.Sprintf("%.1f%%", r.DedupRatio()*percentScale)})
	tbl.AppendRow(table.Row{"Hits / misses", fmt.Sprintf("%d / %d", r.Hits, r.Misses)})
	tbl.AppendRow(table.Row{"Bytes seen", humanize.IBytes(safeconv.MustInt64ToUint64(r.BytesSeen))})
	tbl.AppendRow(table.Row{"Payload bytes", humanize.IBytes(safeconv.MustIntToUint64(r.PayloadBytes))})
	tbl.AppendRow(table.Row{"Arena capacity", humanize.IBytes(safeconv.MustIntToUint64(r.ArenaCapacity))})
	tbl.AppendRow(table.Row{"Chunks", r.Chunks})
	tbl.AppendRow(table.Row{"Table slots", fmt.Sprintf("%d (%.1f%% load)", r.TableSlots, r.TableLoad*percentScale)})
	tbl.AppendRow(table.Row{"Inputs", fmt.Sprintf("%d (%d skipped binary)", len(r.Inputs), r.SkippedBinary)})
	tbl.AppendRow(table.Row{"Duration", r.Duration.Round(time.Millisecond).String()})
	tbl.AppendRow(table.Row{"Backend", r.Backend})
	tbl.AppendRow(table.Row{"Token mode", r.TokenMode})

	return tbl.Render()
}

func topTable(top []TokenCount) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"#", "Token", "Count"})

	for i, tc := range top {
		tbl.AppendRow(table.Row{i + 1, tc.Text, tc.Count})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d items", len(top)), ""})

	return tbl.Render()
}
