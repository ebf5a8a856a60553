// Package report builds and renders interning run reports for the symtab CLI.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/symtab/pkg/intern"
	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

// Supported output formats.
const (
	// FormatTable is the human-readable terminal format.
	FormatTable = "table"

	// FormatJSON is indented single-document JSON.
	FormatJSON = "json"

	// FormatYAML is single-document YAML.
	FormatYAML = "yaml"
)

// ErrUnsupportedFormat indicates the requested output format is not supported.
var ErrUnsupportedFormat = errors.New("unsupported format")

// NormalizeFormat canonicalizes a user-provided output format string.
func NormalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

// ValidateFormat checks whether a format is one of the supported outputs and
// returns its canonical spelling.
func ValidateFormat(format string) (string, error) {
	normalized := NormalizeFormat(format)
	switch normalized {
	case FormatTable, FormatJSON, FormatYAML:
		return normalized, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// InputStat describes one processed input source.
type InputStat struct {
	Name    string `json:"name"              yaml:"name"`
	Tokens  int64  `json:"tokens"            yaml:"tokens"`
	Bytes   int64  `json:"bytes"             yaml:"bytes"`
	Skipped bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// TokenCount pairs an interned token with its occurrence count.
type TokenCount struct {
	Text  string `json:"text"  yaml:"text"`
	Count int64  `json:"count" yaml:"count"`
}

// Report aggregates the outcome of one interning run over a token corpus.
type Report struct {
	Backend       string        `json:"backend"          yaml:"backend"`
	TokenMode     string        `json:"token_mode"       yaml:"token_mode"`
	Tokens        int64         `json:"tokens"           yaml:"tokens"`
	UniqueStrings int           `json:"unique_strings"   yaml:"unique_strings"`
	Hits          uint64        `json:"hits"             yaml:"hits"`
	Misses        uint64        `json:"misses"           yaml:"misses"`
	BytesSeen     int64         `json:"bytes_seen"       yaml:"bytes_seen"`
	PayloadBytes  int           `json:"payload_bytes"    yaml:"payload_bytes"`
	ArenaCapacity int           `json:"arena_capacity"   yaml:"arena_capacity"`
	Chunks        int           `json:"chunks"           yaml:"chunks"`
	TableSlots    int           `json:"table_slots"      yaml:"table_slots"`
	TableLoad     float64       `json:"table_load"       yaml:"table_load"`
	SkippedBinary int           `json:"skipped_binary"   yaml:"skipped_binary"`
	Duration      time.Duration `json:"duration_ns"      yaml:"duration_ns"`
	Inputs        []InputStat   `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Top           []TokenCount  `json:"top,omitempty"    yaml:"top,omitempty"`
}

// DedupRatio returns the fraction of tokens answered by an already interned
// string.
func (r *Report) DedupRatio() float64 {
	if r.Tokens == 0 {
		return 0
	}

	return float64(r.Hits) / float64(r.Tokens)
}

// SetStats fills the storage and dedup fields from interner statistics.
func (r *Report) SetStats(st intern.Stats) {
	r.Backend = string(st.Backend.Kind)
	r.UniqueStrings = st.Strings
	r.Hits = st.Hits
	r.Misses = st.Misses
	r.PayloadBytes = st.Bytes
	r.ArenaCapacity = st.Backend.Capacity
	r.Chunks = st.Backend.Chunks
	r.TableSlots = st.TableSlots
	r.TableLoad = st.TableLoad
}

// Resolver maps issued symbols back to their text. Both the interner and the
// storage backends satisfy it.
type Resolver interface {
	Resolve(sym symbol.Symbol) (string, bool)
}

// TopTokens returns the n most frequent tokens. counts is indexed by symbol
// index; symbols are dense, so a slice covers the whole population. Ties
// break toward the earlier symbol, keeping output deterministic.
func TopTokens(counts []int64, src Resolver, n int) []TokenCount {
	if n <= 0 || len(counts) == 0 {
		return nil
	}

	order := make([]int, len(counts))
	for i := range order {
		order[i] = i
	}

	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if counts[ia] != counts[ib] {
			return counts[ia] > counts[ib]
		}

		return ia < ib
	})

	n = min(n, len(order))

	top := make([]TokenCount, 0, n)

	for _, idx := range order[:n] {
		if counts[idx] <= 0 {
			break
		}

		text, ok := src.Resolve(symbol.MustFromIndex(idx))
		if !ok {
			continue
		}

		top = append(top, TokenCount{Text: text, Count: counts[idx]})
	}

	return top
}
