package intern

import (
	"github.com/Sumatoshi-tech/symtab/pkg/backend"
)

// Stats is a point-in-time snapshot of interner behavior and footprint.
type Stats struct {
	// Strings is the number of interned strings.
	Strings int

	// Bytes is the stored payload size.
	Bytes int

	// Hits counts GetOrIntern calls answered from the index.
	Hits uint64

	// Misses counts GetOrIntern calls that stored a new string.
	Misses uint64

	// TableSlots is the allocated dedup slot count.
	TableSlots int

	// TableLoad is the dedup table occupancy (0.0 to 1.0).
	TableLoad float64

	// Backend is the storage strategy's own shape report.
	Backend backend.Stats
}

// Total returns the number of GetOrIntern calls observed.
func (s Stats) Total() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns the fraction of GetOrIntern calls that were duplicates.
func (s Stats) HitRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// Stats reports current interner statistics. Valid while hibernated; the
// embedded backend stats then describe the compressed footprint.
func (i *Interner) Stats() Stats {
	bst := i.backend.Stats()

	st := Stats{
		Strings:    bst.Strings,
		Bytes:      bst.Bytes,
		Hits:       i.hits,
		Misses:     i.misses,
		TableSlots: i.table.slots(),
		TableLoad:  i.table.load(),
		Backend:    bst,
	}

	if i.hib != nil {
		st.TableSlots = i.hib.slots
		st.TableLoad = tableLoadOf(i.hib.count, i.hib.slots)
	}

	return st
}

// tableLoadOf computes occupancy for a slot count that may be zero.
func tableLoadOf(count, slots int) float64 {
	if slots == 0 {
		return 0
	}

	return float64(count) / float64(slots)
}
