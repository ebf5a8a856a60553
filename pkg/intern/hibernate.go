package intern

import (
	"fmt"
	"sync"

	"github.com/Sumatoshi-tech/symtab/internal/compress"
)

// tableBufferCount is the number of deinterleaved table buffers
// (hash high halves, hash low halves, symbol slots).
const tableBufferCount = 3

// hibernatable is the optional backend capability Hibernate requires.
type hibernatable interface {
	Hibernate() error
	Boot() error
}

// hibernatedTable holds the compressed dedup table between Hibernate and
// Boot. Empty slots must survive the cycle, so the slot arrays are
// compressed whole, zeros included.
type hibernatedTable struct {
	count  int
	slots  int
	blocks [tableBufferCount][]byte
}

// Hibernate compresses the interner between processing phases: the backend's
// storage (which must support hibernation) and the dedup table both shrink
// to LZ4 blocks. Len, IsEmpty, and Stats keep answering; every other method
// panics until Boot. Strings resolved before hibernation stay valid.
func (i *Interner) Hibernate() error {
	if i.hib != nil {
		return ErrAlreadyHibernated
	}

	hb, ok := i.backend.(hibernatable)
	if !ok {
		return fmt.Errorf("%w: %s", ErrHibernateUnsupported, i.backend.Stats().Kind)
	}

	if err := hb.Hibernate(); err != nil {
		return err
	}

	hib, err := i.compressTable()
	if err != nil {
		// Keep the interner fully usable when table compression fails.
		if bootErr := hb.Boot(); bootErr != nil {
			return fmt.Errorf("%w (boot after failed hibernate: %w)", err, bootErr)
		}

		return err
	}

	i.table = dedupTable{}
	i.hib = hib

	return nil
}

// Boot restores the storage and index dropped by Hibernate. Booting a live
// interner is a no-op.
func (i *Interner) Boot() error {
	if i.hib == nil {
		return nil
	}

	hb, ok := i.backend.(hibernatable)
	if !ok {
		return fmt.Errorf("%w: %s", ErrHibernateUnsupported, i.backend.Stats().Kind)
	}

	if err := hb.Boot(); err != nil {
		return err
	}

	table, err := i.hib.decompressTable()
	if err != nil {
		return err
	}

	i.table = table
	i.hib = nil

	return nil
}

// compressTable deinterleaves the table into uint32 buffers (hash halves and
// symbol slots) and compresses them concurrently.
func (i *Interner) compressTable() (*hibernatedTable, error) {
	slots := i.table.slots()

	buffers := [tableBufferCount][]uint32{}
	for b := range buffers {
		buffers[b] = make([]uint32, slots)
	}

	for idx, hash := range i.table.hashes {
		buffers[0][idx] = uint32(hash >> 32)
		buffers[1][idx] = uint32(hash)
		buffers[2][idx] = i.table.syms[idx]
	}

	hib := &hibernatedTable{count: i.table.count, slots: slots}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	wg.Add(tableBufferCount)

	for b, buf := range buffers {
		go func(idx int, data []uint32) {
			defer wg.Done()

			block, err := compress.Uint32s(data)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("compress table buffer %d: %w", idx, err)
				}
				mu.Unlock()

				return
			}

			hib.blocks[idx] = block
		}(b, buf)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return hib, nil
}

// decompressTable rebuilds the slot arrays exactly as they were; no
// rehashing is needed because the slot count is unchanged.
func (h *hibernatedTable) decompressTable() (dedupTable, error) {
	buffers := [tableBufferCount][]uint32{}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	wg.Add(tableBufferCount)

	for b := range buffers {
		go func(idx int) {
			defer wg.Done()

			buf := make([]uint32, h.slots)
			if err := compress.Unuint32s(h.blocks[idx], buf); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("boot table buffer %d: %w", idx, err)
				}
				mu.Unlock()

				return
			}

			buffers[idx] = buf
		}(b)
	}

	wg.Wait()

	if firstErr != nil {
		return dedupTable{}, firstErr
	}

	table := dedupTable{
		hashes: make([]uint64, h.slots),
		syms:   buffers[2],
		count:  h.count,
	}

	for idx := range table.hashes {
		table.hashes[idx] = uint64(buffers[0][idx])<<32 | uint64(buffers[1][idx])
	}

	return table, nil
}
