package intern

// Hasher computes the 64-bit content hash the deduplication table probes by.
// Implementations must be deterministic for the interner's lifetime: equal
// strings hash equal every time. Collisions are tolerated (the table
// verifies bytes), they only cost extra probes.
type Hasher interface {
	Hash(s string) uint64
}

// HasherFunc adapts a plain function to the Hasher interface.
type HasherFunc func(s string) uint64

// Hash implements Hasher.
func (f HasherFunc) Hash(s string) uint64 {
	return f(s)
}

// FNV-1a 64-bit constants.
const (
	fnvOffset64 = 0xcbf29ce484222325
	fnvPrime64  = 0x100000001b3
)

// fnvHasher is the default hasher: FNV-1a 64 inlined over the string's
// bytes. The stdlib hash/fnv only writes []byte, which would copy the string
// on every probe; the inline loop is allocation-free.
type fnvHasher struct{}

// Hash implements Hasher.
func (fnvHasher) Hash(s string) uint64 {
	h := uint64(fnvOffset64)

	for i := range len(s) {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}

	return h
}
