package parser

// Interner keeps one canonical copy of strings that repeat throughout a
// ledger: account names, currencies and common payees.
type Interner struct {
	pool map[string]string
}

// NewInterner creates an interner with the given initial capacity.
func NewInterner(capacity int) *Interner {
	return &Interner{pool: make(map[string]string, capacity)}
}

// InternBytes returns the canonical string for b.
func (i *Interner) InternBytes(b []byte) string {
	if interned, ok := i.pool[string(b)]; ok {
		return interned
	}
	s := string(b)
	i.pool[s] = s
	return s
}

// Size returns the number of unique strings in the pool.
func (i *Interner) Size() int {
	return len(i.pool)
}
