package ledger

import (
	"iter"
	"slices"
	"sort"
	"time"
)

// Snapshot is an immutable, date-ordered view of a ledger. Every component
// downstream of the loader works on a snapshot; reloading a changed file
// produces a new one rather than mutating the old.
type Snapshot struct {
	path    string
	modTime time.Time
	files   []string

	txns       []*Transaction
	accounts   map[string]Account
	paths      []string
	currencies []string
	usage      map[string]int
	operating  []string
	warnings   []error
	skipped    int
}

// SnapshotOption configures NewSnapshot.
type SnapshotOption func(*Snapshot)

// WithSource records the file the snapshot was loaded from, its modification
// time and every file that contributed to it.
func WithSource(path string, modTime time.Time, files []string) SnapshotOption {
	return func(s *Snapshot) {
		s.path = path
		s.modTime = modTime
		s.files = slices.Clone(files)
	}
}

// WithAccounts adds accounts to the index, typically those declared with
// open directives. Declared accounts appear even if never posted to.
func WithAccounts(accounts ...Account) SnapshotOption {
	return func(s *Snapshot) {
		for _, a := range accounts {
			s.accounts[a.Path] = a
		}
	}
}

// WithOperatingCurrencies sets the currencies named by the
// operating_currency option.
func WithOperatingCurrencies(currencies ...string) SnapshotOption {
	return func(s *Snapshot) { s.operating = slices.Clone(currencies) }
}

// WithWarnings attaches non-fatal diagnostics.
func WithWarnings(warnings ...error) SnapshotOption {
	return func(s *Snapshot) { s.warnings = append(s.warnings, warnings...) }
}

// WithSkipped records how many directives were recognised but not modelled.
func WithSkipped(n int) SnapshotOption {
	return func(s *Snapshot) { s.skipped = n }
}

// NewSnapshot builds a snapshot from txns. The transactions are ordered by
// date; transactions on the same day keep their given order.
func NewSnapshot(txns []*Transaction, opts ...SnapshotOption) *Snapshot {
	s := &Snapshot{
		txns:     slices.Clone(txns),
		accounts: make(map[string]Account),
		usage:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	sort.SliceStable(s.txns, func(i, j int) bool {
		return s.txns[i].date.Before(s.txns[j].date)
	})

	for _, txn := range s.txns {
		for _, p := range txn.postings {
			if _, ok := s.accounts[p.Account]; !ok {
				s.accounts[p.Account] = NewAccount(p.Account)
			}
			s.usage[p.Currency]++
		}
	}

	s.paths = make([]string, 0, len(s.accounts))
	for path := range s.accounts {
		s.paths = append(s.paths, path)
	}
	sort.Strings(s.paths)

	s.currencies = make([]string, 0, len(s.usage))
	for currency := range s.usage {
		s.currencies = append(s.currencies, currency)
	}
	sort.Strings(s.currencies)

	return s
}

// Derive returns a snapshot over txns that keeps this snapshot's source,
// declared accounts and operating currencies. Used to narrow a snapshot
// before aggregating.
func (s *Snapshot) Derive(txns []*Transaction) *Snapshot {
	declared := make([]Account, 0, len(s.accounts))
	for _, path := range s.paths {
		if a := s.accounts[path]; a.Declared {
			declared = append(declared, a)
		}
	}
	return NewSnapshot(txns,
		WithSource(s.path, s.modTime, s.files),
		WithAccounts(declared...),
		WithOperatingCurrencies(s.operating...),
		WithWarnings(s.warnings...),
		WithSkipped(s.skipped),
	)
}

// Len returns the number of transactions.
func (s *Snapshot) Len() int { return len(s.txns) }

// IsEmpty reports whether the snapshot holds no transactions.
func (s *Snapshot) IsEmpty() bool { return len(s.txns) == 0 }

// Transactions returns the transactions in date order. The slice is a copy;
// the transactions themselves are immutable.
func (s *Snapshot) Transactions() []*Transaction { return slices.Clone(s.txns) }

// All iterates every transaction in date order.
func (s *Snapshot) All() iter.Seq[*Transaction] {
	return slices.Values(s.txns)
}

// Until iterates the transactions dated on or before asOf.
func (s *Snapshot) Until(asOf Date) iter.Seq[*Transaction] {
	end := s.upper(asOf)
	return slices.Values(s.txns[:end])
}

// Between iterates the transactions inside r, bounds included.
func (s *Snapshot) Between(r DateRange) iter.Seq[*Transaction] {
	start := sort.Search(len(s.txns), func(i int) bool {
		return !s.txns[i].date.Before(r.From)
	})
	end := s.upper(r.To)
	if start >= end {
		return func(func(*Transaction) bool) {}
	}
	return slices.Values(s.txns[start:end])
}

// upper returns the index of the first transaction after d.
func (s *Snapshot) upper(d Date) int {
	return sort.Search(len(s.txns), func(i int) bool {
		return s.txns[i].date.After(d)
	})
}

// Accounts returns every known account ordered by path.
func (s *Snapshot) Accounts() []Account {
	accounts := make([]Account, len(s.paths))
	for i, path := range s.paths {
		accounts[i] = s.accounts[path]
	}
	return accounts
}

// Account looks up a single account by its full path.
func (s *Snapshot) Account(path string) (Account, bool) {
	a, ok := s.accounts[path]
	return a, ok
}

// AccountPaths returns the distinct account paths in sorted order.
func (s *Snapshot) AccountPaths() []string { return slices.Clone(s.paths) }

// DateSpan returns the dates of the first and last transaction. ok is false
// for an empty snapshot.
func (s *Snapshot) DateSpan() (r DateRange, ok bool) {
	if len(s.txns) == 0 {
		return DateRange{}, false
	}
	return DateRange{From: s.txns[0].date, To: s.txns[len(s.txns)-1].date}, true
}

// Currencies returns every currency used by a posting, sorted.
func (s *Snapshot) Currencies() []string { return slices.Clone(s.currencies) }

// OperatingCurrencies returns the operating_currency options in file order.
func (s *Snapshot) OperatingCurrencies() []string { return slices.Clone(s.operating) }

// PrimaryCurrency is the first operating currency, or else the currency used
// by the most postings. Ties resolve alphabetically. Empty for an empty
// snapshot without options.
func (s *Snapshot) PrimaryCurrency() string {
	if len(s.operating) > 0 {
		return s.operating[0]
	}
	best, count := "", 0
	for _, currency := range s.currencies {
		if n := s.usage[currency]; n > count {
			best, count = currency, n
		}
	}
	return best
}

// Warnings returns the non-fatal diagnostics collected while building the
// snapshot, such as unbalanced transactions.
func (s *Snapshot) Warnings() []error { return slices.Clone(s.warnings) }

// Skipped returns the number of directives that were parsed but not modelled.
func (s *Snapshot) Skipped() int { return s.skipped }

// Path returns the root ledger file, if loaded from disk.
func (s *Snapshot) Path() string { return s.path }

// ModTime returns the modification time of the root file at load time.
func (s *Snapshot) ModTime() time.Time { return s.modTime }

// Files returns the root file followed by every included file.
func (s *Snapshot) Files() []string { return slices.Clone(s.files) }
