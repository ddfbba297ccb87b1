package sim

// Ledger owns the open positions. Positions live in a stable insertion-order
// arena; closes are marked during an exit pass and physically removed by
// Sweep afterwards, so iterating a Snapshot can never skip or double-process
// a position mid-pass.
type Ledger struct {
	open     []*Position
	bySymbol map[string]*Position
	closing  map[int]bool
}

func NewLedger() *Ledger {
	return &Ledger{
		bySymbol: make(map[string]*Position),
		closing:  make(map[int]bool),
	}
}

// Add inserts a freshly opened position. At most one position per symbol may
// be open; callers check Has first.
func (l *Ledger) Add(p *Position) {
	l.open = append(l.open, p)
	l.bySymbol[p.Symbol] = p
}

// Has reports whether the symbol currently has an open position.
func (l *Ledger) Has(symbol string) bool {
	_, ok := l.bySymbol[symbol]
	return ok
}

// Get returns the open position for symbol, if any.
func (l *Ledger) Get(symbol string) (*Position, bool) {
	p, ok := l.bySymbol[symbol]
	return p, ok
}

// Len is the number of open positions, marked-for-close included until the
// next Sweep.
func (l *Ledger) Len() int { return len(l.open) }

// Snapshot returns a stable copy of the open set in insertion order.
func (l *Ledger) Snapshot() []*Position {
	out := make([]*Position, len(l.open))
	copy(out, l.open)
	return out
}

// MarkClosed schedules a position for removal at the next Sweep.
func (l *Ledger) MarkClosed(id int) {
	l.closing[id] = true
}

// Sweep removes every marked position, preserving the order of the rest.
func (l *Ledger) Sweep() {
	if len(l.closing) == 0 {
		return
	}
	kept := l.open[:0]
	for _, p := range l.open {
		if l.closing[p.ID] {
			delete(l.bySymbol, p.Symbol)
			continue
		}
		kept = append(kept, p)
	}
	l.open = kept
	l.closing = make(map[int]bool)
}
