// Package cartstore holds the client-side cart: lines the shopper intends to
// add, kept in memory until they are confirmed against the server cart.
package cartstore

import (
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"jewelry-storefront/internal/domain"
)

// ErrLineNotFound is returned for operations on an unknown line id.
var ErrLineNotFound = errors.New("cart line not found")

// Line is one cart row. Stock is the last-known stock ceiling, nil when none
// has been supplied.
type Line struct {
	domain.CartLine
	Stock *int `json:"stock,omitempty"`
}

// AddInput describes an add-to-cart action.
type AddInput struct {
	ProductID string
	ColorID   string
	Quantity  int
	Stock     *int
}

// Store is safe for concurrent use; every transition runs under one lock.
type Store struct {
	mu      sync.Mutex
	lines   []Line
	version uint64
	subs    map[int]func([]Line)
	nextSub int
	newID   func() string
}

func New() *Store {
	return &Store{
		subs:  make(map[int]func([]Line)),
		newID: uuid.NewString,
	}
}

// AddLine adds quantity to the line for (ProductID, ColorID), creating it if
// needed. The result is clamped to the stock ceiling when one is known. It
// returns the resulting line and whether the cart holds it.
func (s *Store) AddLine(in AddInput) (Line, bool, error) {
	if in.ProductID == "" {
		return Line{}, false, domain.Invalid("productId", "required")
	}
	if in.Quantity <= 0 {
		return Line{}, false, domain.Invalid("quantity", "must be positive")
	}

	s.mu.Lock()
	idx := s.find(in.ProductID, in.ColorID)
	var line Line
	if idx >= 0 {
		line = s.lines[idx]
	} else {
		line = Line{CartLine: domain.CartLine{ProductID: in.ProductID, ColorID: in.ColorID}}
	}
	if in.Stock != nil {
		ceiling := *in.Stock
		line.Stock = &ceiling
	}
	line.Quantity += in.Quantity
	if line.Stock != nil && line.Quantity > *line.Stock {
		line.Quantity = *line.Stock
	}

	if line.Quantity <= 0 {
		if idx >= 0 {
			s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
			s.changedLocked()
		} else {
			s.mu.Unlock()
			return line, false, nil
		}
	} else if idx >= 0 {
		s.lines[idx] = line
		s.changedLocked()
	} else {
		line.ID = s.newID()
		s.lines = append(s.lines, line)
		s.changedLocked()
	}
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	publish(subs, snap)
	return copyLine(line), line.Quantity > 0, nil
}

// RemoveLine deletes the line with id.
func (s *Store) RemoveLine(id string) error {
	s.mu.Lock()
	idx := s.index(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	s.changedLocked()
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	publish(subs, snap)
	return nil
}

// SetQuantity replaces the quantity of line id. A quantity of zero or less
// removes the line. The stock ceiling is not applied.
func (s *Store) SetQuantity(id string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveLine(id)
	}
	s.mu.Lock()
	idx := s.index(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	if s.lines[idx].Quantity == quantity {
		s.mu.Unlock()
		return nil
	}
	s.lines[idx].Quantity = quantity
	s.changedLocked()
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	publish(subs, snap)
	return nil
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.mu.Unlock()
		return
	}
	s.lines = nil
	s.changedLocked()
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	publish(subs, snap)
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyLines(s.lines)
}

// CartLines returns the lines without stock data, ready for enrichment.
func (s *Store) CartLines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartLine, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.CartLine
	}
	return out
}

// TotalItems returns the sum of quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Version increases with every change.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe calls fn with the lines after every change, on the goroutine that
// made it. It returns a function removing the subscription.
func (s *Store) Subscribe(fn func([]Line)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) find(productID, colorID string) int {
	for i, l := range s.lines {
		if l.ProductID == productID && l.ColorID == colorID {
			return i
		}
	}
	return -1
}

func (s *Store) index(id string) int {
	for i, l := range s.lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) changedLocked() {
	s.version++
}

func (s *Store) snapshotLocked() ([]Line, []func([]Line)) {
	if len(s.subs) == 0 {
		return nil, nil
	}
	subs := make([]func([]Line), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return copyLines(s.lines), subs
}

func publish(subs []func([]Line), lines []Line) {
	for _, fn := range subs {
		fn(copyLines(lines))
	}
}

func copyLines(in []Line) []Line {
	out := make([]Line, len(in))
	for i, l := range in {
		out[i] = copyLine(l)
	}
	return out
}

func copyLine(l Line) Line {
	if l.Stock != nil {
		v := *l.Stock
		l.Stock = &v
	}
	return l
}
