package cartstore

import (
	"strconv"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"

	"jewelry-storefront/internal/domain"
)

func intp(v int) *int { return &v }

func newTestStore() *Store {
	s := New()
	n := 0
	s.newID = func() string {
		n++
		return "line-" + strconv.Itoa(n)
	}
	return s
}

func TestAddLineMergesOnProductAndColor(t *testing.T) {
	s := newTestStore()

	_, _, err := s.AddLine(AddInput{ProductID: "p1", ColorID: "gold", Quantity: 1})
	require.NoError(t, err)
	_, _, err = s.AddLine(AddInput{ProductID: "p1", ColorID: "gold", Quantity: 2})
	require.NoError(t, err)
	_, _, err = s.AddLine(AddInput{ProductID: "p1", ColorID: "silver", Quantity: 1})
	require.NoError(t, err)
	_, _, err = s.AddLine(AddInput{ProductID: "p2", Quantity: 4})
	require.NoError(t, err)

	lines := s.Lines()
	require.Len(t, lines, 3)
	require.Equal(t, "line-1", lines[0].ID)
	require.Equal(t, 3, lines[0].Quantity)
	require.Equal(t, 1, lines[1].Quantity)
	require.Equal(t, 4, lines[2].Quantity)
	require.Equal(t, 8, s.TotalItems())
}

func TestAddLineClampsAtStock(t *testing.T) {
	s := newTestStore()

	line, ok, err := s.AddLine(AddInput{ProductID: "p1", Quantity: 3, Stock: intp(5)})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, line.Quantity)

	// The remembered ceiling applies when a later add omits it.
	line, _, err = s.AddLine(AddInput{ProductID: "p1", Quantity: 4})
	require.NoError(t, err)
	require.Equal(t, 5, line.Quantity)

	// A newer ceiling replaces the old one.
	line, _, err = s.AddLine(AddInput{ProductID: "p1", Quantity: 10, Stock: intp(7)})
	require.NoError(t, err)
	require.Equal(t, 7, line.Quantity)
	require.Equal(t, 7, *s.Lines()[0].Stock)
}

func TestAddLineOutOfStockNeverHoldsZero(t *testing.T) {
	s := newTestStore()

	_, ok, err := s.AddLine(AddInput{ProductID: "p1", Quantity: 2, Stock: intp(0)})
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, s.Lines())
	require.Zero(t, s.Version())

	_, _, err = s.AddLine(AddInput{ProductID: "p2", Quantity: 2})
	require.NoError(t, err)
	_, ok, err = s.AddLine(AddInput{ProductID: "p2", Quantity: 1, Stock: intp(0)})
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, s.Lines())
}

func TestAddLineValidates(t *testing.T) {
	s := newTestStore()
	_, _, err := s.AddLine(AddInput{Quantity: 1})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "productId", verr.Field)

	_, _, err = s.AddLine(AddInput{ProductID: "p1", Quantity: 0})
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "quantity", verr.Field)
}

func TestSetQuantity(t *testing.T) {
	s := newTestStore()
	line, _, err := s.AddLine(AddInput{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, s.SetQuantity(line.ID, 6))
	require.Equal(t, 6, s.Lines()[0].Quantity)

	require.NoError(t, s.SetQuantity(line.ID, 0))
	require.Empty(t, s.Lines())

	require.ErrorIs(t, s.SetQuantity(line.ID, 1), ErrLineNotFound)
	require.ErrorIs(t, s.RemoveLine("missing"), ErrLineNotFound)
}

func TestNoLineEverHoldsNonPositiveQuantity(t *testing.T) {
	s := newTestStore()
	ops := []func(){
		func() { _, _, _ = s.AddLine(AddInput{ProductID: "a", Quantity: 3, Stock: intp(2)}) },
		func() { _, _, _ = s.AddLine(AddInput{ProductID: "b", Quantity: 1}) },
		func() { _ = s.SetQuantity(s.Lines()[0].ID, -1) },
		func() { _, _, _ = s.AddLine(AddInput{ProductID: "b", Quantity: 5, Stock: intp(0)}) },
		func() { _, _, _ = s.AddLine(AddInput{ProductID: "c", ColorID: "rose", Quantity: 1}) },
	}
	for _, op := range ops {
		op()
		for _, l := range s.Lines() {
			require.Positive(t, l.Quantity)
		}
	}
}

func TestSubscribeAndClear(t *testing.T) {
	s := newTestStore()
	var got [][]Line
	unsub := s.Subscribe(func(lines []Line) { got = append(got, lines) })

	_, _, _ = s.AddLine(AddInput{ProductID: "p1", Quantity: 1})
	s.Clear()
	s.Clear()
	unsub()
	_, _, _ = s.AddLine(AddInput{ProductID: "p2", Quantity: 1})

	require.Len(t, got, 2)
	require.Len(t, got[0], 1)
	require.Empty(t, got[1])
	require.EqualValues(t, 3, s.Version())
}

func TestLinesReturnsCopies(t *testing.T) {
	s := newTestStore()
	_, _, _ = s.AddLine(AddInput{ProductID: "p1", Quantity: 1, Stock: intp(4)})

	lines := s.Lines()
	lines[0].Quantity = 99
	*lines[0].Stock = 99
	require.Equal(t, 1, s.Lines()[0].Quantity)
	require.Equal(t, 4, *s.Lines()[0].Stock)
	require.Equal(t, []domain.CartLine{{ID: "line-1", ProductID: "p1", Quantity: 1}}, s.CartLines())
}
