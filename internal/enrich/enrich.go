// Package enrich joins cart lines with catalog products and totals them.
package enrich

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/querycache"
)

// Line is a cart line paired with its product. Product is nil until the
// product lookup has resolved it.
type Line struct {
	domain.CartLine
	Product  *domain.Product `json:"product,omitempty"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Result is the enriched cart.
type Result struct {
	Lines     []Line          `json:"lines"`
	Total     decimal.Decimal `json:"totalAmount"`
	IsLoading bool            `json:"isLoading"`
	Err       error           `json:"-"`
}

// Enrich pairs every line with its product from products and sums
// price × quantity. Lines whose product is absent count as price 0.
func Enrich(lines []domain.CartLine, products map[string]domain.Product) ([]Line, decimal.Decimal) {
	out := make([]Line, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		out[i] = Line{CartLine: l, Subtotal: decimal.Zero}
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		out[i].Product = &p
		out[i].Subtotal = p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(out[i].Subtotal)
	}
	return out, total
}

// ProductIDs returns the distinct product ids of lines, sorted.
func ProductIDs(lines []domain.CartLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	sort.Strings(ids)
	return ids
}

// ProductLookup builds the batched product query for ids.
type ProductLookup func(ids []string) querycache.Query[[]domain.Product]

// Aggregator enriches cart lines through the query cache. It issues one
// batched lookup per distinct id set and memoizes its last result.
type Aggregator struct {
	cache  *querycache.Cache
	lookup ProductLookup

	mu   sync.Mutex
	memo *memo
}

type memo struct {
	lines    []domain.CartLine
	sig      string
	gen      uint64
	status   querycache.Status
	computed Result
}

func NewAggregator(cache *querycache.Cache, lookup ProductLookup) *Aggregator {
	return &Aggregator{cache: cache, lookup: lookup}
}

// Compute returns the enriched cart without blocking. When products are not
// cached yet it starts the lookup and reports IsLoading.
func (a *Aggregator) Compute(lines []domain.CartLine) Result {
	ids := ProductIDs(lines)
	if len(ids) == 0 {
		return Result{Lines: []Line{}, Total: decimal.Zero}
	}
	q := a.lookup(ids)
	querycache.Prefetch(a.cache, q)
	r, _ := querycache.Peek(a.cache, q)

	sig := q.Signature()
	a.mu.Lock()
	defer a.mu.Unlock()
	if m := a.memo; m != nil && m.sig == sig && m.gen == r.Generation && m.status == r.Status && slices.Equal(m.lines, lines) {
		return m.computed
	}

	enriched, total := Enrich(lines, index(r.Data))
	res := Result{Lines: enriched, Total: total, IsLoading: r.Loading()}
	if r.Status == querycache.StatusError {
		res.Err = r.Err
	}
	a.memo = &memo{lines: slices.Clone(lines), sig: sig, gen: r.Generation, status: r.Status, computed: res}
	return res
}

// Load waits for the product lookup and returns the enriched cart.
func (a *Aggregator) Load(ctx context.Context, lines []domain.CartLine) (Result, error) {
	ids := ProductIDs(lines)
	if len(ids) == 0 {
		return Result{Lines: []Line{}, Total: decimal.Zero}, nil
	}
	products, err := querycache.Fetch(ctx, a.cache, a.lookup(ids))
	if err != nil {
		return Result{}, err
	}
	enriched, total := Enrich(lines, index(products))
	return Result{Lines: enriched, Total: total}, nil
}

func index(products []domain.Product) map[string]domain.Product {
	m := make(map[string]domain.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}
