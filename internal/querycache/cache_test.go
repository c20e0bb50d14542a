package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type product struct {
	ID   string
	Name string
}

func productQuery(id string, calls *atomic.Int32, gate <-chan struct{}) Query[product] {
	return Query[product]{
		Endpoint: "getProductById",
		Params:   id,
		Fetch: func(ctx context.Context) (product, error) {
			calls.Add(1)
			if gate != nil {
				<-gate
			}
			return product{ID: id, Name: "ring " + id}, nil
		},
		Tags: func(p product, err error) []Tag {
			return []Tag{IDTag("Products", id)}
		},
	}
}

func listQuery(calls *atomic.Int32) Query[[]product] {
	return Query[[]product]{
		Endpoint: "getAllProducts",
		Fetch: func(ctx context.Context) ([]product, error) {
			n := calls.Add(1)
			return []product{{ID: "p1", Name: "v" + string(rune('0'+n))}}, nil
		},
		Tags: func(ps []product, err error) []Tag {
			tags := []Tag{IDTag("Products", "LIST")}
			for _, p := range ps {
				tags = append(tags, IDTag("Products", p.ID))
			}
			return tags
		},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestSignatureIsStable(t *testing.T) {
	a := Signature("getProductsByIds", map[string]any{"ids": []string{"a", "b"}, "page": 1})
	b := Signature("getProductsByIds", map[string]any{"page": 1, "ids": []string{"a", "b"}})
	require.Equal(t, a, b)
	require.Equal(t, "getCart()", Signature("getCart", nil))
	require.NotEqual(t, Signature("getProductById", "1"), Signature("getProductById", "2"))
}

func TestConcurrentFetchesShareOneRequest(t *testing.T) {
	c := New()
	defer c.Close()

	var calls atomic.Int32
	gate := make(chan struct{})
	q := productQuery("p1", &calls, gate)

	const n = 20
	var wg sync.WaitGroup
	results := make([]product, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Fetch(context.Background(), c, q)
		}(i)
	}
	waitFor(t, func() bool { return calls.Load() == 1 })
	close(gate)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "ring p1", results[i].Name)
	}

	// A later call is served from the cache.
	_, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load())
}

func TestFetchContextCancelDoesNotAbortSharedRequest(t *testing.T) {
	c := New()
	defer c.Close()

	var calls atomic.Int32
	gate := make(chan struct{})
	q := productQuery("p1", &calls, gate)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx, c, q)
		errc <- err
	}()
	waitFor(t, func() bool { return calls.Load() == 1 })
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	close(gate)
	waitFor(t, func() bool {
		r, ok := Peek(c, q)
		return ok && r.Status == StatusSuccess
	})
	require.EqualValues(t, 1, calls.Load())
}

func TestErrorIsStoredAndNotRetriedOnSubscribe(t *testing.T) {
	c := New()
	defer c.Close()

	boom := errors.New("boom")
	var calls atomic.Int32
	q := Query[product]{
		Endpoint: "getProductById",
		Params:   "bad",
		Fetch: func(ctx context.Context) (product, error) {
			calls.Add(1)
			return product{}, boom
		},
	}

	_, err := Fetch(context.Background(), c, q)
	require.ErrorIs(t, err, boom)

	var got []Result[product]
	var mu sync.Mutex
	unsub := Subscribe(c, q, func(r Result[product]) {
		mu.Lock()
		got = append(got, r)
		mu.Unlock()
	})
	defer unsub()

	mu.Lock()
	require.Len(t, got, 1)
	require.Equal(t, StatusError, got[0].Status)
	require.ErrorIs(t, got[0].Err, boom)
	mu.Unlock()
	require.EqualValues(t, 1, calls.Load())

	_, err = Refetch(context.Background(), c, q)
	require.ErrorIs(t, err, boom)
	require.EqualValues(t, 2, calls.Load())
}

func TestErrorKeepsPreviousData(t *testing.T) {
	c := New()
	defer c.Close()

	fail := false
	q := Query[string]{
		Endpoint: "getCart",
		Fetch: func(ctx context.Context) (string, error) {
			if fail {
				return "", errors.New("offline")
			}
			return "cart-v1", nil
		},
	}
	_, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)

	fail = true
	_, err = Refetch(context.Background(), c, q)
	require.Error(t, err)

	r, ok := Peek(c, q)
	require.True(t, ok)
	require.Equal(t, StatusError, r.Status)
	require.True(t, r.HasData)
	require.Equal(t, "cart-v1", r.Data)
}

func TestInvalidateMarksStaleWithoutSubscribers(t *testing.T) {
	c := New()
	defer c.Close()

	var calls atomic.Int32
	q := productQuery("p1", &calls, nil)
	_, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)

	require.Equal(t, 1, c.Invalidate(IDTag("Products", "p1")))
	r, _ := Peek(c, q)
	require.True(t, r.Stale)
	require.EqualValues(t, 1, calls.Load())

	// The next read refetches.
	_, err = Fetch(context.Background(), c, q)
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())
	r, _ = Peek(c, q)
	require.False(t, r.Stale)
}

func TestInvalidateRefetchesSubscribedEntries(t *testing.T) {
	c := New()
	defer c.Close()

	var calls atomic.Int32
	q := listQuery(&calls)

	var mu sync.Mutex
	var names []string
	unsub := Subscribe(c, q, func(r Result[[]product]) {
		if r.Status != StatusSuccess {
			return
		}
		mu.Lock()
		names = append(names, r.Data[0].Name)
		mu.Unlock()
	})
	defer unsub()

	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return len(names) == 1 })

	require.Equal(t, 1, c.Invalidate(TypeTag("Products")))
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return len(names) >= 2 })
	require.EqualValues(t, 2, calls.Load())

	mu.Lock()
	require.Equal(t, "v1", names[0])
	require.Equal(t, "v2", names[len(names)-1])
	mu.Unlock()
}

func TestTagMatching(t *testing.T) {
	c := New()
	defer c.Close()

	var a, b, list atomic.Int32
	qa := productQuery("a", &a, nil)
	qb := productQuery("b", &b, nil)
	ql := listQuery(&list)
	for _, f := range []func() error{
		func() error { _, err := Fetch(context.Background(), c, qa); return err },
		func() error { _, err := Fetch(context.Background(), c, qb); return err },
		func() error { _, err := Fetch(context.Background(), c, ql); return err },
	} {
		require.NoError(t, f())
	}

	require.Equal(t, 1, c.Invalidate(IDTag("Products", "a")))
	ra, _ := Peek(c, qa)
	rb, _ := Peek(c, qb)
	rl, _ := Peek(c, ql)
	require.True(t, ra.Stale)
	require.False(t, rb.Stale)
	require.False(t, rl.Stale)

	require.Equal(t, 0, c.Invalidate(TypeTag("Cart")))
	require.Equal(t, 3, c.Invalidate(TypeTag("Products")))
	require.Equal(t, 0, c.Invalidate())
}

func TestInvalidateDuringFetchRefetchesAfter(t *testing.T) {
	c := New()
	defer c.Close()

	var calls atomic.Int32
	gate := make(chan struct{}, 2)
	q := productQuery("p1", &calls, gate)

	var mu sync.Mutex
	var seen []Result[product]
	unsub := Subscribe(c, q, func(r Result[product]) {
		mu.Lock()
		seen = append(seen, r)
		mu.Unlock()
	})
	defer unsub()

	waitFor(t, func() bool { return calls.Load() == 1 })
	c.Invalidate(IDTag("Products", "p1"))
	gate <- struct{}{}
	waitFor(t, func() bool { return calls.Load() == 2 })
	gate <- struct{}{}

	waitFor(t, func() bool {
		r, _ := Peek(c, q)
		return r.Status == StatusSuccess && !r.Stale && !r.Fetching
	})
}

// cartVersionQuery reports how many times the cart was fetched. Fetches after
// the first wait on gate when it is non-nil.
func cartVersionQuery(calls *atomic.Int32, gate <-chan struct{}) Query[int] {
	return Query[int]{
		Endpoint: "getCart",
		Fetch: func(ctx context.Context) (int, error) {
			n := calls.Add(1)
			if gate != nil && n > 1 {
				<-gate
			}
			return int(n), nil
		},
		Tags: func(int, error) []Tag { return []Tag{TypeTag("Cart")} },
	}
}

func TestInvalidateDuringFirstFetchMarksStale(t *testing.T) {
	c := New()
	defer c.Close()

	var calls atomic.Int32
	gate := make(chan struct{})
	q := Query[int]{
		Endpoint: "getCart",
		Fetch: func(ctx context.Context) (int, error) {
			n := calls.Add(1)
			if n == 1 {
				<-gate
			}
			return int(n), nil
		},
		Tags: func(int, error) []Tag { return []Tag{TypeTag("Cart")} },
	}

	done := make(chan int, 1)
	go func() {
		v, _ := Fetch(context.Background(), c, q)
		done <- v
	}()
	waitFor(t, func() bool { return calls.Load() == 1 })

	// The entry has no tags until its first fetch completes.
	require.Equal(t, 0, c.Invalidate(TypeTag("Cart")))
	close(gate)
	require.Equal(t, 1, <-done)

	r, ok := Peek(c, q)
	require.True(t, ok)
	require.True(t, r.Stale)

	v, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestInvalidateDuringFirstFetchUnrelatedTag(t *testing.T) {
	c := New()
	defer c.Close()

	var calls atomic.Int32
	gate := make(chan struct{})
	q := productQuery("p1", &calls, gate)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Fetch(context.Background(), c, q)
	}()
	waitFor(t, func() bool { return calls.Load() == 1 })
	c.Invalidate(TypeTag("Cart"), IDTag("Products", "p2"))
	close(gate)
	<-done

	r, _ := Peek(c, q)
	require.False(t, r.Stale)
	_, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load())
}

func TestFetchAfterInvalidateDoesNotJoinOlderRequest(t *testing.T) {
	c := New()
	defer c.Close()

	var calls atomic.Int32
	gate := make(chan struct{}, 2)
	q := cartVersionQuery(&calls, gate)

	v, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	refetched := make(chan int, 1)
	go func() {
		v, _ := Refetch(context.Background(), c, q)
		refetched <- v
	}()
	waitFor(t, func() bool { return calls.Load() == 2 })

	require.Equal(t, 1, c.Invalidate(TypeTag("Cart")))

	fetched := make(chan int, 1)
	go func() {
		v, _ := Fetch(context.Background(), c, q)
		fetched <- v
	}()
	gate <- struct{}{}
	gate <- struct{}{}

	require.Equal(t, 2, <-refetched)
	require.Equal(t, 3, <-fetched)
	require.EqualValues(t, 3, calls.Load())

	r, _ := Peek(c, q)
	require.Equal(t, 3, r.Data)
	require.False(t, r.Stale)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	c := New()
	defer c.Close()

	var calls atomic.Int32
	q := listQuery(&calls)
	_, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)

	var deliveries atomic.Int32
	unsub := Subscribe(c, q, func(r Result[[]product]) { deliveries.Add(1) })
	require.EqualValues(t, 1, deliveries.Load())
	unsub()
	unsub()

	c.Invalidate(TypeTag("Products"))
	_, err = Fetch(context.Background(), c, q)
	require.NoError(t, err)
	require.EqualValues(t, 1, deliveries.Load())

	e, ok := c.Entry(q.Signature())
	require.True(t, ok)
	require.Zero(t, e.Subscribers)
}

func TestKeepUnusedForEvicts(t *testing.T) {
	c := New(WithKeepUnusedFor(20 * time.Millisecond))
	defer c.Close()

	var calls atomic.Int32
	q := listQuery(&calls)
	unsub := Subscribe(c, q, func(Result[[]product]) {})
	waitFor(t, func() bool { r, _ := Peek(c, q); return r.Status == StatusSuccess })
	unsub()

	waitFor(t, func() bool { return c.Len() == 0 })
}

func TestRevalidateOnHit(t *testing.T) {
	c := New(WithRevalidateOnHit(true))
	defer c.Close()

	var calls atomic.Int32
	q := listQuery(&calls)
	_, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)

	got, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)
	require.Equal(t, "v1", got[0].Name)
	waitFor(t, func() bool { return calls.Load() == 2 })
}

func TestMutateInvalidatesOnlyOnSuccess(t *testing.T) {
	c := New()
	defer c.Close()

	var calls atomic.Int32
	q := listQuery(&calls)
	_, err := Fetch(context.Background(), c, q)
	require.NoError(t, err)

	failed := Mutation[string]{
		Name:        "deleteProduct",
		Run:         func(ctx context.Context) (string, error) { return "", errors.New("denied") },
		Invalidates: func(string) []Tag { return []Tag{TypeTag("Products")} },
	}
	_, err = Mutate(context.Background(), c, failed)
	require.Error(t, err)
	r, _ := Peek(c, q)
	require.False(t, r.Stale)

	ok := failed
	ok.Run = func(ctx context.Context) (string, error) { return "p1", nil }
	ok.Invalidates = func(id string) []Tag { return []Tag{IDTag("Products", id)} }
	id, err := Mutate(context.Background(), c, ok)
	require.NoError(t, err)
	require.Equal(t, "p1", id)
	r, _ = Peek(c, q)
	require.True(t, r.Stale)
}

func TestResetDropsInFlightResult(t *testing.T) {
	c := New()
	defer c.Close()

	var calls atomic.Int32
	gate := make(chan struct{})
	q := productQuery("p1", &calls, gate)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Fetch(context.Background(), c, q)
	}()
	waitFor(t, func() bool { return calls.Load() == 1 })
	c.Reset()
	close(gate)
	<-done

	_, ok := Peek(c, q)
	require.False(t, ok)
}

func TestPrefetch(t *testing.T) {
	c := New()
	defer c.Close()

	var calls atomic.Int32
	q := productQuery("p1", &calls, nil)
	Prefetch(c, q)
	waitFor(t, func() bool { r, _ := Peek(c, q); return r.Status == StatusSuccess })
	Prefetch(c, q)
	require.EqualValues(t, 1, calls.Load())
}
