package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Status int

const (
	StatusUninitialized Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "uninitialized"
	}
}

// Tag labels cached data so mutations can declare what they affect.
// A Tag with an empty ID names the whole type.
type Tag struct {
	Type string
	ID   string
}

// TypeTag returns a Tag covering every entry that provides typ.
func TypeTag(typ string) Tag { return Tag{Type: typ} }

// IDTag returns a Tag for one identified resource of typ.
func IDTag(typ, id string) Tag { return Tag{Type: typ, ID: id} }

// matches reports whether invalidating t affects an entry providing p.
func (t Tag) matches(p Tag) bool {
	return t.Type == p.Type && (t.ID == "" || t.ID == p.ID)
}

func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + ":" + t.ID
}

// Signature identifies a cacheable request: endpoint plus parameters encoded
// as JSON. Map keys are sorted by the encoder, so equal parameters produce
// equal signatures.
func Signature(endpoint string, params any) string {
	if params == nil {
		return endpoint + "()"
	}
	b, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s(%v)", endpoint, params)
	}
	return endpoint + "(" + string(b) + ")"
}

// Query describes a cacheable read.
type Query[T any] struct {
	Endpoint string
	Params   any
	Fetch    func(ctx context.Context) (T, error)
	// Tags lists the tags the result provides. Optional.
	Tags func(result T, err error) []Tag
}

func (q Query[T]) Signature() string {
	return Signature(q.Endpoint, q.Params)
}

func (q Query[T]) fetcher() fetchFunc {
	return func(ctx context.Context) (any, []Tag, error) {
		v, err := q.Fetch(ctx)
		var tags []Tag
		if q.Tags != nil {
			tags = q.Tags(v, err)
		}
		if err != nil {
			return nil, tags, err
		}
		return v, tags, nil
	}
}

// Mutation describes a write whose success invalidates cached reads.
type Mutation[R any] struct {
	Name        string
	Run         func(ctx context.Context) (R, error)
	Invalidates func(result R) []Tag
}

// Entry is a point-in-time snapshot of one cache entry.
type Entry struct {
	Signature   string
	Status      Status
	Data        any
	Err         error
	HasData     bool
	Stale       bool
	Fetching    bool
	UpdatedAt   time.Time
	Subscribers int
	// Generation counts stored results; it changes whenever Data or Err does.
	Generation uint64
	seq        uint64
}

// Result is the typed view of an Entry.
type Result[T any] struct {
	Data       T
	Status     Status
	Err        error
	HasData    bool
	Stale      bool
	Fetching   bool
	UpdatedAt  time.Time
	Generation uint64
}

// Loading reports whether no value is available yet and one is on its way.
func (r Result[T]) Loading() bool {
	return r.Status == StatusUninitialized || r.Status == StatusPending
}

func typed[T any](e Entry) Result[T] {
	r := Result[T]{
		Status:     e.Status,
		Err:        e.Err,
		HasData:    e.HasData,
		Stale:      e.Stale,
		Fetching:   e.Fetching,
		UpdatedAt:  e.UpdatedAt,
		Generation: e.Generation,
	}
	if v, ok := e.Data.(T); ok {
		r.Data = v
	}
	return r
}
