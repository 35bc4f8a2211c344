package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"datalist/internal/directive"
	"datalist/internal/lookup"
)

// ErrLookupFailed is set on a binding whose lookup returned a sentinel or
// too few options.
var ErrLookupFailed = errors.New("lookup failed")

// State is where a bound field is in its single fetch.
type State int

const (
	Untouched State = iota
	Pending
	DoneOK
	DoneError
)

func (s State) String() string {
	switch s {
	case Untouched:
		return "untouched"
	case Pending:
		return "pending"
	case DoneOK:
		return "done-ok"
	case DoneError:
		return "done-error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further fetch will happen.
func (s State) Terminal() bool { return s == DoneOK || s == DoneError }

// FetchFunc performs one lookup; (*Client).Fetch satisfies it.
type FetchFunc func(ctx context.Context, p lookup.Payload) (lookup.Result, error)

// Binding ties a form field to its directive. It fetches at most once; the
// options or the failure stay until the binding is dropped.
type Binding struct {
	Field     string
	Directive directive.Directive

	mu      sync.Mutex
	state   State
	options []lookup.Option
	err     error
}

// ListID is the id of the field's option list.
func (b *Binding) ListID() string { return b.Field + "_datalist" }

func (b *Binding) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Options returns the fetched options, nil unless DoneOK.
func (b *Binding) Options() []lookup.Option {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.options
}

// Err returns why the binding ended in DoneError.
func (b *Binding) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Activate runs the fetch on the first call only. Calls made while the fetch
// is pending, or after it finished, return the current state without
// fetching. value is the text typed so far.
func (b *Binding) Activate(ctx context.Context, fetch FetchFunc, value string) (State, error) {
	b.mu.Lock()
	if b.state != Untouched {
		s, err := b.state, b.err
		b.mu.Unlock()
		return s, err
	}
	b.state = Pending
	b.mu.Unlock()

	res, err := fetch(ctx, lookup.Payload{Directive: b.Directive, FieldValue: value})

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case err != nil:
		b.state, b.err = DoneError, err
	case res.Failed():
		b.state, b.err = DoneError, fmt.Errorf("%w: %s", ErrLookupFailed, res.Message())
	case len(res.Results) < 2:
		// a lone option is indistinguishable from a sentinel on the page
		b.state, b.err = DoneError, fmt.Errorf("%w: only %d option", ErrLookupFailed, len(res.Results))
	default:
		b.state, b.options = DoneOK, res.Results
	}
	return b.state, b.err
}

// Bindings is the set of bound fields of one form.
type Bindings struct {
	mu     sync.Mutex
	fields map[string]*Binding
	order  []string
}

// Bind registers field with d. Binding a field twice returns the first
// binding unchanged.
func (bs *Bindings) Bind(field string, d directive.Directive) *Binding {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if b, ok := bs.fields[field]; ok {
		return b
	}
	if bs.fields == nil {
		bs.fields = map[string]*Binding{}
	}
	b := &Binding{Field: field, Directive: d}
	bs.fields[field] = b
	bs.order = append(bs.order, field)
	return b
}

func (bs *Bindings) Get(field string) (*Binding, bool) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	b, ok := bs.fields[field]
	return b, ok
}

// All returns the bindings in the order they were bound.
func (bs *Bindings) All() []*Binding {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	out := make([]*Binding, 0, len(bs.order))
	for _, f := range bs.order {
		out = append(out, bs.fields[f])
	}
	return out
}

// ActivateAll activates every binding concurrently. Lookup failures only
// show in each binding's state; the first transport error is returned after
// all fetches finished.
func (bs *Bindings) ActivateAll(ctx context.Context, fetch FetchFunc) error {
	var g errgroup.Group
	for _, b := range bs.All() {
		g.Go(func() error {
			_, err := b.Activate(ctx, fetch, "")
			if errors.Is(err, ErrTransport) {
				return fmt.Errorf("%s: %w", b.Field, err)
			}
			return nil
		})
	}
	return g.Wait()
}
