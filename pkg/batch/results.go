package batch

import (
	"github.com/saturnines/nexus-smapi/pkg/errors"
)

// Result is one identifier's outcome.
//
// Err == nil with no records means the collection ran and found nothing.
// errors.Is(Err, errors.ErrNotStarted) means it never ran.
type Result struct {
	ID      string
	Records []map[string]interface{}
	Err     error
}

// OK reports whether the collection ran and succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Started reports whether the collection ran at all.
func (r Result) Started() bool {
	return !errors.Is(r.Err, errors.ErrNotStarted)
}

// Results maps identifiers to outcomes. Iteration always follows the input
// order, whatever order the collections finished in.
type Results struct {
	items []Result
	index map[string]int
}

func newResults(ids []string) *Results {
	r := &Results{
		items: make([]Result, len(ids)),
		index: make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		r.items[i] = Result{ID: id, Err: errors.ErrNotStarted}
		r.index[id] = i
	}
	return r
}

// set is only called once per slot; slots are never shared across goroutines.
func (r *Results) set(i int, records []map[string]interface{}, err error) {
	r.items[i].Records = records
	r.items[i].Err = err
}

// Get returns the outcome for id.
func (r *Results) Get(id string) (Result, bool) {
	i, ok := r.index[id]
	if !ok {
		return Result{}, false
	}
	return r.items[i], true
}

// All returns every outcome in input order.
func (r *Results) All() []Result {
	out := make([]Result, len(r.items))
	copy(out, r.items)
	return out
}

// IDs returns the identifiers in input order.
func (r *Results) IDs() []string {
	out := make([]string, len(r.items))
	for i, item := range r.items {
		out[i] = item.ID
	}
	return out
}

// Len returns the number of identifiers.
func (r *Results) Len() int {
	return len(r.items)
}

// Failed returns the outcomes that carry an error, in input order.
func (r *Results) Failed() []Result {
	var out []Result
	for _, item := range r.items {
		if item.Err != nil {
			out = append(out, item)
		}
	}
	return out
}

// Unwrap returns the records of the first identifier. It is the bare
// collection for a Single run.
func (r *Results) Unwrap() []map[string]interface{} {
	if len(r.items) == 0 {
		return nil
	}
	return r.items[0].Records
}
