package pipeline

import (
	"github.com/google/uuid"
)

// CommentState tells apart the three ways a video's comments can end up.
type CommentState int

const (
	// CommentsFetched means at least one thread was collected.
	CommentsFetched CommentState = iota
	// CommentsEmpty means the collection ran and found nothing, which is
	// also what disabled comments look like.
	CommentsEmpty
	// CommentsAbsent means the collection failed or never ran.
	CommentsAbsent
)

func (s CommentState) String() string {
	switch s {
	case CommentsFetched:
		return "fetched"
	case CommentsEmpty:
		return "empty"
	default:
		return "absent"
	}
}

// Joined is everything collected for one video.
type Joined struct {
	ID           string
	Search       map[string]interface{}
	Detail       map[string]interface{}
	Comments     []map[string]interface{}
	CommentState CommentState
	CommentsErr  error // set when CommentState is CommentsAbsent after a failure
}

// Result is the outcome of one run, keyed by video id in search order.
type Result struct {
	RunID   uuid.UUID
	Query   string
	Records []Joined
	index   map[string]int
}

func newResult(runID uuid.UUID, query string) *Result {
	return &Result{
		RunID:   runID,
		Query:   query,
		Records: []Joined{},
		index:   make(map[string]int),
	}
}

func (r *Result) add(j Joined) {
	r.index[j.ID] = len(r.Records)
	r.Records = append(r.Records, j)
}

// Get returns the joined record for id.
func (r *Result) Get(id string) (Joined, bool) {
	i, ok := r.index[id]
	if !ok {
		return Joined{}, false
	}
	return r.Records[i], true
}

// Len returns the number of joined records.
func (r *Result) Len() int {
	return len(r.Records)
}

// IDs returns the video ids in record order.
func (r *Result) IDs() []string {
	out := make([]string, len(r.Records))
	for i, j := range r.Records {
		out[i] = j.ID
	}
	return out
}
