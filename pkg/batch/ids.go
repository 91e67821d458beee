package batch

// IDs is either one identifier or an ordered set of them. It is resolved
// once at the API boundary so the rest of the package always works on an
// ordered slice.
type IDs struct {
	values []string
	single bool
}

// Single wraps one identifier. Run returns its collection unwrapped.
func Single(id string) IDs {
	return IDs{values: []string{id}, single: true}
}

// Many wraps identifiers in first-seen order, dropping duplicates.
func Many(ids ...string) IDs {
	seen := make(map[string]struct{}, len(ids))
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		values = append(values, id)
	}
	return IDs{values: values}
}

// IsSingle reports whether the value was built with Single.
func (i IDs) IsSingle() bool {
	return i.single
}

// Values returns a copy of the identifiers in order.
func (i IDs) Values() []string {
	out := make([]string, len(i.values))
	copy(out, i.values)
	return out
}

// Len returns the number of identifiers.
func (i IDs) Len() int {
	return len(i.values)
}
