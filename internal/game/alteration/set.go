package alteration

// Set tracks the character-level alterations (stun, invulnerability,
// damage-over-time, resistance) applied to one combatant, in application order.
// It is not safe for concurrent use; the caller must serialise access.
type Set struct {
	items []*Alteration
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{}
}

// Add attaches a.
//
// Precondition: a must not be nil and must not be a stat-attached kind.
func (s *Set) Add(a *Alteration) {
	if a == nil || a.kind.AffectsStat() {
		panic("alteration: Set.Add requires a non-nil character-level alteration")
	}
	s.items = append(s.items, a)
}

// Has reports whether any alteration of kind k is active.
func (s *Set) Has(k Kind) bool {
	for _, a := range s.items {
		if a.kind == k {
			return true
		}
	}
	return false
}

// OfKind returns a snapshot of the alterations of kind k in application order.
func (s *Set) OfKind(k Kind) []*Alteration {
	var out []*Alteration
	for _, a := range s.items {
		if a.kind == k {
			out = append(out, a)
		}
	}
	return out
}

// Tick decrements every alteration of the given kinds and removes those that
// reached zero.
//
// Postcondition: no alteration in the returned slice remains in the set.
func (s *Set) Tick(kinds ...Kind) []*Alteration {
	match := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		match[k] = true
	}
	var selected, rest []*Alteration
	for _, a := range s.items {
		if match[a.kind] {
			selected = append(selected, a)
		} else {
			rest = append(rest, a)
		}
	}
	kept, expired := Tick(selected)
	if len(expired) == 0 {
		return nil
	}
	keep := make(map[*Alteration]bool, len(kept)+len(rest))
	for _, a := range kept {
		keep[a] = true
	}
	for _, a := range rest {
		keep[a] = true
	}
	next := s.items[:0:0]
	for _, a := range s.items {
		if keep[a] {
			next = append(next, a)
		}
	}
	s.items = next
	return expired
}

// Clear removes every alteration.
func (s *Set) Clear() {
	s.items = nil
}

// All returns a snapshot of the active alterations.
func (s *Set) All() []*Alteration {
	out := make([]*Alteration, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of active alterations.
func (s *Set) Len() int { return len(s.items) }
