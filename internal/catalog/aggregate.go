package catalog

// Aggregator folds catalog rows that describe one entity per member column
// into deduplicated entities, keyed by a composite identity string and kept in
// first-seen order.
type Aggregator[E any] struct {
	order []*E
	byKey map[string]*E
}

// NewAggregator creates an empty aggregator.
func NewAggregator[E any]() *Aggregator[E] {
	return &Aggregator[E]{byKey: make(map[string]*E)}
}

// Fold returns the entity registered under key, creating it with create on
// first sight. Entity-level attributes are taken from the first row only.
func (a *Aggregator[E]) Fold(key string, create func() *E) *E {
	if e, ok := a.byKey[key]; ok {
		return e
	}
	e := create()
	a.byKey[key] = e
	a.order = append(a.order, e)
	return e
}

// Len returns the number of distinct entities.
func (a *Aggregator[E]) Len() int { return len(a.order) }

// Entities returns the entities in first-seen order.
func (a *Aggregator[E]) Entities() []*E {
	out := make([]*E, len(a.order))
	copy(out, a.order)
	return out
}
