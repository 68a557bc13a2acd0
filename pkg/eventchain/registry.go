package eventchain

import "slices"

// registry stores the ordered listener records of each event name.
type registry struct {
	events map[string][]*listenerRecord
	// names keeps event names in first-registration order.
	names []string
}

func newRegistry() *registry {
	return &registry{
		events: make(map[string][]*listenerRecord),
	}
}

// listeners returns the live list for event. Callers must not retain it
// across mutations.
func (r *registry) listeners(event string) []*listenerRecord {
	return r.events[event]
}

func (r *registry) count(event string) int {
	return len(r.events[event])
}

func (r *registry) insert(event string, rec *listenerRecord, prepend bool) {
	list, ok := r.events[event]
	if !ok {
		r.names = append(r.names, event)
	}
	if prepend {
		list = slices.Insert(list, 0, rec)
	} else {
		list = append(list, rec)
	}
	r.events[event] = list
}

// detach removes one record by identity and forgets event once its list is
// empty. It is a no-op if the record is already gone.
func (r *registry) detach(event string, rec *listenerRecord) {
	list := r.events[event]
	i := slices.Index(list, rec)
	if i < 0 {
		return
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		r.drop(event)
		return
	}
	r.events[event] = list
}

// remove deletes every non-protected record accepted by match and returns
// the number removed along with the surviving records.
func (r *registry) remove(event string, match func(*listenerRecord) bool) (int, []*listenerRecord) {
	list, ok := r.events[event]
	if !ok {
		return 0, nil
	}

	kept := make([]*listenerRecord, 0, len(list))
	removed := 0
	for _, rec := range list {
		if !rec.protected && match(rec) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	r.events[event] = kept
	return removed, kept
}

// drop forgets event entirely.
func (r *registry) drop(event string) {
	if _, ok := r.events[event]; !ok {
		return
	}
	delete(r.events, event)
	if i := slices.Index(r.names, event); i >= 0 {
		r.names = slices.Delete(r.names, i, i+1)
	}
}

// eventNames returns registered event names in first-registration order.
func (r *registry) eventNames() []string {
	return slices.Clone(r.names)
}
