package engine

import "sort"

type timer struct {
	key string
	at  float64
	fn  func()
}

// Timers is a set of keyed single-shot callbacks on the engine clock (ms).
// Scheduling a key that is already pending replaces it.
type Timers struct {
	entries map[string]timer
}

// NewTimers creates an empty timer set.
func NewTimers() *Timers {
	return &Timers{entries: make(map[string]timer)}
}

// Schedule arranges for fn to run at the first Fire with now >= at.
func (t *Timers) Schedule(key string, at float64, fn func()) {
	t.entries[key] = timer{key: key, at: at, fn: fn}
}

// Cancel drops a pending timer. Reports whether one was pending.
func (t *Timers) Cancel(key string) bool {
	if _, ok := t.entries[key]; !ok {
		return false
	}
	delete(t.entries, key)
	return true
}

// Pending reports whether key is scheduled.
func (t *Timers) Pending(key string) bool {
	_, ok := t.entries[key]
	return ok
}

// Fire runs every timer due at now, earliest first, and returns how many
// ran. Timers scheduled by a callback wait for the next Fire.
func (t *Timers) Fire(now float64) int {
	var due []timer
	for _, e := range t.entries {
		if e.at <= now {
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		return 0
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].key < due[j].key
	})
	for _, e := range due {
		delete(t.entries, e.key)
	}
	for _, e := range due {
		e.fn()
	}
	return len(due)
}

// Clear cancels everything.
func (t *Timers) Clear() {
	clear(t.entries)
}

// Len returns the number of pending timers.
func (t *Timers) Len() int { return len(t.entries) }
