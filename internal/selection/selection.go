// Package selection keeps the set of toggled category ids shared by the
// create-point form and the point browser.
package selection

import "sync"

// Toggle returns a new slice: s without id if id was present, otherwise s
// with id appended. s itself is never modified.
func Toggle[T comparable](s []T, id T) []T {
	if Contains(s, id) {
		out := make([]T, 0, len(s))
		for _, v := range s {
			if v != id {
				out = append(out, v)
			}
		}
		return out
	}

	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, id)
}

func Contains[T comparable](s []T, id T) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Controller owns a selection in insertion order and notifies subscribers
// after every toggle.
type Controller[T comparable] struct {
	mu        sync.RWMutex
	selected  []T
	listeners map[int]func([]T)
	nextID    int
}

func NewController[T comparable]() *Controller[T] {
	return &Controller[T]{
		selected:  []T{},
		listeners: make(map[int]func([]T)),
	}
}

// Toggle flips membership of id and returns the resulting selection.
// Subscribers run synchronously, after the lock is released.
func (c *Controller[T]) Toggle(id T) []T {
	c.mu.Lock()
	c.selected = Toggle(c.selected, id)
	result := c.snapshot()
	listeners := make([]func([]T), 0, len(c.listeners))
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.listeners[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(append([]T(nil), result...))
	}
	return result
}

func (c *Controller[T]) IsSelected(id T) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Contains(c.selected, id)
}

// Selected returns a copy of the selection, oldest first
func (c *Controller[T]) Selected() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

// Subscribe registers fn to receive the selection after every toggle.
// Returns an unsubscribe function.
func (c *Controller[T]) Subscribe(fn func([]T)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Controller[T]) snapshot() []T {
	out := make([]T, len(c.selected))
	copy(out, c.selected)
	return out
}
