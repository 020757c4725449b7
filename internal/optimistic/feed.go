// Package optimistic keeps a list where locally created items show up immediately under a
// placeholder id and are later swapped for the stored item or dropped.
package optimistic

import (
	"strings"

	"github.com/google/uuid"
)

const tempPrefix = "temp-"

// NewTempID returns a fresh placeholder id.
func NewTempID() string { return tempPrefix + uuid.NewString() }

func IsTemp(id string) bool { return strings.HasPrefix(id, tempPrefix) }

type Entry[T any] struct {
	ID      string `json:"id"`
	Item    T      `json:"item"`
	Pending bool   `json:"pending"`
}

// Feed is an ordered list of entries. Methods return a new Feed and leave the receiver as is.
type Feed[T any] struct {
	entries []Entry[T]
}

func FromItems[T any](items []T, id func(T) string) Feed[T] {
	out := make([]Entry[T], 0, len(items))
	for _, it := range items {
		out = append(out, Entry[T]{ID: id(it), Item: it})
	}
	return Feed[T]{entries: out}
}

// Apply appends item as a pending placeholder under tempID.
func (f Feed[T]) Apply(tempID string, item T) Feed[T] {
	if f.index(tempID) >= 0 {
		return f
	}
	return Feed[T]{entries: append(f.clone(), Entry[T]{ID: tempID, Item: item, Pending: true})}
}

// Resolve replaces the placeholder with the stored item. When id is already present (the stored
// item arrived some other way first) the placeholder is just removed. Without a placeholder the
// item is appended.
func (f Feed[T]) Resolve(tempID, id string, item T) Feed[T] {
	out := f.clone()
	if i := f.index(id); i >= 0 {
		out[i] = Entry[T]{ID: id, Item: item}
		return Feed[T]{entries: remove(out, tempID)}
	}
	for i := range out {
		if out[i].ID == tempID {
			out[i] = Entry[T]{ID: id, Item: item}
			return Feed[T]{entries: out}
		}
	}
	return Feed[T]{entries: append(out, Entry[T]{ID: id, Item: item})}
}

// Discard drops the placeholder.
func (f Feed[T]) Discard(tempID string) Feed[T] {
	return Feed[T]{entries: remove(f.clone(), tempID)}
}

func (f Feed[T]) Entries() []Entry[T] { return f.clone() }

func (f Feed[T]) Items() []T {
	out := make([]T, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Item)
	}
	return out
}

func (f Feed[T]) Len() int { return len(f.entries) }

// Pending counts placeholders still waiting on their call.
func (f Feed[T]) Pending() int {
	n := 0
	for _, e := range f.entries {
		if e.Pending {
			n++
		}
	}
	return n
}

func (f Feed[T]) index(id string) int {
	for i, e := range f.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (f Feed[T]) clone() []Entry[T] {
	return append([]Entry[T](nil), f.entries...)
}

func remove[T any](entries []Entry[T], id string) []Entry[T] {
	out := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}
