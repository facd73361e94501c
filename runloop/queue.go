// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runloop

// Package-level default queue capacity. All three pipeline queues
// (NBIO, image, HTTP) are constructed with this capacity.
const defaultQueueCapacity = 8

// queueEntry is one pending Request with its scheduling metadata.
// Priority and duration are carried through verbatim; this package does
// not interpret them beyond FIFO ordering (the original C runloop does
// not either — priority/duration are passed to msg_queue_push but the
// queue itself is a plain ring).
type queueEntry struct {
	text     string
	priority int
	duration int
}

// Queue is a bounded FIFO of textual Requests (C1: Bounded message
// queue). Capacity is fixed at construction. Queue has no internal
// locking; callers running in threaded mode serialize access via
// Runloop's state lock.
type Queue struct {
	cap     int
	entries []queueEntry
}

// NewQueue returns a Queue with the given capacity. A non-positive
// capacity is treated as defaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &Queue{cap: capacity, entries: make([]queueEntry, 0, capacity)}
}

// Push appends msg to the queue. If the queue is already at capacity,
// msg is dropped (newest discarded) and Push returns false.
func (q *Queue) Push(msg string, priority, duration int) bool {
	if len(q.entries) >= q.cap {
		return false
	}
	q.entries = append(q.entries, queueEntry{text: msg, priority: priority, duration: duration})
	return true
}

// Pull removes and returns the head Request, or ("", false) if empty.
func (q *Queue) Pull() (string, bool) {
	if len(q.entries) == 0 {
		return "", false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e.text, true
}

// Clear removes all pending Requests without invoking any callback.
func (q *Queue) Clear() {
	q.entries = q.entries[:0]
}

// Len reports the number of Requests currently queued.
func (q *Queue) Len() int {
	return len(q.entries)
}
