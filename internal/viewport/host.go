package viewport

import "sync"

// FrameID identifies a pending frame request. Zero is never issued.
type FrameID uint64

type frameRequest struct {
	id FrameID
	fn func()
}

// FrameQueue is a Scheduler backends embed. Callbacks requested while a
// flush is running are deferred to the next flush.
type FrameQueue struct {
	mu      sync.Mutex
	next    FrameID
	pending []frameRequest
}

func (q *FrameQueue) RequestFrame(fn func()) FrameID {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	q.pending = append(q.pending, frameRequest{id: q.next, fn: fn})
	return q.next
}

func (q *FrameQueue) CancelFrame(id FrameID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, r := range q.pending {
		if r.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

func (q *FrameQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush runs every callback that was pending when it was called and
// returns how many ran.
func (q *FrameQueue) Flush() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, r := range batch {
		r.fn()
	}
	return len(batch)
}

type listener struct {
	id int
	fn func()
}

// Dispatcher is an Events implementation backends embed.
type Dispatcher struct {
	mu        sync.Mutex
	next      int
	listeners map[Event][]listener
}

func (d *Dispatcher) Listen(ev Event, fn func()) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listeners == nil {
		d.listeners = make(map[Event][]listener)
	}
	d.next++
	id := d.next
	d.listeners[ev] = append(d.listeners[ev], listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { d.remove(ev, id) })
	}
}

func (d *Dispatcher) remove(ev Event, id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ls := d.listeners[ev]
	for i, l := range ls {
		if l.id == id {
			d.listeners[ev] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// Dispatch calls the listeners for ev in registration order and returns how many ran.
func (d *Dispatcher) Dispatch(ev Event) int {
	d.mu.Lock()
	ls := append([]listener(nil), d.listeners[ev]...)
	d.mu.Unlock()

	for _, l := range ls {
		l.fn()
	}
	return len(ls)
}

func (d *Dispatcher) Listeners(ev Event) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[ev])
}
