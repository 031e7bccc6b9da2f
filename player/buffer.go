package player

import (
	"sync"
	"time"

	"github.com/chibicitiberiu/chordsheet-engine/synth"
)

// pushWait is how long a full buffer blocks the producer before the
// drop policy kicks in.
const pushWait = 50 * time.Millisecond

// EventBuffer is the bounded handoff between the scheduler and the
// sink. A drain goroutine forwards events in FIFO order. When the
// buffer stays full past the back-pressure window, note_offs are the
// last thing dropped so notes cannot get stuck.
type EventBuffer struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	queue    []synth.Event
	capacity int
	closed   bool
	dropped  int

	sink synth.Sink
	done chan struct{}
}

func NewEventBuffer(capacity int, sink synth.Sink) *EventBuffer {
	b := &EventBuffer{
		capacity: capacity,
		sink:     sink,
		done:     make(chan struct{}),
	}
	b.notFull = sync.NewCond(&b.mu)
	b.notEmpty = sync.NewCond(&b.mu)
	go b.drain()
	return b
}

// Push enqueues an event, blocking briefly when full. If the buffer
// is still full afterwards, the oldest droppable event makes room.
func (b *EventBuffer) Push(e synth.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) >= b.capacity && !b.closed {
		b.waitNotFull()
	}
	if b.closed {
		return
	}
	if len(b.queue) >= b.capacity {
		b.dropOldest()
	}
	b.queue = append(b.queue, e)
	b.notEmpty.Signal()
}

// waitNotFull waits up to pushWait for the drain side to make room.
func (b *EventBuffer) waitNotFull() {
	deadline := time.AfterFunc(pushWait, func() {
		b.mu.Lock()
		b.notFull.Broadcast()
		b.mu.Unlock()
	})
	defer deadline.Stop()

	start := time.Now()
	for len(b.queue) >= b.capacity && !b.closed && time.Since(start) < pushWait {
		b.notFull.Wait()
	}
}

// dropOldest removes the oldest event that is not a note_off; only
// when everything pending is a note_off does one of those go.
// Deliberate: a discarded note_on loses one attack, a discarded
// note_off leaves its note sounding until the next all_notes_off.
func (b *EventBuffer) dropOldest() {
	idx := 0
	for i, e := range b.queue {
		if e.Kind != synth.EvNoteOff {
			idx = i
			break
		}
	}
	b.queue = append(b.queue[:idx], b.queue[idx+1:]...)
	b.dropped++
}

// Dropped reports how many events back-pressure discarded.
func (b *EventBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Flush blocks until every queued event has reached the sink.
func (b *EventBuffer) Flush() {
	b.mu.Lock()
	for len(b.queue) > 0 && !b.closed {
		b.notFull.Wait()
	}
	b.mu.Unlock()
}

// Close stops the drain goroutine after the queue empties.
func (b *EventBuffer) Close() {
	b.Flush()
	b.mu.Lock()
	b.closed = true
	b.notEmpty.Broadcast()
	b.notFull.Broadcast()
	b.mu.Unlock()
	<-b.done
}

func (b *EventBuffer) drain() {
	defer close(b.done)
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.notEmpty.Wait()
		}
		if len(b.queue) == 0 && b.closed {
			b.mu.Unlock()
			return
		}
		e := b.queue[0]
		b.queue = b.queue[1:]
		b.notFull.Broadcast()
		b.mu.Unlock()

		b.apply(e)
	}
}

func (b *EventBuffer) apply(e synth.Event) {
	switch e.Kind {
	case synth.EvProgram:
		b.sink.ProgramSelect(e.Channel, e.Pitch)
	case synth.EvNoteOn:
		b.sink.NoteOn(e.Channel, e.Pitch, e.Velocity)
	case synth.EvNoteOff:
		b.sink.NoteOff(e.Channel, e.Pitch)
	case synth.EvAllOff:
		b.sink.AllNotesOff(e.Channel)
	}
}
