package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer(t *testing.T) {
	t.Run("fifo order", func(t *testing.T) {
		b := NewRingBuffer(4)
		for _, a := range []Action{ActionSessionStarted, ActionHeadMovement, ActionSessionSubmitted} {
			b.Enqueue(Event{Action: a})
		}
		got := b.DequeueBatch(10)
		assert.Equal(t, []Action{ActionSessionStarted, ActionHeadMovement, ActionSessionSubmitted}, actions(got))
		assert.Equal(t, 0, b.Len())
	})

	t.Run("overflow drops the oldest", func(t *testing.T) {
		b := NewRingBuffer(2)
		assert.False(t, b.Enqueue(Event{Detail: "1"}))
		assert.False(t, b.Enqueue(Event{Detail: "2"}))
		assert.True(t, b.Enqueue(Event{Detail: "3"}))

		got := b.DequeueBatch(2)
		assert.Equal(t, "2", got[0].Detail)
		assert.Equal(t, "3", got[1].Detail)
		assert.Equal(t, int64(1), b.Dropped())
	})

	t.Run("batch bounded by n and wraps", func(t *testing.T) {
		b := NewRingBuffer(3)
		b.Enqueue(Event{Detail: "a"})
		b.Enqueue(Event{Detail: "b"})
		assert.Len(t, b.DequeueBatch(1), 1)
		b.Enqueue(Event{Detail: "c"})
		b.Enqueue(Event{Detail: "d"})

		got := b.DequeueBatch(5)
		assert.Equal(t, []string{"b", "c", "d"}, details(got))
		assert.Nil(t, b.DequeueBatch(1))
	})

	t.Run("non-positive capacity uses default", func(t *testing.T) {
		assert.Equal(t, 1024, NewRingBuffer(0).capacity)
	})
}

func actions(events []Event) []Action {
	out := make([]Action, len(events))
	for i, e := range events {
		out[i] = e.Action
	}
	return out
}

func details(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Detail
	}
	return out
}
