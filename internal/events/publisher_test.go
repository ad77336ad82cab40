package events

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	payloads []string
	block    chan struct{}
}

func (s *recordingSink) Broadcast(_ context.Context, payload []byte) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, string(payload))
}

func (s *recordingSink) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.payloads...)
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

func TestDispatcher_DeliversToSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recordingSink{}
	d := NewDispatcher(sink, 8, newTestLogger())
	d.Start(ctx)

	require.NoError(t, d.Publish(ctx, NewIncidentDeletedMessage(42)))
	require.NoError(t, d.Publish(ctx, NewAlarmMessage("Brand in Halle 3")))

	require.Eventually(t, func() bool { return len(sink.received()) == 2 }, time.Second, 5*time.Millisecond)
	got := sink.received()
	assert.JSONEq(t, `{"type":"incident_deleted","incident_id":42}`, got[0])
	assert.JSONEq(t, `{"type":"alarm","message":"Brand in Halle 3"}`, got[1])
}

func TestDispatcher_PublishNeverBlocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(sink, 1, newTestLogger())
	d.Start(ctx)

	// первое сообщение забирает воркер и блокируется в sink, второе занимает буфер
	require.NoError(t, d.Publish(ctx, NewVehicleDeletedMessage(1)))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, d.Publish(ctx, NewVehicleDeletedMessage(2)))

	done := make(chan error, 1)
	go func() { done <- d.Publish(ctx, NewVehicleDeletedMessage(3)) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}

	close(sink.block)
	assert.Eventually(t, func() bool { return len(sink.received()) == 2 }, time.Second, 5*time.Millisecond)
}

type panickingSink struct{ calls int }

func (p *panickingSink) Broadcast(context.Context, []byte) {
	p.calls++
	panic("sink exploded")
}

func TestDispatcher_SurvivesPanickingSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &panickingSink{}
	d := NewDispatcher(sink, 4, newTestLogger())

	assert.NotPanics(t, func() {
		d.dispatch(ctx, NewAlarmMessage("a"))
		d.dispatch(ctx, NewAlarmMessage("b"))
	})
	assert.Equal(t, 2, sink.calls)
}
