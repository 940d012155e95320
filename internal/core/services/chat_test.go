package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// stubAnswerer emits a fixed answer and records which tokens it served
type stubAnswerer struct {
	mu     sync.Mutex
	served []string
	err    error
}

func (s *stubAnswerer) Stream(ctx context.Context, req domain.ChatRequest, emit func(domain.StreamEvent) error) error {
	s.mu.Lock()
	s.served = append(s.served, req.Token)
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := emit(domain.TokenEvent("answer")); err != nil {
		return err
	}
	return emit(domain.DoneEvent(domain.DoneMetadata{}))
}

func (s *stubAnswerer) Served() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.served...)
}

// eventSink collects events from another goroutine
type eventSink struct {
	mu     sync.Mutex
	events []domain.StreamEvent
	status chan string
}

func newEventSink() *eventSink {
	return &eventSink{status: make(chan string, 16)}
}

func (s *eventSink) emit(ev domain.StreamEvent) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	if ev.Type == domain.EventStatus {
		s.status <- ev.Status
	}
	return nil
}

func (s *eventSink) last() domain.StreamEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

func newTestChat() (*AdmissionController, *stubAnswerer, *chatService) {
	admission, _ := newTestAdmission()
	answerer := &stubAnswerer{}
	chat := NewChatService(admission, answerer, 10*time.Millisecond, nil).(*chatService)
	return admission, answerer, chat
}

func TestChatService_RunsImmediatelyWhenFree(t *testing.T) {
	admission, answerer, chat := newTestChat()
	require.NoError(t, admission.TryConnect("tok-a", "alpha").Err)

	sink := newEventSink()
	err := chat.Stream(context.Background(), domain.ChatRequest{Token: "tok-a", Query: "hi"}, sink.emit)
	require.NoError(t, err)

	assert.Equal(t, []string{"tok-a"}, answerer.Served())
	assert.Equal(t, domain.EventDone, sink.last().Type)
	assert.Empty(t, admission.Holder(), "turn released")
	assert.Equal(t, domain.PositionIdle, admission.PositionOf("tok-a"))
}

func TestChatService_Rejections(t *testing.T) {
	_, _, chat := newTestChat()
	noop := func(domain.StreamEvent) error { return nil }

	err := chat.Stream(context.Background(), domain.ChatRequest{Query: "hi"}, noop)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	err = chat.Stream(context.Background(), domain.ChatRequest{Token: "ghost", Query: "hi"}, noop)
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestChatService_WaitsForTurn(t *testing.T) {
	admission, answerer, chat := newTestChat()
	require.NoError(t, admission.TryConnect("tok-a", "alpha").Err)
	require.NoError(t, admission.TryConnect("tok-b", "beta").Err)

	pos, err := admission.RequestTurn("tok-a")
	require.NoError(t, err)
	require.Zero(t, pos)

	sink := newEventSink()
	done := make(chan error, 1)
	go func() {
		done <- chat.Stream(context.Background(), domain.ChatRequest{Token: "tok-b", Query: "hi"}, sink.emit)
	}()

	select {
	case status := <-sink.status:
		assert.Equal(t, "Waiting in queue (position 1)", status)
	case <-time.After(2 * time.Second):
		t.Fatal("no queue status emitted")
	}
	assert.Empty(t, answerer.Served())

	next, ok := admission.FinishTurn("tok-a")
	require.True(t, ok)
	assert.Equal(t, "tok-b", next)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never ran")
	}
	assert.Equal(t, []string{"tok-b"}, answerer.Served())
	assert.Empty(t, admission.Holder())
}

func TestChatService_CancelWhileWaitingLeavesQueue(t *testing.T) {
	admission, answerer, chat := newTestChat()
	require.NoError(t, admission.TryConnect("tok-a", "alpha").Err)
	require.NoError(t, admission.TryConnect("tok-b", "beta").Err)
	_, err := admission.RequestTurn("tok-a")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	sink := newEventSink()
	done := make(chan error, 1)
	go func() {
		done <- chat.Stream(ctx, domain.ChatRequest{Token: "tok-b", Query: "hi"}, sink.emit)
	}()

	<-sink.status
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled waiter did not return")
	}
	assert.Empty(t, admission.Waiting())
	assert.Equal(t, domain.PositionIdle, admission.PositionOf("tok-b"))
	assert.True(t, admission.TouchActivity("tok-b"), "session survives leaving the queue")
	assert.Empty(t, answerer.Served())
}

func TestChatService_EvictedWhileWaiting(t *testing.T) {
	admission, _, chat := newTestChat()
	require.NoError(t, admission.TryConnect("tok-a", "alpha").Err)
	require.NoError(t, admission.TryConnect("tok-b", "beta").Err)
	_, err := admission.RequestTurn("tok-a")
	require.NoError(t, err)

	sink := newEventSink()
	done := make(chan error, 1)
	go func() {
		done <- chat.Stream(context.Background(), domain.ChatRequest{Token: "tok-b", Query: "hi"}, sink.emit)
	}()

	<-sink.status
	require.True(t, admission.TryConnect("tok-c", "beta").TookOver)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("evicted waiter did not return")
	}

	last := sink.last()
	require.Equal(t, domain.EventDone, last.Type)
	require.NotNil(t, last.Done)
	assert.True(t, last.Done.Fallback)
	assert.Equal(t, 1, countEvents(sink, domain.EventDone))
	assert.Equal(t, -1, admission.PositionOf("tok-b"))
	assert.Equal(t, "tok-a", admission.Holder())
}

func TestChatService_EvictedBeforeWaiting(t *testing.T) {
	admission, _, chat := newTestChat()

	err := chat.Stream(context.Background(), domain.ChatRequest{Token: "ghost", Query: "hi"}, func(domain.StreamEvent) error {
		t.Fatal("no event expected for an unknown session")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.Empty(t, admission.Holder())
}

func countEvents(sink *eventSink, typ domain.EventType) int {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	n := 0
	for _, ev := range sink.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestChatService_ReleasesTurnOnError(t *testing.T) {
	admission, answerer, chat := newTestChat()
	answerer.err = errors.New("boom")
	require.NoError(t, admission.TryConnect("tok-a", "alpha").Err)

	err := chat.Stream(context.Background(), domain.ChatRequest{Token: "tok-a", Query: "hi"}, func(domain.StreamEvent) error { return nil })
	assert.Error(t, err)
	assert.Empty(t, admission.Holder())
}

func TestChatService_EmitFailureWhileWaiting(t *testing.T) {
	admission, _, chat := newTestChat()
	require.NoError(t, admission.TryConnect("tok-a", "alpha").Err)
	require.NoError(t, admission.TryConnect("tok-b", "beta").Err)
	_, err := admission.RequestTurn("tok-a")
	require.NoError(t, err)

	gone := errors.New("client gone")
	err = chat.Stream(context.Background(), domain.ChatRequest{Token: "tok-b"}, func(domain.StreamEvent) error { return gone })
	assert.ErrorIs(t, err, gone)
	assert.Empty(t, admission.Waiting())
	assert.Equal(t, "tok-a", admission.Holder())
}

func TestChatService_AbandonAfterPromotion(t *testing.T) {
	admission, _, chat := newTestChat()
	require.NoError(t, admission.TryConnect("tok-a", "alpha").Err)
	require.NoError(t, admission.TryConnect("tok-b", "beta").Err)
	_, _ = admission.RequestTurn("tok-a")
	_, _ = admission.RequestTurn("tok-b")
	admission.FinishTurn("tok-a")
	require.Equal(t, "tok-b", admission.Holder())

	chat.abandon("tok-b")
	assert.Empty(t, admission.Holder(), "a granted turn is released too")
}
