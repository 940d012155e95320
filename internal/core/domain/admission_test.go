package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_IsStale(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{Token: "t", LastActivity: now.Add(-10 * time.Minute)}

	assert.True(t, s.IsStale(now, 5*time.Minute))
	assert.False(t, s.IsStale(now, 15*time.Minute))
	assert.False(t, s.IsStale(now, 0), "a zero timeout disables expiry")

	s.LastActivity = now.Add(-5 * time.Minute)
	assert.False(t, s.IsStale(now, 5*time.Minute), "exactly at the timeout is still live")
}

func TestQueueStatus_Processing(t *testing.T) {
	assert.True(t, QueueStatus{Connected: true, Position: PositionProcessing}.Processing())
	assert.False(t, QueueStatus{Connected: true, Position: 2}.Processing())
	assert.False(t, QueueStatus{Position: PositionIdle}.Processing())
}

func TestChatRequest_LastAssistantTurn(t *testing.T) {
	req := ChatRequest{History: []ChatMessage{
		{Role: RoleUser, Content: "tell me about Karnak"},
		{Role: RoleAssistant, Content: "Karnak is a temple complex."},
		{Role: RoleUser, Content: "how old is it?"},
	}}
	assert.Equal(t, "Karnak is a temple complex.", req.LastAssistantTurn())

	assert.Empty(t, (&ChatRequest{}).LastAssistantTurn())
}
