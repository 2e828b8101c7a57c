package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopRecorder_NeverPanics(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.MarkBusy(context.Background(), 1, time.Second)
		r.ClearBusy(context.Background(), 1)
	})
}

func TestLeaseKey_IsStablePerConversation(t *testing.T) {
	assert.Equal(t, "doctalk:lease:conv:42", leaseKey(42))
	assert.NotEqual(t, leaseKey(1), leaseKey(2))
}
