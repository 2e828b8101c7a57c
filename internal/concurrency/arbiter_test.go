package concurrency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sourabsb/doctalk/internal/types"
)

func TestAcquireConversation_SerializesSameConversation(t *testing.T) {
	a := New(200*time.Millisecond, time.Second, 2, nil)

	release, err := a.AcquireConversation(context.Background(), 1)
	require.NoError(t, err)

	_, err = a.AcquireConversation(context.Background(), 1)
	assert.Error(t, err)

	release()

	release2, err := a.AcquireConversation(context.Background(), 1)
	require.NoError(t, err)
	release2()
}

func TestAcquireConversation_DifferentConversationsDoNotBlock(t *testing.T) {
	a := New(200*time.Millisecond, time.Second, 2, nil)

	release1, err := a.AcquireConversation(context.Background(), 1)
	require.NoError(t, err)
	defer release1()

	release2, err := a.AcquireConversation(context.Background(), 2)
	require.NoError(t, err)
	defer release2()
}

func TestAcquireConversation_ReleaseIsIdempotent(t *testing.T) {
	a := New(200*time.Millisecond, time.Second, 2, nil)

	release, err := a.AcquireConversation(context.Background(), 1)
	require.NoError(t, err)
	release()
	assert.NotPanics(t, func() { release() })

	_, err = a.AcquireConversation(context.Background(), 1)
	assert.NoError(t, err)
}

func TestAcquireLocal_CapsConcurrentLocalCalls(t *testing.T) {
	a := New(time.Second, 150*time.Millisecond, 1, nil)

	release, err := a.AcquireLocal(context.Background(), types.LLMModeLocal)
	require.NoError(t, err)
	defer release()

	_, err = a.AcquireLocal(context.Background(), types.LLMModeLocal)
	assert.Error(t, err)
}

func TestAcquireLocal_NonLocalModeIsNoop(t *testing.T) {
	a := New(time.Second, 150*time.Millisecond, 1, nil)

	release1, err := a.AcquireLocal(context.Background(), types.LLMModeCloud)
	require.NoError(t, err)
	defer release1()

	release2, err := a.AcquireLocal(context.Background(), types.LLMModeCloud)
	require.NoError(t, err)
	defer release2()
}
