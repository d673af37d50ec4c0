package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerPool(t *testing.T) {
	assert := assert.New(t)

	timer1 := GetTimer(time.Second)
	assert.NotNil(timer1)
	PutTimer(timer1)

	timer2 := GetTimer(20 * time.Millisecond)
	assert.NotNil(timer2)

	select {
	case <-timer2.C:
	case <-time.After(time.Second):
		t.Error("reused timer did not fire")
	}
	PutTimer(timer2)
}

func TestSleep(t *testing.T) {
	require := require.New(t)

	begin := time.Now()
	require.NoError(Sleep(context.Background(), 30*time.Millisecond))
	require.GreaterOrEqual(time.Since(begin), 30*time.Millisecond)

	require.NoError(Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	begin = time.Now()
	require.ErrorIs(Sleep(ctx, time.Minute), context.Canceled)
	require.Less(time.Since(begin), time.Second)
}
