package subscription_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GraceTang323/LinkedUp/internal/subscription"
)

func TestStream_EmitAndReceive(t *testing.T) {
	s := subscription.New[int]()

	assert.True(t, s.Emit(1))

	select {
	case v := <-s.C():
		assert.Equal(t, 1, v)
	case <-time.After(time.Second):
		t.Fatal("expected an emission")
	}
}

func TestStream_ConflatesWhenConsumerLags(t *testing.T) {
	s := subscription.New[int]()

	// consumer never reads between these; the newer snapshot wins
	assert.True(t, s.Emit(1))
	assert.True(t, s.Emit(2))

	v := <-s.C()
	assert.Equal(t, 2, v)
}

func TestStream_CancelIsIdempotent(t *testing.T) {
	s := subscription.New[int]()

	s.Cancel()
	s.Cancel() // must not panic

	assert.False(t, s.Emit(7), "no emissions accepted after cancel")
	assert.NoError(t, s.Err())
}

func TestStream_FailRecordsFirstError(t *testing.T) {
	s := subscription.New[int]()
	cause := errors.New("listener torn down")

	s.Fail(cause)
	s.Fail(errors.New("later error"))
	s.Close()

	_, open := <-s.C()
	require.False(t, open)
	assert.Equal(t, cause, s.Err())
}

func TestStream_ProducerStopsOnCancel(t *testing.T) {
	s := subscription.New[int]()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		defer s.Close()
		for i := 0; ; i++ {
			if !s.Emit(i) {
				return
			}
		}
	}()

	// drain a few then cancel
	<-s.C()
	s.Cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("producer did not stop after cancel")
	}
}
