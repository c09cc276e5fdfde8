package events

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SendReceive(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	require.NoError(t, bus.Send(ServerStarted{Address: "127.0.0.1:3030"}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	env, err := bus.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, ServerStarted{Address: "127.0.0.1:3030"}, env.Event)
	assert.NotZero(t, env.ID)
	assert.False(t, env.At.IsZero())
}

func TestBus_ReceiveBlocksUntilSend(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	got := make(chan Envelope, 1)
	go func() {
		env, err := bus.Receive(context.Background())
		if err == nil {
			got <- env
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, bus.Send(QuitRequested{}))

	select {
	case env := <-got:
		assert.Equal(t, "quit_requested", env.Event.Name())
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not return after Send")
	}
}

func TestBus_SendAfterCloseIsAbsorbed(t *testing.T) {
	bus := NewBus()
	bus.Close()
	bus.Close() // idempotent

	assert.ErrorIs(t, bus.Send(ActionRequested{}), ErrBusClosed)
	assert.Equal(t, 0, bus.Len())

	_, err := bus.Receive(context.Background())
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestBus_CloseDiscardsQueued(t *testing.T) {
	bus := NewBus()
	require.NoError(t, bus.Send(ActionRequested{}))
	require.NoError(t, bus.Send(QuitRequested{}))
	bus.Close()

	_, ok := bus.TryReceive()
	assert.False(t, ok)
}

func TestBus_ReceiveHonoursContext(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := bus.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBus_SendNeverBlocks(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			_ = bus.Send(ServerFailed{Message: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Send blocked with no consumer")
	}
	assert.Equal(t, 10000, bus.Len())
}

func TestBus_PerProducerOrdering(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = bus.Send(UpdateCheckFailed{Message: fmt.Sprintf("%d:%d", p, i)})
			}
		}(p)
	}
	wg.Wait()

	last := make(map[int]int)
	for p := 0; p < producers; p++ {
		last[p] = -1
	}
	for i := 0; i < producers*perProducer; i++ {
		env, ok := bus.TryReceive()
		require.True(t, ok)
		var p, seq int
		_, err := fmt.Sscanf(env.Event.(UpdateCheckFailed).Message, "%d:%d", &p, &seq)
		require.NoError(t, err)
		assert.Greater(t, seq, last[p], "producer %d delivered out of order", p)
		last[p] = seq
	}
	_, ok := bus.TryReceive()
	assert.False(t, ok)
}

func TestBus_OnSendHook(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var names []string
	bus.OnSend(func(env Envelope) { names = append(names, env.Event.Name()) })

	require.NoError(t, bus.Send(ActionRequested{}))
	require.NoError(t, bus.Send(CloseWindowRequested{Surface: SurfacePrimary}))

	assert.Equal(t, []string{"action_requested", "close_window_requested"}, names)
}

func TestBus_RejectsNilEvent(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	assert.Error(t, bus.Send(nil))
}
