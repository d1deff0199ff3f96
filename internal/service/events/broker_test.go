package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPublishReachesSessionSubscribersOnly(t *testing.T) {
	b := NewBroker()
	a := b.Subscribe("a")
	other := b.Subscribe("b")
	defer a.Cancel()
	defer other.Cancel()

	b.Publish("a", TypeTyping, map[string]bool{"typing": true})

	evt := <-a.C
	assert.Equal(t, TypeTyping, evt.Type)
	assert.Equal(t, "a", evt.SessionID)
	assert.NotZero(t, evt.Timestamp)

	select {
	case evt := <-other.C:
		t.Fatalf("unexpected event for other session: %+v", evt)
	default:
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("s")
	defer sub.Cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish("s", TypeMessage, i)
	}
	assert.Len(t, sub.C, subscriberBuffer)
}

func TestCancelClosesChannel(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("s")
	require.Equal(t, 1, b.Subscribers("s"))

	sub.Cancel()
	sub.Cancel()

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Equal(t, 0, b.Subscribers("s"))
}

func TestCloseSessionNotifiesAndDetaches(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("s")

	b.CloseSession("s")

	evt, ok := <-sub.C
	require.True(t, ok)
	assert.Equal(t, TypeClosed, evt.Type)

	_, ok = <-sub.C
	assert.False(t, ok)
	assert.Equal(t, 0, b.Subscribers("s"))

	sub.Cancel()
}

func TestConcurrentPublishAndCancel(t *testing.T) {
	b := NewBroker()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := b.Subscribe("s")
			for j := 0; j < 20; j++ {
				b.Publish("s", TypeMessage, j)
			}
			sub.Cancel()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, b.Subscribers("s"))
}
