// internal/delivery/ws/listener_test.go
package ws

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"forex-quotes-streamer/internal/core/domain/quotes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSub struct {
	msgs chan []byte

	mu     sync.Mutex
	closed bool
}

func newStubSub() *stubSub {
	return &stubSub{msgs: make(chan []byte, 10)}
}

func (s *stubSub) Messages() <-chan []byte {
	return s.msgs
}

func (s *stubSub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.msgs)
	}
	return nil
}

func (s *stubSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *stubSub) push(t *testing.T, msg quotes.BusMessage) {
	t.Helper()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	s.msgs <- payload
}

var testAsset = quotes.Asset{ID: 1, Name: "EURUSD"}

func TestListenerForwardsPoints(t *testing.T) {
	sub := newStubSub()
	transport := &fakeTransport{}

	l := startListener(sub, transport, testAsset, 0)
	sub.push(t, quotes.BusMessage{AssetID: 1, Timestamp: 100, Value: 1.10})
	sub.push(t, quotes.BusMessage{AssetID: 1, Timestamp: 101, Value: 1.11})

	require.Eventually(t, func() bool {
		return len(transport.pointValues()) == 2
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []float64{1.10, 1.11}, transport.pointValues())

	l.Stop()
	assert.True(t, sub.isClosed())
}

func TestListenerSkipsMalformedMessages(t *testing.T) {
	sub := newStubSub()
	transport := &fakeTransport{}

	l := startListener(sub, transport, testAsset, 0)
	sub.msgs <- []byte("not a json payload")
	sub.push(t, quotes.BusMessage{AssetID: 1, Timestamp: 100, Value: 1.10})

	// Некорректное сообщение пропущено, listener жив и доставляет следующее
	require.Eventually(t, func() bool {
		return len(transport.pointValues()) == 1
	}, time.Second, 5*time.Millisecond)

	l.Stop()
}

func TestListenerDropsMessagesUpToCutoff(t *testing.T) {
	sub := newStubSub()
	transport := &fakeTransport{}

	l := startListener(sub, transport, testAsset, 100)
	sub.push(t, quotes.BusMessage{AssetID: 1, Timestamp: 99, Value: 1.09})
	sub.push(t, quotes.BusMessage{AssetID: 1, Timestamp: 100, Value: 1.10})
	sub.push(t, quotes.BusMessage{AssetID: 1, Timestamp: 101, Value: 1.11})

	require.Eventually(t, func() bool {
		return len(transport.pointValues()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []float64{1.11}, transport.pointValues())

	l.Stop()
}

func TestListenerStopWhileIdle(t *testing.T) {
	sub := newStubSub()
	transport := &fakeTransport{}

	// Stop должен вернуться, даже если listener заблокирован на ожидании
	// следующего сообщения шины
	l := startListener(sub, transport, testAsset, 0)

	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop не завершился")
	}

	assert.True(t, sub.isClosed())
	assert.Empty(t, transport.messages())
}

func TestListenerStopsOnClosedSubscription(t *testing.T) {
	sub := newStubSub()
	transport := &fakeTransport{}

	l := startListener(sub, transport, testAsset, 0)
	sub.Close()

	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop не завершился после закрытия подписки")
	}
}
