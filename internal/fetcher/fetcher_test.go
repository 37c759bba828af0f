// internal/fetcher/fetcher_test.go
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"forex-quotes-streamer/internal/core/domain/quotes"
	"forex-quotes-streamer/internal/core/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	rates []quotes.Rate
	err   error
}

func (f *fakeFeed) FetchRates(ctx context.Context, symbols map[string]int) ([]quotes.Rate, error) {
	return f.rates, f.err
}

type fakeStore struct {
	mu      sync.Mutex
	batches [][]quotes.Quote
	err     error
	delay   time.Duration
}

func (s *fakeStore) AppendQuotes(ctx context.Context, batch []quotes.Quote) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, batch)
	return nil
}

type published struct {
	channel string
	payload []byte
}

type fakeBus struct {
	mu        sync.Mutex
	published []published
	err       error
}

func (b *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, published{channel: channel, payload: payload})
	return nil
}

func testRegistry() *registry.Registry {
	return registry.New(map[int]string{1: "EURUSD", 2: "USDJPY"})
}

func TestRunCyclePersistsAndPublishes(t *testing.T) {
	feed := &fakeFeed{rates: []quotes.Rate{
		{AssetID: 1, Value: 1.11},
		{AssetID: 2, Value: 150.5},
	}}
	store := &fakeStore{}
	bus := &fakeBus{}

	f := NewFetcher(feed, NewDualSink(store, bus), testRegistry())
	f.runCycle(context.Background())

	require.Len(t, store.batches, 1)
	require.Len(t, store.batches[0], 2)
	require.Len(t, bus.published, 2)

	assert.Equal(t, "quote: 1", bus.published[0].channel)
	assert.Equal(t, "quote: 2", bus.published[1].channel)

	var msg quotes.BusMessage
	require.NoError(t, json.Unmarshal(bus.published[0].payload, &msg))
	assert.Equal(t, 1, msg.AssetID)
	assert.InDelta(t, 1.11, msg.Value, 1e-9)
}

func TestRunCycleSharedTimestamp(t *testing.T) {
	feed := &fakeFeed{rates: []quotes.Rate{
		{AssetID: 1, Value: 1.11},
		{AssetID: 2, Value: 150.5},
	}}
	store := &fakeStore{}
	bus := &fakeBus{}

	f := NewFetcher(feed, NewDualSink(store, bus), testRegistry())
	f.runCycle(context.Background())

	require.Len(t, store.batches, 1)
	batch := store.batches[0]
	require.Len(t, batch, 2)

	// Все котировки одного цикла несут одну метку времени, UTC, секундная точность
	assert.Equal(t, batch[0].Date, batch[1].Date)
	assert.Equal(t, time.UTC, batch[0].Date.Location())
	assert.Zero(t, batch[0].Date.Nanosecond())
}

func TestRunCycleFeedErrorIsNoop(t *testing.T) {
	feed := &fakeFeed{err: errors.New("connection refused")}
	store := &fakeStore{}
	bus := &fakeBus{}

	f := NewFetcher(feed, NewDualSink(store, bus), testRegistry())
	f.runCycle(context.Background())

	assert.Empty(t, store.batches)
	assert.Empty(t, bus.published)
}

func TestRunCycleEmptyBatchIsNoop(t *testing.T) {
	feed := &fakeFeed{rates: nil}
	store := &fakeStore{}
	bus := &fakeBus{}

	f := NewFetcher(feed, NewDualSink(store, bus), testRegistry())
	f.runCycle(context.Background())

	assert.Empty(t, store.batches)
	assert.Empty(t, bus.published)
}

func TestDualSinkStoreFailureDoesNotBlockPublish(t *testing.T) {
	store := &fakeStore{err: errors.New("store unavailable")}
	bus := &fakeBus{}

	sink := NewDualSink(store, bus)
	sink.Write(context.Background(), []quotes.Quote{
		{AssetID: 1, Date: time.Now().UTC().Truncate(time.Second), Value: 1.11},
	})

	assert.Len(t, bus.published, 1)
}

func TestDualSinkBusFailureDoesNotBlockPersist(t *testing.T) {
	store := &fakeStore{}
	bus := &fakeBus{err: errors.New("bus unavailable")}

	sink := NewDualSink(store, bus)
	sink.Write(context.Background(), []quotes.Quote{
		{AssetID: 1, Date: time.Now().UTC().Truncate(time.Second), Value: 1.11},
	})

	assert.Len(t, store.batches, 1)
}

func TestFetcherStartStop(t *testing.T) {
	feed := &fakeFeed{rates: []quotes.Rate{{AssetID: 1, Value: 1.11}}}
	store := &fakeStore{}
	bus := &fakeBus{}

	f := NewFetcher(feed, NewDualSink(store, bus), testRegistry())
	require.NoError(t, f.Start(10*time.Millisecond))
	assert.Error(t, f.Start(10*time.Millisecond), "повторный Start должен вернуть ошибку")

	time.Sleep(35 * time.Millisecond)
	f.Stop()

	store.mu.Lock()
	cycles := len(store.batches)
	store.mu.Unlock()

	// Первоначальный запрос плюс как минимум один тик
	assert.GreaterOrEqual(t, cycles, 2)

	// Stop идемпотентен
	f.Stop()
}
