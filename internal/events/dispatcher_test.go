package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(EventQuoteCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventQuoteCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventQuoteAssigned, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventQuoteCreated, QuoteID: "q1"}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestSinksSeeEveryEventAfterHandlers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.SubscribeAll(func(_ context.Context, e Event) error {
		calls = append(calls, "sink:"+string(e.Type))
		return nil
	})
	d.Subscribe(EventQuoteCreated, func(context.Context, Event) error {
		panic("handler bug")
	})
	d.Subscribe(EventQuoteCreated, func(context.Context, Event) error {
		calls = append(calls, "created")
		return nil
	})

	ctx := context.Background()
	require.NoError(t, d.Publish(ctx, Event{Type: EventQuoteCreated}))
	require.NoError(t, d.Publish(ctx, Event{Type: EventQuoteFilesChanged}))
	assert.Equal(t, []string{"created", "sink:quote_created", "sink:quote_files_changed"}, calls)
}
