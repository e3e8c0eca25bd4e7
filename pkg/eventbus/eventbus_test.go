package eventbus_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiorodrigo10/Operabase-sub001/pkg/eventbus"
)

type orderCreated struct {
	ID string
}

func newTestBus() eventbus.EventBus {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(logger)
}

func TestEventBus_PublishReachesMatchingSubscriber(t *testing.T) {
	t.Parallel()
	bus := newTestBus()

	var received *orderCreated
	bus.Subscribe(func(e *orderCreated) {
		received = e
	})

	bus.Publish(&orderCreated{ID: "abc"})

	require.NotNil(t, received)
	assert.Equal(t, "abc", received.ID)
}

func TestEventBus_SignatureMismatchIsIgnored(t *testing.T) {
	t.Parallel()
	bus := newTestBus()

	called := false
	bus.Subscribe(func(s string) {
		called = true
	})

	bus.Publish(&orderCreated{ID: "abc"})
	assert.False(t, called)
}

func TestEventBus_PanickingHandlerDoesNotPropagate(t *testing.T) {
	t.Parallel()
	bus := newTestBus()

	bus.Subscribe(func(e *orderCreated) {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		bus.Publish(&orderCreated{ID: "abc"})
	})
}

func TestEventBus_Unsubscribe(t *testing.T) {
	t.Parallel()
	bus := newTestBus()

	handler := func(e *orderCreated) {}
	bus.Subscribe(handler)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Unsubscribe(handler)
	assert.Equal(t, 0, bus.SubscribersCount())
}

func TestMatchSignature(t *testing.T) {
	t.Parallel()

	assert.True(t, eventbus.MatchSignature(func(e *orderCreated) {}, []interface{}{&orderCreated{}}))
	assert.False(t, eventbus.MatchSignature(func(e *orderCreated, extra int) {}, []interface{}{&orderCreated{}}))
	assert.False(t, eventbus.MatchSignature("not a func", []interface{}{&orderCreated{}}))
}
