package event

import (
	"context"
	"testing"

	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

// mockHandler implements EventHandler for testing
type mockHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
}

func newMockHandler(eventTypes ...string) *mockHandler {
	return &mockHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

func (h *mockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.handled = append(h.handled, event)
	return nil
}

func (h *mockHandler) EventTypes() []string {
	return h.eventTypes
}

func TestHandlerRegistry_Register_SpecificTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler("BillGenerated", "BillSent")

	registry.Register(handler, "BillGenerated", "BillSent")

	handlers := registry.GetHandlers("BillGenerated")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("BillSent")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("BillPaid")
	assert.Len(t, handlers, 0)
}

func TestHandlerRegistry_Register_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler() // No event types = wildcard

	registry.Register(handler)

	handlers := registry.GetHandlers("BillGenerated")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("AnyEventType")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])
}

func TestHandlerRegistry_Register_MixedTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	specificHandler := newMockHandler("BillGenerated")
	wildcardHandler := newMockHandler()

	registry.Register(specificHandler, "BillGenerated")
	registry.Register(wildcardHandler)

	handlers := registry.GetHandlers("BillGenerated")
	assert.Len(t, handlers, 2)

	handlers = registry.GetHandlers("OtherEvent")
	assert.Len(t, handlers, 1)
	assert.Equal(t, wildcardHandler, handlers[0])
}

func TestHandlerRegistry_Unregister_SpecificHandler(t *testing.T) {
	registry := NewHandlerRegistry()
	handler1 := newMockHandler("BillGenerated")
	handler2 := newMockHandler("BillGenerated")

	registry.Register(handler1, "BillGenerated")
	registry.Register(handler2, "BillGenerated")

	handlers := registry.GetHandlers("BillGenerated")
	assert.Len(t, handlers, 2)

	registry.Unregister(handler1)

	handlers = registry.GetHandlers("BillGenerated")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler2, handlers[0])
}

func TestHandlerRegistry_Unregister_WildcardHandler(t *testing.T) {
	registry := NewHandlerRegistry()
	wildcardHandler := newMockHandler()

	registry.Register(wildcardHandler)

	handlers := registry.GetHandlers("AnyEvent")
	assert.Len(t, handlers, 1)

	registry.Unregister(wildcardHandler)

	handlers = registry.GetHandlers("AnyEvent")
	assert.Len(t, handlers, 0)
}

func TestHandlerRegistry_Count(t *testing.T) {
	registry := NewHandlerRegistry()
	handler1 := newMockHandler("BillGenerated")
	handler2 := newMockHandler("AnomalyDetected")
	wildcardHandler := newMockHandler()

	registry.Register(handler1, "BillGenerated")
	registry.Register(handler2, "AnomalyDetected")
	registry.Register(wildcardHandler)

	assert.Equal(t, 3, registry.Count())
}

func TestHandlerRegistry_Count_NoDuplicates(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler("BillGenerated", "BillSent")

	registry.Register(handler, "BillGenerated", "BillSent")

	assert.Equal(t, 1, registry.Count())
}
