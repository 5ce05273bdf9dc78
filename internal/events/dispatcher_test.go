package events

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/ecobazaar-auth/internal/domain"
)

func TestDispatcherInvokesSubscribersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher()
	user := &domain.User{ID: "u1", Email: "jane@x.com", Role: domain.RoleCustomer}

	var order []string
	d.Subscribe(EventUserLoggedIn, func(_ context.Context, _ Event) error {
		order = append(order, "first")
		return nil
	})
	d.Subscribe(EventUserLoggedIn, func(_ context.Context, _ Event) error {
		order = append(order, "second")
		return nil
	})

	if err := d.Publish(context.Background(), NewEvent(EventUserLoggedIn, user)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected handler order: %v", order)
	}
}

func TestDispatcherFailingHandlerDoesNotBlockOthers(t *testing.T) {
	d := NewInMemoryDispatcher()
	user := &domain.User{ID: "u1", Email: "jane@x.com", Role: domain.RoleCustomer}

	called := false
	d.Subscribe(EventUserRegistered, func(_ context.Context, _ Event) error {
		return errors.New("audit sink down")
	})
	d.Subscribe(EventUserRegistered, func(_ context.Context, _ Event) error {
		called = true
		return nil
	})

	if err := d.Publish(context.Background(), NewEvent(EventUserRegistered, user)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if !called {
		t.Fatal("second handler must run despite the first failing")
	}
}

func TestDispatcherIgnoresUnsubscribedTypes(t *testing.T) {
	d := NewInMemoryDispatcher()
	user := &domain.User{ID: "u1", Email: "jane@x.com", Role: domain.RoleCustomer}

	if err := d.Publish(context.Background(), NewEvent(EventTokenRefreshed, user)); err != nil {
		t.Fatalf("publish with no subscribers failed: %v", err)
	}
}

func TestNewEventCarriesAccountMetadata(t *testing.T) {
	user := &domain.User{ID: "u1", Email: "jane@x.com", Role: domain.RoleShopkeeper}

	event := NewEvent(EventUserRegistered, user)
	if event.ID == "" {
		t.Fatal("expected generated event id")
	}
	if event.UserID != "u1" || event.Email != "jane@x.com" || event.Role != domain.RoleShopkeeper {
		t.Fatalf("unexpected event payload: %+v", event)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
}
