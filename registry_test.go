package airlock

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("emails.send_welcome", func() error { return nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok := reg.Lookup("emails.send_welcome"); !ok {
		t.Fatal("expected the task to be resolvable")
	}
	if _, ok := reg.Lookup("emails.send_receipt"); ok {
		t.Fatal("expected an unregistered name to miss")
	}
}

func TestRegistryRejectsBadRegistrations(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("", func() error { return nil }); err == nil {
		t.Fatal("expected an empty name to be rejected")
	}
	if err := reg.Register("emails.send_welcome", nil); err == nil {
		t.Fatal("expected a nil task to be rejected")
	}
	if err := reg.Register("emails.send_welcome", "not callable"); !errors.Is(err, ErrNotCallable) {
		t.Fatalf("expected ErrNotCallable, got %v", err)
	}

	if err := reg.Register("emails.send_welcome", func() error { return nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("emails.send_welcome", func() error { return nil }); err == nil {
		t.Fatal("expected a duplicate name to be rejected")
	}
}

func TestRegistryNamesAreSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"sms.send", "emails.send_welcome", "reports.rebuild"} {
		if err := reg.Register(name, func() error { return nil }); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	want := []string{"emails.send_welcome", "reports.rebuild", "sms.send"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRegistryExecutorResolvesNames(t *testing.T) {
	reg := NewRegistry()
	ran := false
	if err := reg.Register("reports.rebuild", func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := Run(context.Background(), func(ctx context.Context) error {
		return Enqueue(ctx, "reports.rebuild")
	}, WithExecutor(reg.Executor()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !ran {
		t.Fatal("expected the registered task to run at flush")
	}
}

func TestSyncExecutorResolvesRegisteredNames(t *testing.T) {
	ran := false
	if err := RegisterTask("registry.test.sync_resolution", func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := Run(context.Background(), func(ctx context.Context) error {
		return Enqueue(ctx, "registry.test.sync_resolution")
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !ran {
		t.Fatal("expected SyncExecutor to resolve the name through the registry")
	}

	if _, ok := LookupTask("registry.test.sync_resolution"); !ok {
		t.Fatal("expected the package-level lookup to find the task")
	}
}

func TestRegistryExecutorLeavesUnknownNamesUncallable(t *testing.T) {
	reg := NewRegistry()
	err := Run(context.Background(), func(ctx context.Context) error {
		return Enqueue(ctx, "registry.test.never_registered")
	}, WithExecutor(reg.Executor()))
	if !errors.Is(err, ErrNotCallable) {
		t.Fatalf("expected ErrNotCallable, got %v", err)
	}
}
