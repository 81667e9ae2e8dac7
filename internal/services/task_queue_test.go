package services

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTaskTypeSettingsChanged_Constant(t *testing.T) {
	if TaskTypeSettingsChanged != "settings:changed" {
		t.Errorf("TaskTypeSettingsChanged = %q, expected %q", TaskTypeSettingsChanged, "settings:changed")
	}
}

func TestSyncQueue_IsAsync(t *testing.T) {
	q := NewSyncQueue()
	if q.IsAsync() {
		t.Error("SyncQueue.IsAsync() should be false")
	}
}

func TestSyncQueue_Close(t *testing.T) {
	q := NewSyncQueue()
	if err := q.Close(); err != nil {
		t.Errorf("SyncQueue.Close() = %v, expected nil", err)
	}
}

func TestSyncQueue_EnqueueWithoutProcessor(t *testing.T) {
	q := NewSyncQueue()

	// Dropped, not an error
	err := q.Enqueue(&SettingsChangedTask{Actor: "admin"})
	if err != nil {
		t.Errorf("Enqueue() without processor = %v, expected nil", err)
	}
}

func TestSyncQueue_CloseWaitsForInFlightTasks(t *testing.T) {
	q := NewSyncQueue()

	var mu sync.Mutex
	processed := false

	q.SetProcessor(func(ctx context.Context, task *SettingsChangedTask) error {
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		processed = true
		mu.Unlock()
		return nil
	})

	if err := q.Enqueue(&SettingsChangedTask{Actor: "admin"}); err != nil {
		t.Fatalf("Enqueue(): %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !processed {
		t.Error("Close() returned before the enqueued task was processed")
	}
}

func TestSyncQueue_ProcessorReceivesTask(t *testing.T) {
	q := NewSyncQueue()

	var mu sync.Mutex
	var received *SettingsChangedTask
	done := make(chan struct{})

	q.SetProcessor(func(ctx context.Context, task *SettingsChangedTask) error {
		mu.Lock()
		received = task
		mu.Unlock()
		close(done)
		return nil
	})

	task := &SettingsChangedTask{
		Actor: "admin",
		Changes: []SettingChange{
			{Key: "merchant_commission", OldValue: "15", NewValue: "20"},
		},
	}
	if err := q.Enqueue(task); err != nil {
		t.Fatalf("Enqueue(): %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("processor was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	if received.Actor != "admin" {
		t.Errorf("Actor = %q, expected admin", received.Actor)
	}
	if len(received.Changes) != 1 || received.Changes[0].Key != "merchant_commission" {
		t.Errorf("unexpected changes: %+v", received.Changes)
	}
}
