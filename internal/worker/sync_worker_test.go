package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/services"
)

type fakeSyncer struct {
	modes []core.MonthMode
	err   error
}

func (f *fakeSyncer) Sync(_ context.Context, mode core.MonthMode) (services.SyncResult, error) {
	f.modes = append(f.modes, mode)
	return services.SyncResult{Success: f.err == nil, HojaObjetivo: "Octubre 2026"}, f.err
}

type fakeVariables struct {
	ids []string
}

func (f *fakeVariables) Process(_ context.Context, id string) error {
	f.ids = append(f.ids, id)
	return nil
}

// fakeConsumer delivers its messages and then blocks until ctx is done.
type fakeConsumer struct {
	msgs    []*amqp.Message
	results []error
}

func (f *fakeConsumer) Consume(ctx context.Context, handler func(context.Context, *amqp.Message) error) error {
	for _, m := range f.msgs {
		f.results = append(f.results, handler(ctx, m))
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestHandleMessage(t *testing.T) {
	syncer := &fakeSyncer{}
	vars := &fakeVariables{}
	w := NewSyncWorker(syncer, vars)
	ctx := context.Background()

	if err := w.HandleMessage(ctx, amqp.NewSyncRequestMessage(core.MonthSiguiente)); err != nil {
		t.Fatalf("sync request: %v", err)
	}
	if err := w.HandleMessage(ctx, amqp.NewVariableExpenseMessage("v1")); err != nil {
		t.Fatalf("variable expense: %v", err)
	}
	if len(syncer.modes) != 1 || syncer.modes[0] != core.MonthSiguiente {
		t.Fatalf("unexpected sync modes %v", syncer.modes)
	}
	if len(vars.ids) != 1 || vars.ids[0] != "v1" {
		t.Fatalf("unexpected processed ids %v", vars.ids)
	}

	if err := w.HandleMessage(ctx, &amqp.Message{Type: "bogus"}); !errors.Is(err, amqp.ErrDiscard) {
		t.Fatalf("unknown type should be discarded, got %v", err)
	}
	if err := w.HandleMessage(ctx, &amqp.Message{Type: amqp.TypeSyncRequest, MonthMode: "ayer"}); !errors.Is(err, amqp.ErrDiscard) || !errors.Is(err, core.ErrInvalidMonthMode) {
		t.Fatalf("bad month mode should be discarded, got %v", err)
	}
	syncer.err = errors.New("drive down")
	err := w.HandleMessage(ctx, amqp.NewSyncRequestMessage(core.MonthActual))
	if !errors.Is(err, syncer.err) || errors.Is(err, amqp.ErrDiscard) {
		t.Fatalf("expected a retryable sync error, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	syncer := &fakeSyncer{}
	w := NewSyncWorker(syncer, &fakeVariables{})
	consumer := &fakeConsumer{msgs: []*amqp.Message{amqp.NewSyncRequestMessage(core.MonthActual)}}
	processor := services.NewProcessor(nil, nil, services.ProcessorConfig{PendingInterval: time.Hour, ScheduleInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, consumer, processor) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	if len(consumer.results) != 1 || consumer.results[0] != nil {
		t.Fatalf("unexpected handler results %v", consumer.results)
	}
	if processor.IsRunning() {
		t.Fatal("processor still running")
	}
}
