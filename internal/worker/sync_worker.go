// Package worker consumes sync requests from the message queue and runs the
// background processor next to the consumer.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/services"
)

// Consumer delivers queue messages to a handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.Message) error) error
}

// VariableProcessor writes stored variable expenses into the workbook.
type VariableProcessor interface {
	Process(ctx context.Context, id string) error
}

// SyncWorker handles the messages published by the API.
type SyncWorker struct {
	syncer    services.Syncer
	variables VariableProcessor
}

func NewSyncWorker(syncer services.Syncer, variables VariableProcessor) *SyncWorker {
	return &SyncWorker{syncer: syncer, variables: variables}
}

// HandleMessage dispatches msg on its type. A returned error requeues the
// message unless it wraps amqp.ErrDiscard.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.Message) error {
	slog.InfoContext(ctx, "Processing message", "id", msg.ID, "type", msg.Type)

	switch msg.Type {
	case amqp.TypeSyncRequest:
		mode, err := core.ParseMonthMode(string(msg.MonthMode))
		if err != nil {
			return amqp.Discard(err)
		}
		res, err := w.syncer.Sync(ctx, mode)
		if err != nil {
			return fmt.Errorf("sync %s: %w", mode, err)
		}
		slog.InfoContext(ctx, "Sync request completed", "id", msg.ID, "sheet", res.HojaObjetivo, "created", res.HojaCreada)
		return nil
	case amqp.TypeVariableExpense:
		if err := w.variables.Process(ctx, msg.ExpenseID); err != nil {
			return fmt.Errorf("variable expense %s: %w", msg.ExpenseID, err)
		}
		return nil
	}
	return amqp.Discard(fmt.Errorf("unknown message type %q", msg.Type))
}

// Run consumes messages and runs processor until ctx is done. A nil
// consumer runs the processor alone.
func (w *SyncWorker) Run(ctx context.Context, consumer Consumer, processor *services.Processor) error {
	g, ctx := errgroup.WithContext(ctx)

	if processor != nil {
		if err := processor.Start(ctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			return processor.Stop(stopCtx)
		})
	}

	if consumer != nil {
		g.Go(func() error {
			err := consumer.Consume(ctx, w.HandleMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		slog.InfoContext(ctx, "Skipping AMQP message consumption - no broker configured")
	}

	return g.Wait()
}
