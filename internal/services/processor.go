package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ProcessorConfig holds configuration for the background processor.
type ProcessorConfig struct {
	// PendingInterval is how often pending variable expenses are written
	// (default: 1m)
	PendingInterval time.Duration

	// ScheduleInterval is how often the monthly sheet schedule is checked
	// (default: 1m)
	ScheduleInterval time.Duration
}

// DefaultProcessorConfig returns sensible defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PendingInterval:  time.Minute,
		ScheduleInterval: time.Minute,
	}
}

// Processor retries pending variable expenses and runs the monthly sheet
// schedule on tickers.
type Processor struct {
	variables *VariableExpenseService
	scheduler *MonthlyScheduler
	config    ProcessorConfig

	// Lifecycle management
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	stopOnce *sync.Once
	doneCh   chan struct{}
}

// NewProcessor creates a processor. A nil scheduler disables the monthly
// schedule.
func NewProcessor(variables *VariableExpenseService, scheduler *MonthlyScheduler, config ProcessorConfig) *Processor {
	def := DefaultProcessorConfig()
	if config.PendingInterval <= 0 {
		config.PendingInterval = def.PendingInterval
	}
	if config.ScheduleInterval <= 0 {
		config.ScheduleInterval = def.ScheduleInterval
	}
	return &Processor{variables: variables, scheduler: scheduler, config: config}
}

// Start begins the processing loop. Returns an error if already running.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.stopOnce = &sync.Once{}
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Processor started",
		"pending_interval", p.config.PendingInterval,
		"schedule_interval", p.config.ScheduleInterval)
	return nil
}

// Stop gracefully stops the processor and waits for completion. After a
// timed-out stop it may be called again to keep waiting.
func (p *Processor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, once, doneCh := p.stopCh, p.stopOnce, p.doneCh
	p.mu.Unlock()

	once.Do(func() { close(stopCh) })

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pendingTicker := time.NewTicker(p.config.PendingInterval)
	defer pendingTicker.Stop()

	scheduleTicker := time.NewTicker(p.config.ScheduleInterval)
	defer scheduleTicker.Stop()

	// Run immediately on startup
	p.checkSchedule(ctx)
	p.processPending(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pendingTicker.C:
			p.processPending(ctx)
		case <-scheduleTicker.C:
			p.checkSchedule(ctx)
		}
	}
}

func (p *Processor) processPending(ctx context.Context) {
	if p.variables == nil {
		return
	}
	n, err := p.variables.ProcessPending(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to process pending variable expenses", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Pending variable expenses written", "count", n)
	}
}

func (p *Processor) checkSchedule(ctx context.Context) {
	if p.scheduler == nil {
		return
	}
	if ran, err := p.scheduler.Check(ctx); err != nil {
		slog.ErrorContext(ctx, "Monthly sheet creation failed", "error", err)
	} else if ran {
		slog.InfoContext(ctx, "Monthly sheet created")
	}
}
