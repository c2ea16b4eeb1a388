package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/eventbus"
)

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

// DefaultProcessorConfig returns sensible defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: 1 * time.Second,
		RetryBackoffMax:  1 * time.Minute,
	}
}

// Stats reports processor progress for health endpoints.
type Stats struct {
	IsRunning       bool
	PublishedCount  int64
	FailedCount     int64
	DeadCount       int64
	LastProcessedAt *time.Time
	LastErrorAt     *time.Time
	LastError       string
}

// Processor polls the outbox and publishes events to the message broker.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger

	wg       sync.WaitGroup
	stopChan chan struct{}
	running  bool
	mu       sync.Mutex

	statsMu sync.Mutex
	stats   Stats
}

// NewProcessor creates a new outbox processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if config.PollInterval <= 0 {
		config = DefaultProcessorConfig()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the polling loop in a goroutine.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)

	return nil
}

// Stop gracefully stops the processor.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the polling loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// ProcessOnce drains one batch immediately, outside the polling loop.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	return p.processBatch(ctx)
}

// GetStats returns a snapshot of processor statistics.
func (p *Processor) GetStats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	stats := p.stats
	p.mu.Lock()
	stats.IsRunning = p.running
	p.mu.Unlock()
	return stats
}

func (p *Processor) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error("failed to process outbox batch", "error", err)
			}
		}
	}
}

func (p *Processor) processBatch(ctx context.Context) error {
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		if err := p.publishMessage(ctx, msg); err != nil {
			p.recordFailure(ctx, msg, err)
			continue
		}

		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			p.logger.Error("failed to mark message published",
				"message_id", msg.ID,
				"error", err,
			)
			continue
		}

		p.statsMu.Lock()
		p.stats.PublishedCount++
		now := time.Now()
		p.stats.LastProcessedAt = &now
		p.statsMu.Unlock()
	}

	return nil
}

func (p *Processor) publishMessage(ctx context.Context, msg *Message) error {
	envelope := eventbus.ConsumedEvent{
		EventID:       msg.EventID,
		AggregateID:   msg.AggregateID,
		AggregateType: msg.AggregateType,
		RoutingKey:    msg.RoutingKey,
		OccurredAt:    msg.CreatedAt,
		Payload:       msg.Payload,
	}
	if len(msg.Metadata) > 0 {
		// Metadata is stored as the domain EventMetadata JSON; decode it into
		// the wire representation, tolerating older rows without it.
		_ = decodeMetadata(msg.Metadata, &envelope.Metadata)
	}

	payload, err := encodeEnvelope(envelope)
	if err != nil {
		return err
	}

	return p.publisher.Publish(ctx, msg.RoutingKey, payload)
}

func (p *Processor) recordFailure(ctx context.Context, msg *Message, pubErr error) {
	p.statsMu.Lock()
	p.stats.FailedCount++
	now := time.Now()
	p.stats.LastErrorAt = &now
	p.stats.LastError = pubErr.Error()
	p.statsMu.Unlock()

	if !msg.CanRetry(p.config.MaxRetries) {
		if err := p.repo.MarkDead(ctx, msg.ID, pubErr.Error()); err != nil {
			p.logger.Error("failed to dead-letter message", "message_id", msg.ID, "error", err)
			return
		}
		p.statsMu.Lock()
		p.stats.DeadCount++
		p.statsMu.Unlock()
		p.logger.Warn("message dead-lettered",
			"message_id", msg.ID,
			"retries", msg.RetryCount,
			"error", pubErr,
		)
		return
	}

	backoff := p.backoffFor(msg.RetryCount)
	if err := p.repo.MarkFailed(ctx, msg.ID, pubErr.Error(), time.Now().Add(backoff)); err != nil {
		p.logger.Error("failed to mark message failed", "message_id", msg.ID, "error", err)
	}
}

// backoffFor returns an exponential backoff capped at RetryBackoffMax.
func (p *Processor) backoffFor(retryCount int) time.Duration {
	backoff := p.config.RetryBackoffBase
	for i := 0; i < retryCount; i++ {
		backoff *= 2
		if backoff >= p.config.RetryBackoffMax {
			return p.config.RetryBackoffMax
		}
	}
	return backoff
}
