package processor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"agrimap/server/config"
	"agrimap/server/internal/database"
	"agrimap/server/internal/models"
	"agrimap/server/internal/queue"
)

// Transactor runs a function inside a database transaction. *gorm.DB satisfies it.
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor persists report batches taken from the queue
type BatchProcessor struct {
	db        Transactor
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.ReportQueue
	insert    func(tx *gorm.DB, batch []*models.PriceReport) error
	hooks     []func([]*models.PriceReport)
	mu        sync.RWMutex
	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, queue *queue.ReportQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
		insert: database.InsertReports,
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnCommitted registers a hook called after each batch is stored
func (p *BatchProcessor) OnCommitted(hook func([]*models.PriceReport)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, hook)
}

// Start subscribes to the queue and starts its workers
func (p *BatchProcessor) Start() {
	p.startOnce.Do(func() {
		p.queue.Subscribe(p.processBatch)
		p.queue.Start(p.config.BatchProcessing.ProcessorCount)
	})
}

// Stop closes the queue and stores the batches still buffered in it.
// Pending retries are abandoned once ctx is done.
func (p *BatchProcessor) Stop(ctx context.Context) {
	drained := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.logger.Warn("Shutdown deadline reached, abandoning batch retries")
			p.cancel()
		case <-drained:
		}
	}()

	p.queue.Close()
	close(drained)
	p.cancel()
}

// processBatch stores a single batch with transaction and retry logic
func (p *BatchProcessor) processBatch(batch []*models.PriceReport) error {
	maxRetries := p.config.BatchProcessing.MaxRetries
	delay := time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.WithFields(logrus.Fields{
				"attempt":     attempt,
				"max_retries": maxRetries,
			}).Info("Retrying batch processing")

			select {
			case <-p.ctx.Done():
				return fmt.Errorf("batch processing cancelled: %w", p.ctx.Err())
			case <-time.After(delay):
			}
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := p.insert(tx, batch); err != nil {
				return fmt.Errorf("failed to insert reports batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.logger.WithField("batch_size", len(batch)).Info("Successfully processed batch")
			p.notify(batch)
			return nil
		}

		p.logger.WithError(err).WithField("batch_size", len(batch)).Error("Batch processing failed")

		// A duplicate will fail the same way on every attempt
		if errors.Is(err, database.ErrDuplicateReport) {
			return err
		}
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", maxRetries+1, err)
}

func (p *BatchProcessor) notify(batch []*models.PriceReport) {
	p.mu.RLock()
	hooks := p.hooks
	p.mu.RUnlock()

	for _, hook := range hooks {
		hook(batch)
	}
}
