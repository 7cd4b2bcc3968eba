package queue

import (
	"errors"
	"sync"

	"agrimap/server/internal/models"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// ReportQueue is an in-memory queue of submitted report batches
type ReportQueue struct {
	items    chan []*models.PriceReport
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	wg       sync.WaitGroup
	logger   *logrus.Logger
	handlers []func([]*models.PriceReport) error
}

// NewReportQueue creates a new report queue with the specified buffer size
func NewReportQueue(bufferSize int, logger *logrus.Logger) *ReportQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &ReportQueue{
		items:    make(chan []*models.PriceReport, bufferSize),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func([]*models.PriceReport) error, 0),
	}
}

// Push adds a batch of reports to the queue
func (q *ReportQueue) Push(reports []*models.PriceReport) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	// Non-blocking send so request handlers never stall on a busy processor
	select {
	case q.items <- reports:
		q.logger.WithField("batch_size", len(reports)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each batch
func (q *ReportQueue) Subscribe(handler func([]*models.PriceReport) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items with the given number of workers
func (q *ReportQueue) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.process()
	}
}

// process handles batches until the queue is closed and drained
func (q *ReportQueue) process() {
	defer q.wg.Done()
	for batch := range q.items {
		q.processBatch(batch)
	}
}

// processBatch sends the batch to all subscribed handlers
func (q *ReportQueue) processBatch(batch []*models.PriceReport) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).WithField("batch_size", len(batch)).Error("Handler failed to process batch")
		}
	}
}

// Close stops accepting batches and waits for the workers to handle
// everything already queued.
func (q *ReportQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.items)
	q.mu.Unlock()

	q.wg.Wait()
	if dropped := len(q.items); dropped > 0 {
		q.logger.WithField("dropped_batches", dropped).Warn("Queue closed without workers, pending batches dropped")
	}
	return nil
}

// Len returns the current number of batches in the queue
func (q *ReportQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *ReportQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
