// Package worker runs record-change event processing off the webhook request
// path. Handlers are stateless, so events for different records can be worked
// concurrently; the record store is the only shared state.
package worker

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Job is a unit of work: one delivered event to process.
type Job interface {
	Execute() error
	ID() string
}

// Queue is the submission side of the pool, small enough to fake in tests.
type Queue interface {
	Submit(job Job) error
}

// Dispatcher fans submitted jobs out to a fixed pool of workers.
type Dispatcher struct {
	log      *logrus.Logger
	workers  int
	jobQueue chan Job
	quit     chan struct{}
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with the given pool size and queue
// capacity. Call Run before submitting.
func NewDispatcher(log *logrus.Logger, workers, queueSize int) *Dispatcher {
	return &Dispatcher{
		log:      log,
		workers:  workers,
		jobQueue: make(chan Job, queueSize),
		quit:     make(chan struct{}),
	}
}

// Run starts the worker goroutines.
func (d *Dispatcher) Run() {
	d.log.WithField("workers", d.workers).Info("Starting event worker pool")
	for i := 1; i <= d.workers; i++ {
		d.wg.Add(1)
		go d.work(i)
	}
}

func (d *Dispatcher) work(id int) {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			log := d.log.WithFields(logrus.Fields{"worker": id, "job": job.ID()})
			if err := job.Execute(); err != nil {
				// Boundary rule: a failed event is logged, never fatal.
				log.WithError(err).Error("Event processing failed")
			} else {
				log.Debug("Event processed")
			}
		case <-d.quit:
			return
		}
	}
}

// Submit enqueues a job. It fails instead of blocking when the queue is full
// so the webhook handler can shed load without stalling deliveries.
func (d *Dispatcher) Submit(job Job) error {
	select {
	case d.jobQueue <- job:
		return nil
	default:
		return fmt.Errorf("event queue full, dropping job %s", job.ID())
	}
}

// Stop drains nothing: workers finish their current job and exit.
func (d *Dispatcher) Stop() {
	close(d.quit)
	d.wg.Wait()
	d.log.Info("Event worker pool stopped")
}
