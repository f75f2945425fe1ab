package queue

import (
	"context"
	"log"
	"sync"
	"time"
)

// Worker processes jobs of one type from the queue
type Worker struct {
	queue      *RedisQueue
	jobType    JobType
	handler    JobHandler
	numWorkers int
	wg         sync.WaitGroup
	quit       chan struct{}
}

// NewWorker creates a new worker pool for a job type
func NewWorker(queue *RedisQueue, jobType JobType, handler JobHandler, numWorkers int) *Worker {
	return &Worker{
		queue:      queue,
		jobType:    jobType,
		handler:    handler,
		numWorkers: numWorkers,
		quit:       make(chan struct{}),
	}
}

// Start starts the worker goroutines
func (w *Worker) Start() {
	log.Printf("Starting %d workers for queue %s", w.numWorkers, w.jobType)

	for i := 0; i < w.numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}
}

// Stop stops the worker and waits for in-flight jobs to finish
func (w *Worker) Stop() {
	log.Printf("Stopping workers for queue %s", w.jobType)
	close(w.quit)
	w.wg.Wait()
}

func (w *Worker) process(workerID int) {
	defer w.wg.Done()

	ctx := context.Background()

	for {
		select {
		case <-w.quit:
			log.Printf("Worker %d for queue %s stopped", workerID, w.jobType)
			return
		default:
			job, err := w.queue.Dequeue(ctx, w.jobType, 1*time.Second)
			if err != nil {
				log.Printf("Error dequeueing job: %v", err)
				time.Sleep(1 * time.Second)
				continue
			}
			if job == nil {
				continue
			}

			if err := w.handler(ctx, *job); err != nil {
				log.Printf("Error processing job %s: %v", job.ID, err)
				if err := w.queue.Retry(ctx, job, err); err != nil {
					log.Printf("Error requeueing job %s: %v", job.ID, err)
				}
			}
		}
	}
}
