package jobs

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/mlodi/backend/internal/queue"
	"github.com/mlodi/backend/internal/services/engagement"
	"gorm.io/gorm"
)

// RegisterWorkers wires the queue consumers and returns them started
func RegisterWorkers(q *queue.RedisQueue, engine *engagement.Service, numWorkers int) []*queue.Worker {
	activityJob := NewActivityEventJob(engine)

	workers := []*queue.Worker{
		queue.NewWorker(q, queue.JobTypeActivityEvent, activityJob.Handle, numWorkers),
	}

	for _, w := range workers {
		w.Start()
	}

	return workers
}

// ScheduleMaintenanceJobs schedules the recurring housekeeping tasks
func ScheduleMaintenanceJobs(db *gorm.DB, q *queue.RedisQueue) *gocron.Scheduler {
	maintenance := NewMaintenanceJobs(db, q)

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.Every(5).Minutes().Do(maintenance.SweepExpiredChallenges)
	scheduler.Every(1).Minute().Do(maintenance.ReportQueueDepth)
	scheduler.Every(24).Hours().Do(maintenance.AuditWallets)
	scheduler.StartAsync()

	return scheduler
}
