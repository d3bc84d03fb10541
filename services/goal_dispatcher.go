package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"habitTrackerAPI/internal/abstinence"
	"habitTrackerAPI/internal/logger"
	"habitTrackerAPI/internal/types/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// GoalStore is what the dispatcher writes to.
type GoalStore interface {
	UpdateSelectedGoal(ctx context.Context, activityID string, goal abstinence.Goal) error
	ListDevices(ctx context.Context, userID string) ([]notification.DeviceToken, error)
}

// GoalJob persists an auto-advanced goal. Reached is set when the advance
// happened because the previous goal was completed, which also earns the
// owner a milestone push.
type GoalJob struct {
	ActivityID   string
	ActivityName string
	OwnerID      string
	Goal         abstinence.Goal
	Reached      *abstinence.Goal
}

// GoalDispatcher persists goal selections off the request path. Jobs are
// derived from elapsed time, so a dropped or repeated job is harmless: the
// next read recomputes the same value.
type GoalDispatcher struct {
	store        GoalStore
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *GoalJob
	stopChan     chan struct{}
	stopped      atomic.Bool
	wg           sync.WaitGroup
}

func NewGoalDispatcher(store GoalStore, workers, queueSize int) *GoalDispatcher {
	d := &GoalDispatcher{
		store:    store,
		workers:  workers,
		jobQueue: make(chan *GoalJob, queueSize),
		stopChan: make(chan struct{}),
	}
	d.startWorkers()
	return d
}

// SetPushProvider injects the FCM provider from main.go
func (d *GoalDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *GoalDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *GoalDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			// Finish what was already accepted.
			for {
				select {
				case job := <-d.jobQueue:
					d.processJob(job)
				default:
					return
				}
			}
		}
	}
}

// Enqueue never blocks. It reports false when the job was dropped.
func (d *GoalDispatcher) Enqueue(job *GoalJob) bool {
	if d.stopped.Load() {
		goalPersistFailures.Inc()
		return false
	}

	select {
	case d.jobQueue <- job:
		return true
	default:
		goalPersistFailures.Inc()
		logger.Warn("Goal dispatcher: queue full, dropping job", "activity_id", job.ActivityID, "goal", job.Goal.Name)
		return false
	}
}

// Stop drains queued jobs and waits for the workers to exit.
func (d *GoalDispatcher) Stop() {
	if d.stopped.Swap(true) {
		return
	}
	close(d.stopChan)
	d.wg.Wait()
}

func (d *GoalDispatcher) processJob(job *GoalJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.store.UpdateSelectedGoal(ctx, job.ActivityID, job.Goal); err != nil {
		goalPersistFailures.Inc()
		logger.Warn("Goal dispatcher: failed to persist goal", "activity_id", job.ActivityID, "goal", job.Goal.Name, "err", err)
		return
	}
	logger.Debug("Goal dispatcher: goal persisted", "activity_id", job.ActivityID, "goal", job.Goal.Name)

	if job.Reached == nil || d.pushProvider == nil {
		return
	}

	tokens, err := d.store.ListDevices(ctx, job.OwnerID)
	if err != nil {
		logger.Warn("Goal dispatcher: failed to load devices", "user_id", job.OwnerID, "err", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	title := "Milestone reached"
	body := fmt.Sprintf("%s: %s done. Next up: %s", job.ActivityName, job.Reached.Name, job.Goal.Name)
	data := map[string]any{
		"type":        "goal_reached",
		"activity_id": job.ActivityID,
		"goal":        job.Reached.Name,
		"next_goal":   job.Goal.Name,
	}
	if err := d.pushProvider.SendPush(ctx, tokens, title, body, data); err != nil {
		logger.Warn("Goal dispatcher: milestone push failed", "user_id", job.OwnerID, "err", err)
	}
}
