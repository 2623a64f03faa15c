package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ecoleta/client/internal/domain"
	"ecoleta/client/internal/domain/task"
	"ecoleta/client/internal/queue"
	"ecoleta/client/internal/repository"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var ErrQueueDisabled = errors.New("retry queue is not configured")

const (
	defaultMinIdleTime = 2 * time.Minute
	readErrorBackoff   = time.Second
)

// PointCreator is the part of the registry client the service needs
type PointCreator interface {
	CreatePoint(ctx context.Context, point domain.NewPoint) error
}

// Service submits new collection points and retries failed submissions
// from a redis stream.
type Service struct {
	creator     PointCreator
	queue       queue.Queue
	repository  repository.SubmissionRepository
	groupName   string
	minIdleTime time.Duration
	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
}

// NewService builds the service. queue and repository may be nil.
func NewService(
	creator PointCreator,
	queue queue.Queue,
	repository repository.SubmissionRepository,
	groupName string,
	minIdleTime time.Duration,
	maxAttempts int,
) *Service {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if minIdleTime <= 0 {
		log.Warnf("⚠️ Invalid min idle time %v, using %v", minIdleTime, defaultMinIdleTime)
		minIdleTime = defaultMinIdleTime
	}
	return &Service{
		creator:     creator,
		queue:       queue,
		repository:  repository,
		groupName:   groupName,
		minIdleTime: minIdleTime,
		maxAttempts: maxAttempts,
		backoff:     readErrorBackoff,
		now:         time.Now,
	}
}

// Submit creates the point. A failed attempt is queued for retry when a
// queue is configured; the returned submission tells which happened.
func (s *Service) Submit(ctx context.Context, point domain.NewPoint) (*domain.Submission, error) {
	submission := domain.NewSubmission(point)
	submission.Attempts = 1

	err := s.creator.CreatePoint(ctx, point)
	if err == nil {
		submission.Status = domain.SubmissionCreated
		s.record(ctx, submission)
		return submission, nil
	}

	submission.Error = err.Error()

	if s.queue == nil || ctx.Err() != nil {
		submission.Status = domain.SubmissionFailed
		s.record(ctx, submission)
		return submission, err
	}

	_, addErr := s.queue.AddTask(ctx, &task.PointSubmitTask{
		SubmissionID: submission.ID,
		Point:        point,
		Attempt:      submission.Attempts,
		Error:        err.Error(),
	})
	if addErr != nil {
		log.Errorf("❌ Failed to queue submission %s: %v", submission.ID, addErr)
		submission.Status = domain.SubmissionFailed
		s.record(ctx, submission)
		return submission, fmt.Errorf("failed to queue point %q after create error %v: %w", point.Name, err, addErr)
	}

	log.Warnf("🔄 Queued point %q for retry due to error: %v", point.Name, err)
	submission.Status = domain.SubmissionQueued
	s.record(ctx, submission)
	return submission, nil
}

func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	if s.queue == nil {
		return ErrQueueDisabled
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	s.runWorkersForStream(ctx, &wg, numWorkers, queue.StreamName(task.PointSubmitTaskType), "submit")
	wg.Wait()
	return nil
}

func (s *Service) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, streamName, workerType string) {
	// Auto-claimer for messages left pending by dead consumers
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.minIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%s", workerType)
				claimedMessages, err := s.queue.AutoClaim(ctx, s.groupName, consumer, streamName, s.minIdleTime)
				if err != nil {
					log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
					continue
				}
				if len(claimedMessages) > 0 {
					log.Infof("🔄 Auto-claimed %d messages from %s stream", len(claimedMessages), workerType)
				}
				for _, msg := range claimedMessages {
					if err := s.processMessage(ctx, streamName, &msg); err != nil {
						log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
					}
				}
			}
		}
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-worker-%d", workerType, workerID)
			log.Infof("🚀 Starting %s worker %d as consumer %s", workerType, workerID, consumer)
			for {
				select {
				case <-ctx.Done():
					log.Infof("🛑 %s worker %d stopping", workerType, workerID)
					return
				default:
					msg, err := s.queue.GetTask(ctx, s.groupName, consumer, streamName)
					if err != nil {
						if ctx.Err() != nil {
							continue
						}
						log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
						select {
						case <-ctx.Done():
						case <-time.After(s.backoff):
						}
						continue
					}

					if msg != nil {
						if err := s.processMessage(ctx, streamName, msg); err != nil {
							log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
						}
					}
				}
			}
		}(i + 1)
	}
}

func (s *Service) processMessage(ctx context.Context, streamName string, msg *redis.XMessage) error {
	taskType, ok := msg.Values["task_type"].(string)
	if !ok {
		return s.discard(ctx, streamName, msg, fmt.Errorf("invalid task type in message %s", msg.ID))
	}

	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return s.discard(ctx, streamName, msg, fmt.Errorf("invalid task data in message %s", msg.ID))
	}

	switch taskType {
	case task.PointSubmitTaskType:
		submitTask, err := task.UnmarshalTask[*task.PointSubmitTask]([]byte(taskData))
		if err != nil {
			return s.discard(ctx, streamName, msg, fmt.Errorf("failed to unmarshal point submit task: %w", err))
		}

		if err := s.retrySubmit(ctx, submitTask); err != nil {
			// Left pending; the auto-claimer picks it up again
			return fmt.Errorf("failed to retry submission: %w", err)
		}

	default:
		return s.discard(ctx, streamName, msg, fmt.Errorf("unknown task type: %s", taskType))
	}

	if err := s.queue.AckTask(ctx, streamName, s.groupName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	return nil
}

// discard acks a message that can never be processed
func (s *Service) discard(ctx context.Context, streamName string, msg *redis.XMessage, cause error) error {
	if err := s.queue.AckTask(ctx, streamName, s.groupName, msg.ID); err != nil {
		return fmt.Errorf("%v; failed to ack message %s: %w", cause, msg.ID, err)
	}
	return cause
}

// retrySubmit makes one more attempt. It returns an error only when the task
// could not be re-queued, which leaves the original message unacked.
func (s *Service) retrySubmit(ctx context.Context, submitTask *task.PointSubmitTask) error {
	attempt := submitTask.Attempt + 1

	submission := domain.NewSubmission(submitTask.Point)
	submission.ID = submitTask.SubmissionID
	submission.Attempts = attempt

	log.Infof("🔄 Retrying point %q (attempt %d)", submitTask.Point.Name, attempt)

	err := s.creator.CreatePoint(ctx, submitTask.Point)
	if err == nil {
		submission.Status = domain.SubmissionCreated
		s.record(ctx, submission)
		log.Infof("✅ Successfully created point %q after %d attempts", submitTask.Point.Name, attempt)
		return nil
	}

	submission.Error = err.Error()

	if attempt >= s.maxAttempts {
		submission.Status = domain.SubmissionFailed
		s.record(ctx, submission)
		log.Errorf("❌ Giving up on point %q after %d attempts: %v", submitTask.Point.Name, attempt, err)
		return nil
	}

	next := &task.PointSubmitTask{
		SubmissionID: submitTask.SubmissionID,
		Point:        submitTask.Point,
		Attempt:      attempt,
		Error:        err.Error(),
	}
	if _, addErr := s.queue.AddTask(ctx, next); addErr != nil {
		log.Errorf("❌ Failed to re-add submission %s: %v", submitTask.SubmissionID, addErr)
		return addErr
	}

	submission.Status = domain.SubmissionQueued
	s.record(ctx, submission)
	log.Warnf("🔄 Point %q failed again, will retry (attempt %d): %v", submitTask.Point.Name, attempt, err)
	return nil
}

func (s *Service) record(ctx context.Context, submission *domain.Submission) {
	submission.UpdatedAt = s.now().UTC()
	if s.repository == nil {
		return
	}
	// The submission log outlives a cancelled request
	if err := s.repository.SaveSubmission(context.WithoutCancel(ctx), submission); err != nil {
		log.Errorf("❌ Failed to record submission %s: %v", submission.ID, err)
	}
}
