package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/models"
	"github.com/campusflow/assignment-service/internal/service/integration"
	"github.com/campusflow/assignment-service/internal/worker/queue"
)

// DispatchWorker drains the notification queue and turns each event into an
// email request for the mailer service. Malformed events are acked and
// dropped; transient mailer failures are nacked back for redelivery.
type DispatchWorker interface {
	Start(ctx context.Context) error
	Stop() error
	Dispatch(ctx context.Context, event *models.NotificationEvent) error
	GetStats() Stats
}

type Stats struct {
	BusyWorkers    int `json:"busy_workers"`
	TotalProcessed int `json:"total_processed"`
	FailedJobs     int `json:"failed_jobs"`
	Dropped        int `json:"dropped"`
	QueueLength    int `json:"queue_length"`
}

type dispatchWorker struct {
	workerPool   *WorkerPool
	consumer     queue.Consumer
	mailerClient integration.MailerClient
	logger       zerolog.Logger
	stats        Stats
	statsMutex   sync.RWMutex
	startTime    time.Time
}

func NewDispatchWorker(
	workerPool *WorkerPool,
	consumer queue.Consumer,
	mailerClient integration.MailerClient,
	logger zerolog.Logger,
) DispatchWorker {
	return &dispatchWorker{
		workerPool:   workerPool,
		consumer:     consumer,
		mailerClient: mailerClient,
		logger:       logger,
		startTime:    time.Now(),
	}
}

func (w *dispatchWorker) Start(ctx context.Context) error {
	if err := w.workerPool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	msgs, err := w.consumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	go w.processMessages(ctx, msgs)

	w.logger.Info().Msg("Dispatch worker started")
	return nil
}

func (w *dispatchWorker) Stop() error {
	if err := w.workerPool.Stop(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to stop worker pool")
	}

	if err := w.consumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close queue consumer")
	}

	w.logger.Info().
		Int("total_processed", w.stats.TotalProcessed).
		Int("failed_jobs", w.stats.FailedJobs).
		Dur("uptime", time.Since(w.startTime)).
		Msg("Dispatch worker stopped")

	return nil
}

func (w *dispatchWorker) processMessages(ctx context.Context, msgs <-chan queue.Message) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Stopping message processing")
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Warn().Msg("Message channel closed")
				return
			}

			w.workerPool.Submit(func() {
				err := w.processMessage(ctx, msg)
				if err == nil {
					if ackErr := msg.Ack(false); ackErr != nil {
						w.logger.Error().Err(ackErr).Msg("Failed to ack message")
					}
					w.statsMutex.Lock()
					w.stats.TotalProcessed++
					w.statsMutex.Unlock()
					return
				}

				w.logger.Error().Err(err).Msg("Failed to process notification")

				// A message that can never succeed is dropped, not requeued.
				if isPermanentError(err) {
					if ackErr := msg.Ack(false); ackErr != nil {
						w.logger.Error().Err(ackErr).Msg("Failed to ack message")
					}
					w.statsMutex.Lock()
					w.stats.Dropped++
					w.statsMutex.Unlock()
					return
				}

				if nackErr := msg.Nack(false, true); nackErr != nil {
					w.logger.Error().Err(nackErr).Msg("Failed to nack message")
				}
				w.statsMutex.Lock()
				w.stats.FailedJobs++
				w.statsMutex.Unlock()
			})
		}
	}
}

func (w *dispatchWorker) processMessage(ctx context.Context, msg queue.Message) error {
	var event models.NotificationEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return permanent(fmt.Errorf("failed to unmarshal event: %w", err))
	}

	return w.Dispatch(ctx, &event)
}

func (w *dispatchWorker) Dispatch(ctx context.Context, event *models.NotificationEvent) error {
	if strings.TrimSpace(event.StudentEmail) == "" {
		return permanent(errors.New("event has no recipient email"))
	}

	emailReq, err := buildEmailRequest(event)
	if err != nil {
		return err
	}

	w.logger.Info().
		Str("type", string(event.Type)).
		Str("student_id", event.StudentID).
		Str("assignment_id", event.AssignmentID).
		Msg("Dispatching notification")

	if err := w.mailerClient.SendEmail(ctx, emailReq); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func buildEmailRequest(event *models.NotificationEvent) (*models.EmailRequest, error) {
	req := &models.EmailRequest{
		To:     event.StudentEmail,
		ToName: event.StudentName,
		Params: map[string]interface{}{
			"student_name":     event.StudentName,
			"assignment_title": event.AssignmentTitle,
			"supervisor_name":  event.SupervisorName,
		},
	}

	switch event.Type {
	case models.NotificationInvitationSent:
		req.Template = "assignment_invitation"
		if event.DueDate != nil {
			req.Params["due_date"] = event.DueDate.Format(time.RFC3339)
		}
		if event.CustomMessage != "" {
			req.Params["custom_message"] = event.CustomMessage
		}
	case models.NotificationInvitationRevoked:
		req.Template = "invitation_revoked"
		if event.Reason != "" {
			req.Params["reason"] = event.Reason
		}
	case models.NotificationSubmissionGraded:
		req.Template = "submission_graded"
		if event.Score != nil {
			req.Params["score"] = *event.Score
		}
		req.Params["grade_status"] = event.GradeStatus
		if event.Feedback != "" {
			req.Params["feedback"] = event.Feedback
		}
	case models.NotificationStatusChanged:
		req.Template = "assignment_status_changed"
		if event.IsActive != nil {
			req.Params["is_active"] = *event.IsActive
		}
		if event.DueDate != nil {
			req.Params["due_date"] = event.DueDate.Format(time.RFC3339)
		}
	default:
		return nil, permanent(fmt.Errorf("unknown notification type %q", event.Type))
	}

	return req, nil
}

func (w *dispatchWorker) GetStats() Stats {
	w.statsMutex.RLock()
	defer w.statsMutex.RUnlock()

	stats := w.stats
	stats.BusyWorkers = w.workerPool.BusyWorkers()

	if queueLength, err := w.consumer.QueueLength(); err == nil {
		stats.QueueLength = queueLength
	}

	return stats
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return permanentError{err: err}
}

func isPermanentError(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
