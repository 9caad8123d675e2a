// Package tasks выносит побочные эффекты (SMS) в фоновые задачи asynq.
// Без Redis те же обработчики выполняются в процессе через goroutine.SafeGo.
package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ignatzorin/engagement-backend/internal/domain/entity"
	"github.com/ignatzorin/engagement-backend/internal/goroutine"
)

const TaskSendSMS = "sms:send"

const (
	maxRetry      = 3
	inlineTimeout = 30 * time.Second
)

// SMSHandler выполняет задание на отправку SMS.
type SMSHandler interface {
	Handle(ctx context.Context, job entity.SMSJob) error
}

func NewSendSMSTask(job entity.SMSJob) (*asynq.Task, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendSMS, data, asynq.MaxRetry(maxRetry)), nil
}

func ParseSendSMSPayload(task *asynq.Task) (entity.SMSJob, error) {
	var job entity.SMSJob
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return entity.SMSJob{}, err
	}
	return job, nil
}

// InlineDispatcher выполняет задания в фоновой горутине текущего процесса.
type InlineDispatcher struct {
	handler  SMSHandler
	recovery *goroutine.RecoveryHandler
}

func NewInlineDispatcher(handler SMSHandler, recovery *goroutine.RecoveryHandler) *InlineDispatcher {
	if recovery == nil {
		recovery = goroutine.DefaultRecoveryHandler
	}
	return &InlineDispatcher{handler: handler, recovery: recovery}
}

// Dispatch не ждёт отправки: контекст запроса не передаётся, чтобы
// завершение HTTP-запроса не отменяло SMS. Ошибки логирует обработчик.
func (d *InlineDispatcher) Dispatch(_ context.Context, job entity.SMSJob) error {
	d.recovery.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), inlineTimeout)
		defer cancel()
		_ = d.handler.Handle(ctx, job)
	})
	return nil
}
