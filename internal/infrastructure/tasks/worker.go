package tasks

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/ignatzorin/engagement-backend/internal/logger"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sms    SMSHandler
}

func NewWorker(redisURL, queue string, concurrency int, sms SMSHandler) (*Worker, error) {
	opt, err := RedisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}
	if queue == "" {
		queue = "default"
	}
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
	})
	w := &Worker{server: server, mux: asynq.NewServeMux(), sms: sms}
	w.mux.HandleFunc(TaskSendSMS, w.handleSendSMS)
	return w, nil
}

func (w *Worker) handleSendSMS(ctx context.Context, task *asynq.Task) error {
	job, err := ParseSendSMSPayload(task)
	if err != nil {
		// битый payload повторять бессмысленно
		return asynq.SkipRetry
	}
	return w.sms.Handle(ctx, job)
}

// Run блокируется до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}
	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()
	if err := w.server.Run(w.mux); err != nil {
		logger.Component("tasks").WithField("error", err.Error()).Error("воркер задач остановлен")
	}
}
