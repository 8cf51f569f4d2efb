package taskqueue

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Worker owns the asynq client and server for one redis instance.
type Worker struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	logger zerolog.Logger
}

func NewWorker(redisAddr string, d Deliverer, logger zerolog.Logger) *Worker {
	opt := asynq.RedisClientOpt{Addr: redisAddr}
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeHookDelivery, HandleHookDelivery(d, logger))

	return &Worker{
		client: asynq.NewClient(opt),
		server: asynq.NewServer(opt, asynq.Config{
			Concurrency: 4,
			Logger:      asynqLogger{logger},
			LogLevel:    asynq.WarnLevel,
		}),
		mux:    mux,
		logger: logger,
	}
}

// Notifier returns a notifier enqueueing on this worker's redis.
func (w *Worker) Notifier() *QueueNotifier {
	return NewQueueNotifier(w.client, w.logger)
}

// Start begins processing in the background.
func (w *Worker) Start() error {
	w.logger.Info().Msg("starting hook delivery workers")
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("starting workers: %w", err)
	}
	return nil
}

// Stop waits for in-flight tasks and closes the client.
func (w *Worker) Stop() {
	w.logger.Info().Msg("stopping hook delivery workers")
	w.server.Shutdown()
	if err := w.client.Close(); err != nil {
		w.logger.Warn().Err(err).Msg("closing asynq client")
	}
}

// asynqLogger routes asynq's own logging through zerolog.
type asynqLogger struct {
	l zerolog.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }
