package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"study-room/internal/repository"
	"study-room/internal/tasks"
)

// WorkerServer wraps the asynq server plus the handlers it serves.
type WorkerServer struct {
	server         *asynq.Server
	log            *logrus.Entry
	otpRepo        repository.OTPRepository
	membershipRepo repository.MembershipRepository
	mailer         Mailer
}

// NewWorkerServer creates a WorkerServer consuming the shared Redis queues.
func NewWorkerServer(
	redisOpt asynq.RedisClientOpt,
	otpRepo repository.OTPRepository,
	membershipRepo repository.MembershipRepository,
	mailer Mailer,
	logger *logrus.Logger,
) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskID := ""
				if rw := task.ResultWriter(); rw != nil {
					taskID = rw.TaskID()
				}
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_id":   taskID,
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	return &WorkerServer{
		server:         server,
		log:            logEntry,
		otpRepo:        otpRepo,
		membershipRepo: membershipRepo,
		mailer:         mailer,
	}
}

// Start runs the worker loop. Call it from its own goroutine.
func (ws *WorkerServer) Start() {
	mux := asynq.NewServeMux()

	otpHandler := NewOTPHandler(ws.otpRepo, ws.mailer)
	mux.HandleFunc(tasks.TypeOTPEmail, otpHandler.ProcessDelivery)
	mux.HandleFunc(tasks.TypeOTPCleanup, otpHandler.ProcessCleanup)

	sweepHandler := NewMembershipSweepHandler(ws.membershipRepo)
	mux.HandleFunc(tasks.TypeMembershipSweep, sweepHandler.ProcessTask)

	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(mux); err != nil {
		if !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Fatalf("Could not run worker server: %v", err)
		} else {
			ws.log.Info("Worker server stopped.")
		}
	}
}

// Shutdown stops the worker gracefully.
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
