package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"roomsplit/internal/tasks"
)

// WorkerServer wraps the asynq server's start/stop lifecycle and owns the
// mux that routes task types to their handlers.
type WorkerServer struct {
	server *asynq.Server
	log    *logrus.Entry
	reaper *StaleRoomReaperHandler
}

// NewWorkerServer creates a WorkerServer. reaper handles the only task
// type currently registered, the periodic stale room sweep.
func NewWorkerServer(redisOpt asynq.RedisClientOpt, reaper *StaleRoomReaperHandler, logger *logrus.Logger) *WorkerServer {
	if reaper == nil {
		panic("worker: StaleRoomReaperHandler cannot be nil for WorkerServer")
	}
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
				}).WithError(err).Error("worker: task failed")
			}),
		},
	)

	return &WorkerServer{
		server: server,
		log:    logEntry,
		reaper: reaper,
	}
}

// Start runs the worker server. Call it from its own goroutine; it blocks
// until Shutdown stops it.
func (ws *WorkerServer) Start() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeStaleRoomSweep, ws.reaper.ProcessTask)

	ws.log.Info("worker server starting")
	if err := ws.server.Run(mux); err != nil {
		if !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.WithError(err).Fatal("worker server exited")
		} else {
			ws.log.Info("worker server stopped")
		}
	}
}

// Shutdown stops the worker server, waiting for in-flight tasks to finish.
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("shutting down worker server")
	ws.server.Shutdown()
	ws.log.Info("worker server shut down complete")
}
