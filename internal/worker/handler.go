package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"roomsplit/internal/repository"
	"roomsplit/internal/service"
)

// StaleRoomReaperHandler closes waiting rooms nobody has touched in a
// while. A room only ever becomes stale while it is still waiting — once
// divided, it has an owner actively running something — so the sweep
// looks at FindStaleWaitingRoomCodes and nothing else.
type StaleRoomReaperHandler struct {
	rooms repository.RoomRepository
	svc   *service.RoomService
	ttl   time.Duration
}

// NewStaleRoomReaperHandler creates a StaleRoomReaperHandler. ttl is the
// idle threshold past which a waiting room is swept.
func NewStaleRoomReaperHandler(rooms repository.RoomRepository, svc *service.RoomService, ttl time.Duration) *StaleRoomReaperHandler {
	if rooms == nil || svc == nil {
		panic("worker: RoomRepository and RoomService must be non-nil for StaleRoomReaperHandler")
	}
	if ttl <= 0 {
		panic("worker: ttl must be positive for StaleRoomReaperHandler")
	}
	return &StaleRoomReaperHandler{rooms: rooms, svc: svc, ttl: ttl}
}

// ProcessTask implements asynq.Handler. It never fails the whole sweep
// over one room: a single CloseStaleRoom error is logged and the rest of
// the batch still runs, so one bad row can't make Asynq retry the entire
// cycle forever.
func (h *StaleRoomReaperHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	retryCount, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     retryCount,
		"max_retry": maxRetry,
	})

	cutoff := time.Now().UTC().Add(-h.ttl)
	codes, err := h.rooms.FindStaleWaitingRoomCodes(ctx, cutoff)
	if err != nil {
		logCtx.WithError(err).Error("stale room sweep: could not list stale rooms")
		return err
	}
	if len(codes) == 0 {
		logCtx.Debug("stale room sweep: nothing to close")
		return nil
	}

	closed := 0
	for _, code := range codes {
		if err := h.svc.CloseStaleRoom(ctx, code); err != nil {
			logCtx.WithError(err).WithField("room_code", code).Error("stale room sweep: failed to close room")
			continue
		}
		closed++
	}
	logCtx.WithFields(logrus.Fields{"candidates": len(codes), "closed": closed}).Info("stale room sweep complete")
	return nil
}
