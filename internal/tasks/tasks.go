// Package tasks defines the asynq task types the worker server dispatches
// on and the constructors that build their payloads.
package tasks

// TypeStaleRoomSweep is the periodic task that closes waiting rooms the
// Stale Room Reaper has judged idle for too long. It carries no payload:
// the handler reads the idle threshold from its own configuration rather
// than the task body, since every run uses the same cutoff rule.
const TypeStaleRoomSweep = "room:stale_sweep"

// NewStaleRoomSweepTask builds the sweep task's (empty) payload. It exists
// so the scheduler and any future payload fields share one construction
// point instead of scattering asynq.NewTask calls with inline nils.
func NewStaleRoomSweepTask() ([]byte, error) {
	return nil, nil
}
