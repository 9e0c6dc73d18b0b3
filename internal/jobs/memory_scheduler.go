package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/justraqib/semantic-photo/internal/domain/memory"
)

// MemoryDispatcher is the asynq handler behind the daily_memories cron
// entry: it calls the Memory Generator (C12) once per run. Unlike
// DriveSyncDispatcher there's nothing to fan out per-owner here —
// memory.Generator.GenerateForToday already loops every owner with
// photos itself.
type MemoryDispatcher struct {
	gen    memory.GeneratorInterface
	logger *slog.Logger
}

func NewMemoryDispatcher(gen memory.GeneratorInterface, logger *slog.Logger) *MemoryDispatcher {
	return &MemoryDispatcher{gen: gen, logger: logger}
}

// ProcessTask is the asynq handler behind TypeMemoryGeneration.
func (d *MemoryDispatcher) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if err := d.gen.GenerateForToday(ctx); err != nil {
		return err
	}
	d.logger.Info("daily memory generation completed")
	return nil
}

// NewMemoryGenerationTask creates the periodic task the scheduler
// registers against the daily_memories cron entry.
func NewMemoryGenerationTask() *asynq.Task {
	return asynq.NewTask(TypeMemoryGeneration, nil)
}
