package jobs

// Task type constants for asynq task registration.
const (
	// TypeDriveSyncDispatch fans a DriveSyncJob out to every owner with
	// sync enabled; it's the handler behind the drive_sync_all_users
	// cron entry, not a per-owner task.
	TypeDriveSyncDispatch = "drive_sync:dispatch"

	// TypeMemoryGeneration regenerates "N years ago today" memories for
	// every owner; the handler behind the daily_memories cron entry.
	TypeMemoryGeneration = "memory:generate"
)

// Queue names for task prioritization.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)
