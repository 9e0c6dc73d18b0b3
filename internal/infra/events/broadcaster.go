// Package events implements the progress broadcaster from spec.md section
// 5: process-local, non-authoritative state that is rebuilt from database
// counters on restart. It exists purely so a status endpoint can push
// live updates to anyone watching a sync job; losing it costs nothing but
// a UI refresh.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase enumerates a sync job's lifecycle stage, per spec.md section 4.8.
type Phase string

const (
	PhaseQueued          Phase = "queued"
	PhaseAuth            Phase = "auth"
	PhaseListing         Phase = "listing"
	PhaseDownloadingZip  Phase = "downloading_zip"
	PhaseExtracting      Phase = "extracting"
	PhaseImporting       Phase = "importing"
	PhaseCompleted       Phase = "completed"
	PhaseIdle            Phase = "idle"
)

const recentFailuresCap = 10

// FailureNote is one entry in a ProgressSnapshot's ring buffer of recent
// per-item failures.
type FailureNote struct {
	SourceEntryID string    `json:"source_entry_id"`
	Error         string    `json:"error"`
	At            time.Time `json:"at"`
}

// ProgressSnapshot is the single tagged record type spec.md section 9
// calls for in place of the Python original's untyped progress dict.
type ProgressSnapshot struct {
	JobID            uuid.UUID     `json:"job_id"`
	UserID           uuid.UUID     `json:"user_id"`
	Phase            Phase         `json:"phase"`
	Processed        int           `json:"processed"`
	Total            int           `json:"total"`
	Uploaded         int           `json:"uploaded"`
	Skipped          int           `json:"skipped"`
	Failed           int           `json:"failed"`
	CurrentBatch     int           `json:"current_batch"`
	CurrentItem      string        `json:"current_item,omitempty"`
	DownloadPercent  float64       `json:"download_percent,omitempty"`
	ZIPFilesTotal    int           `json:"zip_files_total,omitempty"`
	ZIPFilesDone     int           `json:"zip_files_processed,omitempty"`
	ZIPEntriesTotal  int           `json:"zip_entries_total,omitempty"`
	ZIPEntriesDone   int           `json:"zip_entries_processed,omitempty"`
	RecentFailures   []FailureNote `json:"recent_failures,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (s *ProgressSnapshot) pushFailure(note FailureNote) {
	s.RecentFailures = append(s.RecentFailures, note)
	if len(s.RecentFailures) > recentFailuresCap {
		s.RecentFailures = s.RecentFailures[len(s.RecentFailures)-recentFailuresCap:]
	}
}

// subscriber is one live watcher of a single user's snapshot stream.
type subscriber struct {
	id uuid.UUID
	ch chan ProgressSnapshot
}

// Broadcaster holds the latest ProgressSnapshot per user and fans out
// updates to any live subscribers. It is not authoritative: DriveSyncJob
// rows in Postgres are the source of truth, and this map is rebuilt
// lazily as jobs report progress after a restart.
type Broadcaster struct {
	mu          sync.RWMutex
	snapshots   map[uuid.UUID]ProgressSnapshot
	subscribers map[uuid.UUID]map[uuid.UUID]*subscriber
}

// NewBroadcaster creates an empty progress broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		snapshots:   make(map[uuid.UUID]ProgressSnapshot),
		subscribers: make(map[uuid.UUID]map[uuid.UUID]*subscriber),
	}
}

// Publish records the latest snapshot for a user and fans it out to any
// live subscribers without blocking on a slow or dead reader.
func (b *Broadcaster) Publish(userID uuid.UUID, snapshot ProgressSnapshot) {
	snapshot.UserID = userID
	snapshot.UpdatedAt = time.Now().UTC()

	b.mu.Lock()
	b.snapshots[userID] = snapshot
	subs := b.subscribers[userID]
	b.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.ch <- snapshot:
		default:
		}
	}
}

// Snapshot returns the last published progress for userID, if any.
func (b *Broadcaster) Snapshot(userID uuid.UUID) (ProgressSnapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap, ok := b.snapshots[userID]
	return snap, ok
}

// Subscribe registers a live watcher for userID's progress stream.
// Callers must call the returned cancel func when done watching.
func (b *Broadcaster) Subscribe(userID uuid.UUID) (<-chan ProgressSnapshot, func()) {
	sub := &subscriber{id: uuid.New(), ch: make(chan ProgressSnapshot, 16)}

	b.mu.Lock()
	if b.subscribers[userID] == nil {
		b.subscribers[userID] = make(map[uuid.UUID]*subscriber)
	}
	b.subscribers[userID][sub.id] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subscribers[userID]; ok {
			if s, ok := set[sub.id]; ok {
				close(s.ch)
				delete(set, sub.id)
			}
			if len(set) == 0 {
				delete(b.subscribers, userID)
			}
		}
	}

	return sub.ch, cancel
}
