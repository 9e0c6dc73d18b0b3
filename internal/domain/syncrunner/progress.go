package syncrunner

import "github.com/google/uuid"

// Phase is the sync job's current activity, per spec.md §4.8/§6's
// progress snapshot record.
type Phase string

const (
	PhaseQueued         Phase = "queued"
	PhaseAuth           Phase = "auth"
	PhaseListing        Phase = "listing"
	PhaseDownloadingZip Phase = "downloading_zip"
	PhaseExtracting     Phase = "extracting"
	PhaseImporting      Phase = "importing"
	PhaseCompleted      Phase = "completed"
	PhaseIdle           Phase = "idle"
)

// FailureNote is one entry in the progress record's recent_failures
// ring buffer.
type FailureNote struct {
	Item   string
	Reason string
}

// recentFailuresCap is the ring buffer size spec.md §4.8 names.
const recentFailuresCap = 10

// Progress is the sync status endpoint's read model for a running or
// finished job, rebuilt fresh for every published snapshot.
type Progress struct {
	JobID               uuid.UUID
	Phase               Phase
	BatchSize           int
	CurrentBatch        int
	TotalFiles          int
	ProcessedFiles      int
	Uploaded            int
	Skipped             int
	Failed              int
	ZipFilesTotal       int
	ZipFilesProcessed   int
	ZipEntriesTotal     int
	ZipEntriesProcessed int
	DownloadPercent     int
	DownloadedMB        int64
	DownloadTotalMB     int64
	CurrentItem         string
	Message             string
	RecentFailures      []FailureNote
}

// Publisher receives progress snapshots as a job advances. The sync
// status endpoint reads the latest snapshot back out; an in-memory
// Publisher is sufficient since a job only ever runs on one worker at a
// time.
type Publisher interface {
	Publish(p Progress)
}

// NoopPublisher discards every snapshot, for callers (tests, one-shot
// CLI runs) that don't serve a status endpoint.
type NoopPublisher struct{}

func (NoopPublisher) Publish(Progress) {}

// tracker accumulates one job's progress fields and pushes a snapshot
// to its Publisher on every update.
type tracker struct {
	pub   Publisher
	state Progress
}

func newTracker(pub Publisher, jobID uuid.UUID, batchSize int) *tracker {
	if pub == nil {
		pub = NoopPublisher{}
	}
	return &tracker{pub: pub, state: Progress{JobID: jobID, BatchSize: batchSize, Phase: PhaseQueued}}
}

func (t *tracker) setPhase(phase Phase, item string) {
	t.state.Phase = phase
	t.state.CurrentItem = item
	t.publish()
}

func (t *tracker) setTotals(totalFiles, zipFilesTotal, zipEntriesTotal int) {
	t.state.TotalFiles = totalFiles
	t.state.ZipFilesTotal = zipFilesTotal
	t.state.ZipEntriesTotal = zipEntriesTotal
	t.publish()
}

func (t *tracker) addBatchResult(batchNo, uploaded, skipped, failed int) {
	t.state.CurrentBatch = batchNo
	t.state.ProcessedFiles += uploaded + skipped + failed
	t.state.Uploaded += uploaded
	t.state.Skipped += skipped
	t.state.Failed += failed
	t.publish()
}

func (t *tracker) recordFailure(item, reason string) {
	t.state.RecentFailures = append(t.state.RecentFailures, FailureNote{Item: item, Reason: reason})
	if n := len(t.state.RecentFailures); n > recentFailuresCap {
		t.state.RecentFailures = t.state.RecentFailures[n-recentFailuresCap:]
	}
	t.publish()
}

func (t *tracker) setDownloadProgress(downloadedMB, totalMB int64) {
	t.state.DownloadedMB = downloadedMB
	t.state.DownloadTotalMB = totalMB
	if totalMB > 0 {
		t.state.DownloadPercent = int(downloadedMB * 100 / totalMB)
	}
	t.publish()
}

func (t *tracker) setMessage(msg string) {
	t.state.Message = msg
	t.publish()
}

func (t *tracker) publish() {
	t.pub.Publish(t.state)
}
