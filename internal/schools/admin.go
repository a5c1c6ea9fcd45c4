package schools

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RebuildJob tracks one asynchronous derived-data rebuild.
type RebuildJob struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`   // "buffers", "membership", "index"
	Status      string     `json:"status"` // "running", "completed", "failed"
	Error       string     `json:"error,omitempty"`
	Result      *Rebuild   `json:"result,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

var (
	rebuildJobs   = make(map[string]*RebuildJob)
	rebuildJobsMu sync.Mutex

	// rebuildRunning serialises rebuilds of the same kind; concurrent
	// staging-table swaps of one derived set would race on the rename.
	rebuildRunning = make(map[string]bool)
)

// validRebuildKind accepts the two persisted derived sets plus the
// in-memory address index, which goes stale after a bulk re-import.
func validRebuildKind(kind string) bool {
	switch kind {
	case "buffers", "membership", "index":
		return true
	}
	return false
}

// StartRebuild handles POST /admin/rebuild/{kind}.
func StartRebuild(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !validRebuildKind(kind) {
		http.Error(w, "kind must be buffers, membership or index", http.StatusBadRequest)
		return
	}

	rebuildJobsMu.Lock()
	if rebuildRunning[kind] {
		rebuildJobsMu.Unlock()
		http.Error(w, "a "+kind+" rebuild is already running", http.StatusConflict)
		return
	}
	job := &RebuildJob{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    "running",
		StartedAt: time.Now(),
	}
	rebuildJobs[job.ID] = job
	rebuildRunning[kind] = true
	rebuildJobsMu.Unlock()

	go runRebuild(job)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"job_id": job.ID,
		"status": "running",
	})
}

func runRebuild(job *RebuildJob) {
	ctx := context.Background()

	var rec *Rebuild
	var err error
	switch job.Kind {
	case "buffers":
		rec, err = RebuildBuffers(ctx, defaultRadius)
	case "membership":
		rec, err = RebuildMembership(ctx)
	case "index":
		// In-memory only; reported through the job but never persisted.
		var n int
		n, err = LoadAddressIndex(ctx)
		if err == nil {
			rec = &Rebuild{
				ID:        uuid.New(),
				Kind:      "index",
				Processed: n,
				Built:     n,
				StartedAt: job.StartedAt,
			}
		}
	}

	now := time.Now()
	if rec != nil && rec.CompletedAt == nil {
		rec.CompletedAt = &now
	}
	rebuildJobsMu.Lock()
	job.CompletedAt = &now
	if err != nil {
		job.Status = "failed"
		job.Error = err.Error()
	} else {
		job.Status = "completed"
		job.Result = rec
	}
	rebuildRunning[job.Kind] = false
	rebuildJobsMu.Unlock()
}

// GetRebuildStatus handles GET /admin/rebuild/{jobID}.
func GetRebuildStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	rebuildJobsMu.Lock()
	job, ok := rebuildJobs[jobID]
	var snapshot RebuildJob
	if ok {
		snapshot = *job
	}
	rebuildJobsMu.Unlock()

	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// ListRebuildJobs handles GET /admin/rebuild.
func ListRebuildJobs(w http.ResponseWriter, r *http.Request) {
	rebuildJobsMu.Lock()
	jobs := make([]RebuildJob, 0, len(rebuildJobs))
	for _, job := range rebuildJobs {
		jobs = append(jobs, *job)
	}
	rebuildJobsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}
