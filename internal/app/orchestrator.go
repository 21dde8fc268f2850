package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/phishlens/internal/detector"
	"github.com/raysh454/phishlens/internal/features"
	"github.com/raysh454/phishlens/internal/history"
	"github.com/raysh454/phishlens/internal/logging"
)

var (
	ErrJobNotFound        = errors.New("job not found")
	ErrOrchestratorClosed = errors.New("orchestrator closed")
)

type JobEventType string

const (
	JobEventStatus JobEventType = "status"
	JobEventResult JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// Set on the final result event
	Result *detector.Result `json:"result,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

func (s JobStatus) Finished() bool {
	return s == JobDone || s == JobFailed || s == JobCanceled
}

// Job is an asynchronous detection. Values handed out by the Orchestrator
// are snapshots; only Events is shared with the running job.
type Job struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"` // "detect"
	URL       string           `json:"url"`
	Algorithm string           `json:"algorithm"`
	Status    JobStatus        `json:"status"`
	Error     string           `json:"error,omitempty"`
	Result    *detector.Result `json:"result,omitempty"`
	RecordID  string           `json:"record_id,omitempty"`
	StartedAt time.Time        `json:"started_at"`
	EndedAt   time.Time        `json:"ended_at"`
	Events    chan JobEvent    `json:"-"`
}

// Detector is the detection entry point jobs run.
type Detector interface {
	Detect(ctx context.Context, rawURL, algorithm string) (*detector.Result, error)
}

// Recorder stores finished detections.
type Recorder interface {
	Record(ctx context.Context, rawURL string, res *detector.Result) (*history.DetectionRecord, error)
}

type Orchestrator struct {
	cfg      *Config
	detector Detector
	recorder Recorder
	logger   logging.Logger

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
	closed     bool
	wg         sync.WaitGroup

	now func() time.Time
}

// NewOrchestrator ties together config, detector, an optional recorder and logger.
func NewOrchestrator(cfg *Config, det Detector, rec Recorder, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Orchestrator{
		cfg:        cfg,
		detector:   det,
		recorder:   rec,
		logger:     logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (o *Orchestrator) emitJobEvent(job *Job, ev JobEvent) {
	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
		o.logger.Debug("dropping job event", logging.Field{Key: "job_id", Value: ev.JobID}, logging.Field{Key: "type", Value: ev.Type})
	}
}

// update applies fn to the stored job under the lock.
func (o *Orchestrator) update(jobID string, fn func(j *Job)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		fn(j)
	}
}

func (o *Orchestrator) eventBuffer() int {
	if o.cfg.Jobs.EventBuffer > 0 {
		return o.cfg.Jobs.EventBuffer
	}
	return DefaultConfig().Jobs.EventBuffer
}

// pruneLocked drops finished jobs older than the retention window.
func (o *Orchestrator) pruneLocked(now time.Time) {
	retention := o.cfg.Jobs.Retention
	if retention <= 0 {
		return
	}
	for id, j := range o.jobs {
		if j.Status.Finished() && !j.EndedAt.IsZero() && now.Sub(j.EndedAt) > retention {
			delete(o.jobs, id)
		}
	}
}

// StartDetectJob validates rawURL and starts detecting it in the background.
// An unparseable URL is rejected up front with a *features.InvalidURLError.
// The returned Job's Events channel is closed when the job ends.
func (o *Orchestrator) StartDetectJob(ctx context.Context, rawURL, algorithm string) (*Job, error) {
	if _, err := features.Extract(rawURL); err != nil {
		return nil, err
	}

	now := o.now()
	job := &Job{
		ID:        uuid.New().String(),
		Type:      "detect",
		URL:       rawURL,
		Algorithm: algorithm,
		Status:    JobPending,
		StartedAt: now,
		Events:    make(chan JobEvent, o.eventBuffer()),
	}
	jobCtx, cancel := context.WithCancel(ctx)

	o.jobsMu.Lock()
	if o.closed {
		o.jobsMu.Unlock()
		cancel()
		return nil, ErrOrchestratorClosed
	}
	o.pruneLocked(now)
	o.jobs[job.ID] = job
	o.jobCancels[job.ID] = cancel
	snapshot := *job
	o.wg.Add(1)
	o.jobsMu.Unlock()

	o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobPending})
	o.logger.Info("started detect job",
		logging.Field{Key: "job_id", Value: job.ID},
		logging.Field{Key: "url", Value: rawURL},
		logging.Field{Key: "algorithm", Value: algorithm})

	go o.runDetectJob(jobCtx, job)

	return &snapshot, nil
}

func (o *Orchestrator) runDetectJob(ctx context.Context, job *Job) {
	defer o.wg.Done()
	defer func() {
		o.jobsMu.Lock()
		job.EndedAt = o.now()
		if cancel, ok := o.jobCancels[job.ID]; ok {
			cancel()
			delete(o.jobCancels, job.ID)
		}
		o.jobsMu.Unlock()

		// Close events channel so websocket loop can terminate cleanly
		close(job.Events)
	}()

	o.update(job.ID, func(j *Job) { j.Status = JobRunning })
	o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobRunning})

	res, err := o.detector.Detect(ctx, job.URL, job.Algorithm)
	if err != nil {
		status := JobFailed
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			status = JobCanceled
		}
		o.update(job.ID, func(j *Job) {
			j.Status = status
			j.Error = err.Error()
		})
		o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: status, Error: err.Error()})
		o.logger.Info("detect job ended",
			logging.Field{Key: "job_id", Value: job.ID},
			logging.Field{Key: "status", Value: string(status)},
			logging.Err(err))
		return
	}

	var recordID string
	if o.recorder != nil {
		rec, err := o.recorder.Record(ctx, job.URL, res)
		if err != nil {
			o.logger.Warn("recording detection", logging.Field{Key: "job_id", Value: job.ID}, logging.Err(err))
		} else {
			recordID = rec.ID
		}
	}

	o.update(job.ID, func(j *Job) {
		j.Status = JobDone
		j.Result = res
		j.RecordID = recordID
	})
	o.emitJobEvent(job, JobEvent{JobID: job.ID, Type: JobEventResult, Status: JobDone, Result: res})
	o.logger.Info("detect job done", logging.Field{Key: "job_id", Value: job.ID})
}

// CancelJob stops a running job. It reports ErrJobNotFound for ids the
// orchestrator does not know; canceling a finished job is a no-op.
func (o *Orchestrator) CancelJob(jobID string) error {
	o.jobsMu.Lock()
	_, known := o.jobs[jobID]
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()

	if !known {
		return ErrJobNotFound
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

// GetJob returns a snapshot of the job, or nil if it is unknown or pruned.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil
	}
	snapshot := *j
	return &snapshot
}

// ListJobs returns snapshots of all retained jobs, oldest first.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		snapshot := *j
		out = append(out, &snapshot)
	}
	o.jobsMu.Unlock()

	sort.Slice(out, func(i, k int) bool {
		if out[i].StartedAt.Equal(out[k].StartedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].StartedAt.Before(out[k].StartedAt)
	})
	return out
}

// Close cancels running jobs and waits for them to finish. Further
// StartDetectJob calls fail with ErrOrchestratorClosed.
func (o *Orchestrator) Close() {
	o.jobsMu.Lock()
	if o.closed {
		o.jobsMu.Unlock()
		return
	}
	o.closed = true
	for _, cancel := range o.jobCancels {
		cancel()
	}
	o.jobsMu.Unlock()

	o.wg.Wait()
}
