package service

import (
	"context"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a background ingestion job
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// IngestFile is one uploaded file queued for ingestion
type IngestFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// IngestJob tracks a background ingestion run. Snapshot returns a copy safe
// to serialize; the live job is only mutated by its worker goroutine.
type IngestJob struct {
	ID             string    `json:"id"`
	Status         JobStatus `json:"status"`
	TotalFiles     int       `json:"total_files"`
	ProcessedFiles int       `json:"processed_files"`
	FailedFiles    []string  `json:"failed_files,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// StartIngestion queues the files for background processing and returns the
// job ID immediately. Progress is visible through JobStatus.
func (s *Session) StartIngestion(files []IngestFile) string {
	job := &IngestJob{
		ID:         uuid.NewString(),
		Status:     JobPending,
		TotalFiles: len(files),
	}

	s.jobs.Store(job.ID, job)

	go s.runIngestion(job, files)

	return job.ID
}

func (s *Session) runIngestion(job *IngestJob, files []IngestFile) {
	s.updateJob(job.ID, func(j *IngestJob) { j.Status = JobProcessing })

	ctx := context.Background()

	for _, file := range files {
		if _, err := s.documents.Add(ctx, file.Filename, file.Content, file.ContentType); err != nil {
			s.logger.WithError(err).
				WithField("filename", file.Filename).
				Warn("document ingestion failed")
			s.updateJob(job.ID, func(j *IngestJob) {
				j.FailedFiles = append(j.FailedFiles, file.Filename)
			})

			continue
		}

		s.updateJob(job.ID, func(j *IngestJob) { j.ProcessedFiles++ })
	}

	s.updateJob(job.ID, func(j *IngestJob) {
		if len(j.FailedFiles) == j.TotalFiles && j.TotalFiles > 0 {
			j.Status = JobFailed
			j.Error = "all files failed to ingest"
		} else {
			j.Status = JobCompleted
		}
	})
}

// updateJob replaces the stored job with a mutated copy so readers never see
// a partially-updated struct
func (s *Session) updateJob(id string, mutate func(*IngestJob)) {
	value, ok := s.jobs.Load(id)
	if !ok {
		return
	}

	current := value.(*IngestJob)
	next := *current
	next.FailedFiles = append([]string(nil), current.FailedFiles...)
	mutate(&next)
	s.jobs.Store(id, &next)
}

// JobStatus returns a snapshot of the ingestion job, if it exists
func (s *Session) JobStatus(id string) (*IngestJob, bool) {
	value, ok := s.jobs.Load(id)
	if !ok {
		return nil, false
	}

	job := *(value.(*IngestJob))
	job.FailedFiles = append([]string(nil), job.FailedFiles...)

	return &job, true
}
