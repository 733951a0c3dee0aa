// Package voice stores spoken commands and converts them to text through an
// asynchronous transcription service.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jaehong-maker/Smart-Diffuser-Project/config"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/errs"
)

var (
	// ErrSTTFailed means the service reported the job as failed or could not be reached.
	ErrSTTFailed = errors.New("speech-to-text failed")
	// ErrTranscriptionTimeout means the job did not complete within the polling budget.
	ErrTranscriptionTimeout = errors.New("transcription timed out")
	// ErrClipStore means the clip could not be stored.
	ErrClipStore = errors.New("voice clip could not be stored")
)

// Transcript is the text recognized from one clip and where the clip was kept.
type Transcript struct {
	Text    string
	ClipKey string
}

// Transcriber converts a clip to text.
type Transcriber interface {
	Transcribe(ctx context.Context, deviceID string, audio []byte) (Transcript, error)
}

// Service stores a clip, starts a job and polls it to completion.
type Service struct {
	clips      ClipStore
	jobs       JobClient
	language   string
	sampleRate int
	maxPolls   int
	interval   time.Duration
	now        func() time.Time
}

// NewService wires a transcriber from configuration. An empty audio dir leaves
// clips unset, and every Transcribe call then fails with a configuration error.
func NewService(cfg config.VoiceConfig, now func() time.Time) *Service {
	var clips ClipStore
	if cfg.AudioDir != "" {
		clips = NewDirStore(cfg.AudioDir)
	}
	client := &http.Client{Timeout: time.Duration(cfg.RequestTimeoutSecs) * time.Second}
	return &Service{
		clips:      clips,
		jobs:       NewHTTPJobClient(cfg.STTEndpoint, client),
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
		maxPolls:   cfg.MaxPolls,
		interval:   time.Duration(cfg.PollIntervalMillis) * time.Millisecond,
		now:        now,
	}
}

// NewServiceWith creates a service from explicit collaborators.
func NewServiceWith(clips ClipStore, jobs JobClient, language string, sampleRate, maxPolls int, interval time.Duration, now func() time.Time) *Service {
	return &Service{
		clips:      clips,
		jobs:       jobs,
		language:   language,
		sampleRate: sampleRate,
		maxPolls:   maxPolls,
		interval:   interval,
		now:        now,
	}
}

// Transcribe stores audio and returns the recognized text. The returned Transcript
// carries the clip key even when transcription fails after the clip was stored.
func (s *Service) Transcribe(ctx context.Context, deviceID string, audio []byte) (Transcript, error) {
	if s.clips == nil {
		return Transcript{}, errs.NewConfiguration("VOICE_BUCKET missing")
	}

	key, err := s.clips.Put(ctx, deviceID, s.now(), audio)
	if err != nil {
		return Transcript{}, fmt.Errorf("%w: %v", ErrClipStore, err)
	}
	out := Transcript{ClipKey: key}

	job, err := s.jobs.StartJob(ctx, s.clips.URI(key), s.language, s.sampleRate)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrSTTFailed, err)
	}

	log.Printf("Started transcription job %s for clip %s", job, key)
	for i := 0; i < s.maxPolls; i++ {
		status, err := s.jobs.JobStatus(ctx, job)
		if err != nil {
			return out, fmt.Errorf("%w: %v", ErrSTTFailed, err)
		}

		switch status.Status {
		case JobCompleted:
			text, err := s.jobs.FetchTranscript(ctx, status.TranscriptURI)
			if err != nil {
				return out, fmt.Errorf("%w: transcript for job %s: %v", ErrSTTFailed, job, err)
			}
			out.Text = text
			return out, nil
		case JobFailed:
			reason := status.FailureReason
			if reason == "" {
				reason = "Unknown"
			}
			return out, fmt.Errorf("%w: %s", ErrSTTFailed, reason)
		}

		select {
		case <-ctx.Done():
			return out, fmt.Errorf("%w: %v", ErrTranscriptionTimeout, ctx.Err())
		case <-time.After(s.interval):
		}
	}
	return out, ErrTranscriptionTimeout
}
