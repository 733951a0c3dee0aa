package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Transcription job states reported by the speech-to-text service.
const (
	JobInProgress = "IN_PROGRESS"
	JobCompleted  = "COMPLETED"
	JobFailed     = "FAILED"
)

// JobStatus is the polled state of a transcription job.
type JobStatus struct {
	Name          string `json:"job_name"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	TranscriptURI string `json:"transcript_uri,omitempty"`
}

// JobClient starts and polls transcription jobs.
type JobClient interface {
	StartJob(ctx context.Context, mediaURI, language string, sampleRate int) (string, error)
	JobStatus(ctx context.Context, name string) (JobStatus, error)
	FetchTranscript(ctx context.Context, uri string) (string, error)
}

type startJobRequest struct {
	JobName      string `json:"job_name"`
	MediaURI     string `json:"media_uri"`
	MediaFormat  string `json:"media_format"`
	LanguageCode string `json:"language_code"`
	SampleRate   int    `json:"sample_rate"`
}

type transcriptDocument struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// HTTPJobClient talks to a transcription service over JSON/HTTP:
// POST {endpoint}/jobs, GET {endpoint}/jobs/{name}, then GET the transcript URI.
type HTTPJobClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPJobClient creates a job client. Every request is bounded by the client's timeout.
func NewHTTPJobClient(endpoint string, client *http.Client) *HTTPJobClient {
	return &HTTPJobClient{endpoint: strings.TrimRight(endpoint, "/"), client: client}
}

// StartJob submits a clip and returns the generated job name.
func (c *HTTPJobClient) StartJob(ctx context.Context, mediaURI, language string, sampleRate int) (string, error) {
	name := "diffuser-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	body, err := json.Marshal(startJobRequest{
		JobName:      name,
		MediaURI:     mediaURI,
		MediaFormat:  "wav",
		LanguageCode: language,
		SampleRate:   sampleRate,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/jobs", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("start job request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("start job returned status %d", resp.StatusCode)
	}
	return name, nil
}

// JobStatus returns the current state of a job.
func (c *HTTPJobClient) JobStatus(ctx context.Context, name string) (JobStatus, error) {
	var status JobStatus
	if err := c.getJSON(ctx, c.endpoint+"/jobs/"+url.PathEscape(name), &status); err != nil {
		return JobStatus{}, err
	}
	return status, nil
}

// FetchTranscript downloads the transcript document and returns its first transcript, trimmed.
// A document without transcripts yields an empty string.
func (c *HTTPJobClient) FetchTranscript(ctx context.Context, uri string) (string, error) {
	var doc transcriptDocument
	if err := c.getJSON(ctx, uri, &doc); err != nil {
		return "", err
	}
	if len(doc.Results.Transcripts) == 0 {
		return "", nil
	}
	return strings.TrimSpace(doc.Results.Transcripts[0].Transcript), nil
}

func (c *HTTPJobClient) getJSON(ctx context.Context, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
