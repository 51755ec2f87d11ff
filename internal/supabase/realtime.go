package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

// RealtimeClient publishes job lifecycle events. Clients that want push
// updates subscribe to the job:{id} channel; the polling API stays the source
// of truth either way.
type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishJobEvent(jobID uuid.UUID, event string, payload map[string]interface{}) error {
	// The Go client has no direct Realtime publish. Job row updates already
	// trigger postgres_changes on subscribed channels, so this only names the
	// channel an explicit publish would use.
	_ = fmt.Sprintf("job:%s", jobID.String())
	_ = event
	_ = payload
	return nil
}

// Event payloads

func ProcessingStartedPayload(jobID uuid.UUID, totalPages int) map[string]interface{} {
	return map[string]interface{}{
		"job_id":      jobID.String(),
		"status":      "processing",
		"total_pages": totalPages,
	}
}

func StageCompletedPayload(jobID uuid.UUID, stage string, progress int) map[string]interface{} {
	return map[string]interface{}{
		"job_id":   jobID.String(),
		"status":   "processing",
		"stage":    stage,
		"progress": progress,
	}
}

func JobCompletedPayload(jobID uuid.UUID, pdfURL string) map[string]interface{} {
	return map[string]interface{}{
		"job_id":   jobID.String(),
		"status":   "completed",
		"progress": 100,
		"pdf_url":  pdfURL,
	}
}

func JobFailedPayload(jobID uuid.UUID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"job_id": jobID.String(),
		"status": "failed",
		"error":  errorMsg,
	}
}
