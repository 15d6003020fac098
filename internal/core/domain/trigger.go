package domain

type TriggerSource string

const (
	SourceQueue        TriggerSource = "queue"
	SourceNotification TriggerSource = "notification"
)

type JobStatus string

const (
	JobSucceeded JobStatus = "SUCCEEDED"
	JobFailed    JobStatus = "FAILED"
)

type NewDocumentTrigger struct {
	OwnerID    string `json:"owner_id"`
	DocumentID string `json:"document_id"`
}

type JobCompletionTrigger struct {
	JobID    string            `json:"job_id"`
	Status   JobStatus         `json:"status"`
	Location map[string]string `json:"location,omitempty"`
}

// TriggerRecord is the inbound envelope. Source is set by the transport from
// the delivery channel, never inferred from payload shape.
type TriggerRecord struct {
	Source        TriggerSource         `json:"source"`
	NewDocument   *NewDocumentTrigger   `json:"new_document,omitempty"`
	JobCompletion *JobCompletionTrigger `json:"job_completion,omitempty"`
}

// ItemID identifies the trigger in logs and batch results.
func (t TriggerRecord) ItemID() string {
	switch {
	case t.NewDocument != nil:
		return t.NewDocument.OwnerID + "/" + t.NewDocument.DocumentID
	case t.JobCompletion != nil:
		return t.JobCompletion.JobID
	default:
		return "unknown"
	}
}

type ItemResult struct {
	ItemID string `json:"item_id"`
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
}

type BatchItemFailure struct {
	ItemID string `json:"item_id"`
	Error  string `json:"error"`
}

type BatchResult struct {
	BatchItemFailures []BatchItemFailure `json:"batch_item_failures"`
	Results           []ItemResult       `json:"results"`
}
