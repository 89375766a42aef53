package queue

import (
	"encoding/json"
	"fmt"

	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// TypeCodeAgentRun is the asynq task type for generation jobs.
const TypeCodeAgentRun = domain.CodeAgentRunEvent

// codeAgentRunPayload is the task data on the bus.
type codeAgentRunPayload struct {
	Value     string `json:"value"`
	ProjectID string `json:"projectId"`
	MessageID string `json:"messageId"`
}

func encodeJob(job domain.GenerationJob) ([]byte, error) {
	return json.Marshal(codeAgentRunPayload{
		Value:     job.PromptValue,
		ProjectID: job.ProjectID.String(),
		MessageID: job.JobID.String(),
	})
}

func decodeJob(data []byte) (domain.GenerationJob, error) {
	var p codeAgentRunPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.GenerationJob{}, err
	}
	msgID, err := domain.ParseMessageID(p.MessageID)
	if err != nil {
		return domain.GenerationJob{}, fmt.Errorf("messageId: %w", err)
	}
	projectID, err := domain.ParseProjectID(p.ProjectID)
	if err != nil {
		return domain.GenerationJob{}, fmt.Errorf("projectId: %w", err)
	}
	return domain.GenerationJob{JobID: msgID, ProjectID: projectID, PromptValue: p.Value}, nil
}
