package domain

// CodeAgentRunEvent is the job bus name for generation requests.
const CodeAgentRunEvent = "code-agent/run"

// GenerationJob is the ephemeral bus payload. JobID is the originating user
// message id and is the idempotency key end to end.
type GenerationJob struct {
	JobID       MessageID
	ProjectID   ProjectID
	PromptValue string
}

// NewGenerationJob keys a job by the user message that requested it.
func NewGenerationJob(m *Message) GenerationJob {
	return GenerationJob{JobID: m.ID, ProjectID: m.ProjectID, PromptValue: m.Content}
}
