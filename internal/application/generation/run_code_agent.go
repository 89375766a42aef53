// Package generation is the worker side of the pipeline: it turns one job into
// exactly one terminal assistant message.
package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// FailureContent is the assistant message shown when the agent fails.
const FailureContent = "Something went wrong. Please try again."

// DefaultFragmentTitle is used when the agent does not name its output.
const DefaultFragmentTitle = "Fragment"

const maxHistory = 10

// RunCodeAgent handles code-agent/run deliveries. It is safe under
// redelivery: a job that already has a reply is acknowledged without calling
// the generator again.
type RunCodeAgent struct {
	messages  ports.MessageRepository
	results   ports.GenerationStore
	generator ports.Generator
	emitter   ports.WebhookEmitter
	now       func() time.Time
	log       zerolog.Logger
}

// NewRunCodeAgent builds the use case. emitter may be nil.
func NewRunCodeAgent(messages ports.MessageRepository, results ports.GenerationStore, generator ports.Generator, emitter ports.WebhookEmitter, log zerolog.Logger) *RunCodeAgent {
	return &RunCodeAgent{
		messages:  messages,
		results:   results,
		generator: generator,
		emitter:   emitter,
		now:       time.Now,
		log:       log,
	}
}

// Handle adapts Execute to ports.JobHandler.
func (uc *RunCodeAgent) Handle(ctx context.Context, job domain.GenerationJob) error {
	return uc.Execute(ctx, job)
}

// Execute runs the job. Storage errors are returned so the bus redelivers;
// generator errors become an ERROR reply.
func (uc *RunCodeAgent) Execute(ctx context.Context, job domain.GenerationJob) error {
	log := uc.log.With().Str("job_id", job.JobID.String()).Str("project_id", job.ProjectID.String()).Logger()

	existing, err := uc.results.FindReply(ctx, job.JobID)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Debug().Str("reply_id", existing.ID.String()).Msg("job already answered; skipping redelivery")
		return nil
	}

	out, genErr := uc.generator.Generate(ctx, ports.GenerationRequest{
		JobID:     job.JobID.String(),
		ProjectID: job.ProjectID.String(),
		Prompt:    job.PromptValue,
		History:   uc.history(ctx, job),
	})
	if genErr != nil && ctx.Err() != nil && errors.Is(genErr, ctx.Err()) {
		// shutting down, not a generation failure
		return ctx.Err()
	}

	now := uc.now()
	reply := &domain.Message{
		ID:              domain.NewMessageID(uuid.New()),
		ProjectID:       job.ProjectID,
		Role:            domain.RoleAssistant,
		SourceMessageID: &job.JobID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	var fragment *domain.Fragment
	if genErr != nil || out == nil || strings.TrimSpace(out.Summary) == "" {
		reply.Type = domain.TypeError
		reply.Content = FailureContent
		ev := log.Warn()
		if genErr != nil {
			ev = ev.Err(genErr)
		}
		ev.Msg("code agent failed")
	} else {
		reply.Type = domain.TypeResult
		reply.Content = strings.TrimSpace(out.Summary)
		title := strings.TrimSpace(out.Title)
		if title == "" {
			title = DefaultFragmentTitle
		}
		files := out.Files
		if files == nil {
			files = map[string]string{}
		}
		fragment = &domain.Fragment{
			ID:         domain.NewFragmentID(uuid.New()),
			MessageID:  reply.ID,
			Title:      title,
			Files:      files,
			SandboxURL: out.SandboxURL,
			CreatedAt:  now,
		}
	}

	created, err := uc.results.SaveResult(ctx, reply, fragment)
	if err != nil {
		return err
	}
	if !created {
		log.Debug().Msg("concurrent delivery stored the reply first")
		return nil
	}
	log.Info().Str("reply_id", reply.ID.String()).Str("type", string(reply.Type)).Msg("job finished")
	uc.emit(ctx, job, reply)
	return nil
}

func (uc *RunCodeAgent) history(ctx context.Context, job domain.GenerationJob) []ports.HistoryMessage {
	msgs, err := uc.messages.ListWithFragments(ctx, job.ProjectID)
	if err != nil {
		uc.log.Warn().Err(err).Str("job_id", job.JobID.String()).Msg("load history failed; generating without it")
		return nil
	}
	var out []ports.HistoryMessage
	for _, m := range msgs {
		if m.ID == job.JobID {
			break
		}
		if m.IsWorkerError() {
			continue
		}
		out = append(out, ports.HistoryMessage{Role: m.Role, Content: m.Content})
	}
	if len(out) > maxHistory {
		out = out[len(out)-maxHistory:]
	}
	return out
}

func (uc *RunCodeAgent) emit(ctx context.Context, job domain.GenerationJob, reply *domain.Message) {
	if uc.emitter == nil {
		return
	}
	ev := ports.AuditEvent{
		Event:     "generation.completed",
		ProjectID: job.ProjectID.String(),
		MessageID: job.JobID.String(),
		Success:   reply.Type == domain.TypeResult,
	}
	if !ev.Success {
		ev.Event = "generation.failed"
		ev.Err = reply.Content
	}
	if err := uc.emitter.Emit(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("event", ev.Event).Msg("webhook emit failed")
	}
}
