// Package admission gates generation requests: ownership check, credit
// consumption, durable user message, job dispatch.
package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
)

// DefaultGenerationCost is the credit price of one generation request.
const DefaultGenerationCost = 1

// AdmitInput is a request against an existing project.
type AdmitInput struct {
	UserID    domain.UserID
	Plan      domain.Plan
	ProjectID domain.ProjectID
	Value     string
}

// NewProjectInput is a first request that also creates its project.
type NewProjectInput struct {
	UserID domain.UserID
	Plan   domain.Plan
	Value  string
}

// NewProjectResult is the created project and its first message.
type NewProjectResult struct {
	Project *domain.Project
	Message *domain.Message
}

// Controller makes the single pass/fail decision per generation request.
type Controller struct {
	projects ports.ProjectRepository
	messages ports.MessageRepository
	ledger   ports.CreditLedger
	enqueuer ports.TaskEnqueuer
	cost     int64
	now      func() time.Time
	log      zerolog.Logger
}

// NewController builds the controller. cost <= 0 uses DefaultGenerationCost.
func NewController(projects ports.ProjectRepository, messages ports.MessageRepository, ledger ports.CreditLedger, enqueuer ports.TaskEnqueuer, cost int64, log zerolog.Logger) *Controller {
	if cost <= 0 {
		cost = DefaultGenerationCost
	}
	return &Controller{
		projects: projects,
		messages: messages,
		ledger:   ledger,
		enqueuer: enqueuer,
		cost:     cost,
		now:      time.Now,
		log:      log,
	}
}

// Admit charges the user, stores the message and dispatches its job. The
// returned error is one of ErrInvalidPrompt, ErrProjectNotFound,
// ErrQuotaExceeded or ErrAdmissionFailed (possibly wrapped).
func (c *Controller) Admit(ctx context.Context, in AdmitInput) (*domain.Message, error) {
	prompt, err := domain.NormalizePrompt(in.Value)
	if err != nil {
		return nil, err
	}
	project, err := c.projects.GetByIDForOwner(ctx, in.ProjectID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: load project: %w", domerrors.ErrAdmissionFailed, err)
	}
	if project == nil {
		return nil, domerrors.ErrProjectNotFound
	}
	if err := c.charge(ctx, in.UserID, in.Plan); err != nil {
		return nil, err
	}
	msg := domain.NewUserMessage(project.ID, prompt, c.now())
	if err := c.messages.Append(ctx, msg); err != nil {
		c.refund(ctx, in.UserID, in.Plan, err)
		return nil, fmt.Errorf("%w: store message: %w", domerrors.ErrAdmissionFailed, err)
	}
	if err := c.dispatch(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// AdmitNewProject is Admit for a user's first request: the project and its
// first message are created together.
func (c *Controller) AdmitNewProject(ctx context.Context, in NewProjectInput) (*NewProjectResult, error) {
	prompt, err := domain.NormalizePrompt(in.Value)
	if err != nil {
		return nil, err
	}
	if err := c.charge(ctx, in.UserID, in.Plan); err != nil {
		return nil, err
	}
	now := c.now()
	project := domain.NewProject(in.UserID, now)
	msg := domain.NewUserMessage(project.ID, prompt, now)
	if err := c.projects.CreateWithMessage(ctx, project, msg); err != nil {
		c.refund(ctx, in.UserID, in.Plan, err)
		return nil, fmt.Errorf("%w: create project: %w", domerrors.ErrAdmissionFailed, err)
	}
	if err := c.dispatch(ctx, msg); err != nil {
		return nil, err
	}
	return &NewProjectResult{Project: project, Message: msg}, nil
}

func (c *Controller) charge(ctx context.Context, userID domain.UserID, plan domain.Plan) error {
	_, err := c.ledger.Consume(ctx, userID, plan, c.cost)
	if err == nil {
		return nil
	}
	if errors.Is(err, domerrors.ErrInsufficientCredits) {
		return domerrors.ErrQuotaExceeded
	}
	return fmt.Errorf("%w: consume credits: %w", domerrors.ErrAdmissionFailed, err)
}

// refund gives the credit back when nothing durable was recorded for it.
func (c *Controller) refund(ctx context.Context, userID domain.UserID, plan domain.Plan, cause error) {
	if _, err := c.ledger.Credit(context.WithoutCancel(ctx), userID, plan, c.cost); err != nil {
		c.log.Error().Err(err).AnErr("cause", cause).Str("user_id", userID.String()).Int64("credits", c.cost).
			Msg("refund after failed admission did not go through; reconcile manually")
		return
	}
	c.log.Warn().AnErr("cause", cause).Str("user_id", userID.String()).Msg("admission refunded")
}

// dispatch does not refund on failure: the message is durable and the orphan
// redispatcher re-emits it under the same job key.
func (c *Controller) dispatch(ctx context.Context, msg *domain.Message) error {
	if err := c.enqueuer.EnqueueCodeAgentRun(ctx, domain.NewGenerationJob(msg)); err != nil {
		c.log.Error().Err(err).Str("message_id", msg.ID.String()).Str("project_id", msg.ProjectID.String()).
			Msg("dispatch failed; left for redispatch")
		return fmt.Errorf("%w: dispatch job: %w", domerrors.ErrAdmissionFailed, err)
	}
	return nil
}
