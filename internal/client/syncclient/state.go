// Package syncclient reconciles a project's message list into what a
// generation UI shows: the submit cycle phase, the active fragment driving
// the preview and code tabs, and inline worker errors.
package syncclient

import (
	"github.com/amirhosseinghanipour/scaffold/internal/client/api"
	"github.com/amirhosseinghanipour/scaffold/internal/domain/filetree"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseRejected
	PhaseAccepted
	PhaseAwaitingAgent
	PhaseResolved
	PhaseStuck
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseRejected:
		return "rejected"
	case PhaseAccepted:
		return "accepted"
	case PhaseAwaitingAgent:
		return "awaiting_agent"
	case PhaseResolved:
		return "resolved"
	case PhaseStuck:
		return "stuck"
	}
	return "unknown"
}

// Pending reports whether a submitted request is still waiting on the worker.
func (p Phase) Pending() bool {
	return p == PhaseAccepted || p == PhaseAwaitingAgent
}

type Tab string

const (
	TabPreview Tab = "preview"
	TabCode    Tab = "code"
)

type RejectReason string

const (
	ReasonQuota      RejectReason = "quota"
	ReasonAuth       RejectReason = "auth"
	ReasonValidation RejectReason = "validation"
	ReasonNotFound   RejectReason = "not_found"
	ReasonTransient  RejectReason = "transient"
)

// Redirect is where the UI should send the user after a rejection.
type Redirect string

const (
	RedirectNone    Redirect = ""
	RedirectBilling Redirect = "billing"
	RedirectSignIn  Redirect = "sign-in"
)

type Rejection struct {
	Reason   RejectReason
	Redirect Redirect
	Message  string
}

// State is a snapshot; the Client never mutates a State it has returned.
type State struct {
	Phase Phase
	Input string
	// PendingMessageID is the user message of the current cycle.
	PendingMessageID string
	Rejection        *Rejection
	// WorkerError is the content of an ERROR reply, shown inline.
	WorkerError    string
	ActiveFragment *api.Fragment
	Tab            Tab
	Attempts       int
	Messages       []api.Message
}

// Tree is the file tree of the active fragment, or nil.
func (s State) Tree() *filetree.Node {
	if s.ActiveFragment == nil {
		return nil
	}
	return filetree.Build(s.ActiveFragment.Files)
}
