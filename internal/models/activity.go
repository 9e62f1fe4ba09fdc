package models

import (
	"fmt"
	"time"
)

type ActivityAction string

const (
	ActionCreate ActivityAction = "create"
	ActionUpdate ActivityAction = "update"
	ActionDelete ActivityAction = "delete"
	ActionLogin  ActivityAction = "login"
	ActionLogout ActivityAction = "logout"
)

type ActivityOutcome string

const (
	OutcomeSuccess ActivityOutcome = "success"
	OutcomeFailure ActivityOutcome = "failure"
)

// Activity is an audit entry for a mutation issued from the dashboard, CLI or TUI.
type Activity struct {
	id        string
	sequence  int
	actor     string
	entity    string
	action    ActivityAction
	targetID  string
	outcome   ActivityOutcome
	message   string
	createdAt time.Time
}

// NewActivity creates an [Activity] stamped with the current time. The ID is assigned on insert.
func NewActivity(actor, entity string, action ActivityAction, targetID string, outcome ActivityOutcome, message string) *Activity {
	return &Activity{
		actor:     actor,
		entity:    entity,
		action:    action,
		targetID:  targetID,
		outcome:   outcome,
		message:   message,
		createdAt: time.Now().UTC(),
	}
}

func (a *Activity) ID() string               { return a.id }
func (a *Activity) Sequence() int            { return a.sequence }
func (a *Activity) Actor() string            { return a.actor }
func (a *Activity) Entity() string           { return a.entity }
func (a *Activity) Action() ActivityAction   { return a.action }
func (a *Activity) TargetID() string         { return a.targetID }
func (a *Activity) Outcome() ActivityOutcome { return a.outcome }
func (a *Activity) Message() string          { return a.message }
func (a *Activity) CreatedAt() time.Time     { return a.createdAt }

func (a *Activity) SetID(id string)          { a.id = id }
func (a *Activity) SetSequence(seq int)      { a.sequence = seq }
func (a *Activity) SetCreatedAt(t time.Time) { a.createdAt = t }

// Validate checks the fields the activities table requires.
func (a *Activity) Validate() error {
	if a.entity == "" {
		return fmt.Errorf("entity is required")
	}
	switch a.action {
	case ActionCreate, ActionUpdate, ActionDelete, ActionLogin, ActionLogout:
	default:
		return fmt.Errorf("invalid action: %q", a.action)
	}
	switch a.outcome {
	case OutcomeSuccess, OutcomeFailure:
	default:
		return fmt.Errorf("invalid outcome: %q", a.outcome)
	}
	return nil
}

// Summary renders the entry as a single line for lists.
func (a *Activity) Summary() string {
	s := fmt.Sprintf("%s %s %s", a.actor, a.action, a.entity)
	if a.targetID != "" {
		s += " " + a.targetID
	}
	if a.outcome == OutcomeFailure {
		s += " (failed"
		if a.message != "" {
			s += ": " + a.message
		}
		s += ")"
	}
	return s
}

// ActivityRecord is the JSON shape of an [Activity] for CLI output.
type ActivityRecord struct {
	ID        string          `json:"id"`
	Sequence  int             `json:"sequence"`
	Actor     string          `json:"actor"`
	Entity    string          `json:"entity"`
	Action    ActivityAction  `json:"action"`
	TargetID  string          `json:"target_id,omitempty"`
	Outcome   ActivityOutcome `json:"outcome"`
	Message   string          `json:"message,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (a *Activity) Record() ActivityRecord {
	return ActivityRecord{
		ID: a.id, Sequence: a.sequence, Actor: a.actor, Entity: a.entity, Action: a.action,
		TargetID: a.targetID, Outcome: a.outcome, Message: a.message, CreatedAt: a.createdAt,
	}
}
