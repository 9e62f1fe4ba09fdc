package views

import (
	"context"

	"github.com/desertthunder/ecn/internal/services"
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a user-visible notification.
type Notice struct {
	Kind  NoticeKind `json:"kind"`
	Title string     `json:"title"`
	Text  string     `json:"text"`
}

func (n Notice) IsError() bool { return n.Kind == NoticeError }

func (n Notice) String() string {
	if n.Text == "" {
		return n.Title
	}
	return n.Title + " " + n.Text
}

// withServerText replaces the text with the server-provided message, when there is one.
func (n Notice) withServerText(msg string) Notice {
	if msg != "" {
		n.Text = msg
	}
	return n
}

// failure builds an error notice carrying the server message of err or the fallback text.
func failure(n Notice, err error) Notice {
	n.Kind = NoticeError
	return n.withServerText(services.ServerMessage(err))
}

// Prompt asks the viewer to confirm a destructive action.
type Prompt struct {
	Title        string
	Text         string
	ConfirmLabel string
}

// DeletePrompt is shown before every delete.
var DeletePrompt = Prompt{
	Title:        "Are you sure?",
	Text:         "You won't be able to revert this!",
	ConfirmLabel: "Yes, delete it!",
}

// Confirmer obtains the viewer's answer to a [Prompt].
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) bool
}

// ConfirmFunc adapts a function to [Confirmer].
type ConfirmFunc func(ctx context.Context, p Prompt) bool

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) bool { return f(ctx, p) }

// Confirmed is used when the viewer already answered, e.g. on a confirmation page.
var Confirmed = ConfirmFunc(func(context.Context, Prompt) bool { return true })
