package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/services"
	"github.com/desertthunder/ecn/internal/views"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRestored MsgKind = iota
	MsgLoggedIn
	MsgListLoaded
	MsgRecordLoaded
	MsgDeleted
	MsgProgress
	MsgSubmitted
)

type loginResult struct {
	session models.Session
	err     error
}

type listResult struct {
	target Screen
	err    error
}

type deleteResult struct {
	target Screen
	id     string
	notice *views.Notice
	err    error
}

type submitResult struct {
	out services.Result
	err error
}

// restoredMsg is the constructor for [MsgRestored]
func restoredMsg() Msg {
	return Msg{kind: MsgRestored}
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(session models.Session, err error) Msg {
	return Msg{kind: MsgLoggedIn, data: loginResult{session, err}}
}

// listLoadedMsg is the constructor for [MsgListLoaded]
func listLoadedMsg(target Screen, err error) Msg {
	return Msg{kind: MsgListLoaded, data: listResult{target, err}}
}

// recordLoadedMsg is the constructor for [MsgRecordLoaded]
func recordLoadedMsg(err error) Msg {
	return Msg{kind: MsgRecordLoaded, data: err}
}

// deletedMsg is the constructor for [MsgDeleted]
func deletedMsg(target Screen, id string, notice *views.Notice, err error) Msg {
	return Msg{kind: MsgDeleted, data: deleteResult{target, id, notice, err}}
}

// progressMsg is the constructor for [MsgProgress]
func progressMsg(percent int) Msg {
	return Msg{kind: MsgProgress, data: percent}
}

// submittedMsg is the constructor for [MsgSubmitted]
func submittedMsg(out services.Result, err error) Msg {
	return Msg{kind: MsgSubmitted, data: submitResult{out, err}}
}
