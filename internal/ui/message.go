package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vidtalk/internal/models"
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
	MsgAuthFinished MsgKind = iota
	MsgVideosFetched
	MsgDetailFetched
	MsgMessagePosted
)

type authResult struct {
	ok       bool
	register bool
	err      error
}

type videosResult struct {
	videos []models.Video
	err    error
}

type detailResult struct {
	export *models.VideoExport
	err    error
}

type postResult struct {
	exchange *models.MessageExchange
	err      error
}

// authFinishedMsg is the constructor for [MsgAuthFinished]
func authFinishedMsg(ok, register bool, err error) Msg {
	return Msg{kind: MsgAuthFinished, data: authResult{ok, register, err}}
}

// videosFetchedMsg is the constructor for [MsgVideosFetched]
func videosFetchedMsg(videos []models.Video, err error) Msg {
	return Msg{kind: MsgVideosFetched, data: videosResult{videos, err}}
}

// detailFetchedMsg is the constructor for [MsgDetailFetched]
func detailFetchedMsg(export *models.VideoExport, err error) Msg {
	return Msg{kind: MsgDetailFetched, data: detailResult{export, err}}
}

// messagePostedMsg is the constructor for [MsgMessagePosted]
func messagePostedMsg(exchange *models.MessageExchange, err error) Msg {
	return Msg{kind: MsgMessagePosted, data: postResult{exchange, err}}
}
