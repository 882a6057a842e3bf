package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/bitesized/internal/models"
	"github.com/desertthunder/bitesized/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgFeedLoaded MsgKind = iota
	MsgProgressUpdate
	MsgLessonLoaded
	MsgSummaryLoaded
	MsgQuizLoaded
	MsgSaveToggled
	MsgCompleted
	MsgPlaylistLoaded
	MsgPlaylistCleared
	MsgBrowserOpened
)

// feedLoadedMsg is the constructor for [MsgFeedLoaded]
func feedLoadedMsg(result *tasks.FeedResult, err error) Msg {
	return Msg{kind: MsgFeedLoaded, data: result, err: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// lessonLoadedMsg is the constructor for [MsgLessonLoaded]
func lessonLoadedMsg(result *tasks.LessonResult, err error) Msg {
	return Msg{kind: MsgLessonLoaded, data: result, err: err}
}

// summaryLoadedMsg is the constructor for [MsgSummaryLoaded]
func summaryLoadedMsg(summary *models.SummaryResponse, err error) Msg {
	return Msg{kind: MsgSummaryLoaded, data: summary, err: err}
}

// quizLoadedMsg is the constructor for [MsgQuizLoaded]
func quizLoadedMsg(questions []models.QuizQuestion, err error) Msg {
	return Msg{kind: MsgQuizLoaded, data: questions, err: err}
}

// saveToggledMsg is the constructor for [MsgSaveToggled]
func saveToggledMsg(saved bool, err error) Msg {
	return Msg{kind: MsgSaveToggled, data: saved, err: err}
}

// completedMsg is the constructor for [MsgCompleted]
func completedMsg(result tasks.CompletionResult) Msg {
	return Msg{kind: MsgCompleted, data: result}
}

// playlistLoadedMsg is the constructor for [MsgPlaylistLoaded]
func playlistLoadedMsg(entries []models.PlaylistEntry, err error) Msg {
	return Msg{kind: MsgPlaylistLoaded, data: entries, err: err}
}

// playlistClearedMsg is the constructor for [MsgPlaylistCleared]
func playlistClearedMsg(err error) Msg {
	return Msg{kind: MsgPlaylistCleared, err: err}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, err: err}
}
