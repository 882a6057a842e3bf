package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/bitesized/internal/formatter"
	"github.com/desertthunder/bitesized/internal/models"
	"github.com/desertthunder/bitesized/internal/shared"
	"github.com/desertthunder/bitesized/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	FeedView
	LessonView
	PlaylistView
)

// Engine is the subset of [tasks.Engine] the TUI drives.
type Engine interface {
	LoadFeed(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.FeedResult, error)
	LoadLesson(ctx context.Context, id string) (*tasks.LessonResult, error)
	ToggleSaved(ctx context.Context, video models.Video) (bool, error)
	Summary(ctx context.Context, video models.Video) (*models.SummaryResponse, error)
	Quiz(ctx context.Context, video models.Video) ([]models.QuizQuestion, error)
	MarkComplete(ctx context.Context, video models.Video) tasks.CompletionResult
	Playlist(ctx context.Context) ([]models.PlaylistEntry, error)
	ClearPlaylist(ctx context.Context) error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	previous     ViewState
	engine       Engine
	openURL      func(string) error
	width        int
	height       int
	feedList     list.Model
	feed         *tasks.FeedResult
	playlistList list.Model
	lesson       *tasks.LessonResult
	panel        string
	quiz         []models.QuizQuestion
	reveal       bool
	status       string
	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	progress     tasks.ProgressUpdate
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model backed by engine.
func NewModel(ctx context.Context, engine Engine) *Model {
	feedList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	feedList.Title = "Feed"
	playlistList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	playlistList.Title = formatter.PlaylistTitle

	return &Model{
		ctx:          ctx,
		view:         LoadingView,
		engine:       engine,
		openURL:      shared.OpenBrowser,
		feedList:     feedList,
		playlistList: playlistList,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init starts loading the feed.
func (m *Model) Init() tea.Cmd {
	return m.loadFeed()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.feedList.SetSize(msg.Width-4, msg.Height-10)
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoadingView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case FeedView:
			return m.handleFeedKeys(msg)
		case LessonView:
			return m.handleLessonKeys(msg)
		case PlaylistView:
			return m.handlePlaylistKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case FeedView:
		return m.renderFeed()
	case LessonView:
		return m.renderLesson()
	case PlaylistView:
		return m.renderPlaylist()
	default:
		return ""
	}
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgFeedLoaded:
		m.progressChan = nil
		m.done = nil
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.feed = msg.data.(*tasks.FeedResult)
		m.view = FeedView
		return m, m.feedList.SetItems(videoItems(m.feed.Videos))

	case MsgLessonLoaded:
		if msg.err != nil {
			m.setError("Could not open lesson", msg.err)
			return m, nil
		}
		m.lesson = msg.data.(*tasks.LessonResult)
		m.panel = ""
		m.quiz = nil
		m.reveal = false
		m.status = ""
		if m.view != LessonView {
			m.previous = m.view
		}
		m.view = LessonView
		return m, nil

	case MsgSummaryLoaded:
		if msg.err != nil {
			m.setError("Summary unavailable", msg.err)
			return m, nil
		}
		m.panel = formatter.SummaryText(*msg.data.(*models.SummaryResponse))
		m.quiz = nil
		m.status = ""
		return m, nil

	case MsgQuizLoaded:
		if msg.err != nil {
			m.setError("Quiz unavailable", msg.err)
			return m, nil
		}
		m.quiz = msg.data.([]models.QuizQuestion)
		m.reveal = false
		m.panel = formatter.QuizText(m.quiz, false)
		m.status = ""
		return m, nil

	case MsgSaveToggled:
		if msg.err != nil {
			m.setError("Could not update playlist", msg.err)
			return m, nil
		}
		saved := msg.data.(bool)
		if m.lesson != nil {
			m.lesson.Saved = saved
		}
		if saved {
			m.status = styles.ok.Render("Saved to playlist")
		} else {
			m.status = styles.warn.Render("Removed from playlist")
		}
		return m, nil

	case MsgCompleted:
		result := msg.data.(tasks.CompletionResult)
		switch result.Outcome {
		case tasks.CompletionRecorded:
			m.status = styles.ok.Render("✓ Marked complete")
		case tasks.CompletionSkipped:
			m.status = styles.warn.Render("Progress not recorded: " + result.Reason)
		default:
			m.status = styles.err.Render("Could not record progress: " + result.Reason)
		}
		return m, nil

	case MsgPlaylistLoaded:
		if msg.err != nil {
			m.setError("Could not read playlist", msg.err)
			return m, nil
		}
		m.view = PlaylistView
		return m, m.playlistList.SetItems(entryItems(msg.data.([]models.PlaylistEntry)))

	case MsgPlaylistCleared:
		if msg.err != nil {
			m.setError("Could not clear playlist", msg.err)
			return m, nil
		}
		m.status = styles.warn.Render("Playlist cleared")
		return m, m.playlistList.SetItems(nil)

	case MsgBrowserOpened:
		if msg.err != nil {
			m.setError("Could not open browser", msg.err)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) setError(prefix string, err error) {
	m.status = styles.err.Render(fmt.Sprintf("%s: %v", prefix, err))
}

func (m *Model) handleFeedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.feedList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.feedList.SelectedItem().(videoItem); ok {
			return m, m.loadLesson(item.video.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.view = LoadingView
		return m, m.loadFeed()
	case key.Matches(msg, m.keys.playlist):
		m.status = ""
		return m, m.loadPlaylist()
	}
	return m.updateLists(msg)
}

func (m *Model) handleLessonKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	video := m.lesson.Video

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.status = ""
		if m.previous == PlaylistView {
			return m, m.loadPlaylist()
		}
		m.view = FeedView
		return m, nil
	case key.Matches(msg, m.keys.summary):
		return m, m.run(func(ctx context.Context) Msg { return summaryLoadedMsg(m.engine.Summary(ctx, video)) })
	case key.Matches(msg, m.keys.quiz):
		return m, m.run(func(ctx context.Context) Msg { return quizLoadedMsg(m.engine.Quiz(ctx, video)) })
	case key.Matches(msg, m.keys.answers):
		if m.quiz != nil {
			m.reveal = !m.reveal
			m.panel = formatter.QuizText(m.quiz, m.reveal)
		}
		return m, nil
	case key.Matches(msg, m.keys.save):
		return m, m.run(func(ctx context.Context) Msg { return saveToggledMsg(m.engine.ToggleSaved(ctx, video)) })
	case key.Matches(msg, m.keys.complete):
		return m, m.run(func(ctx context.Context) Msg { return completedMsg(m.engine.MarkComplete(ctx, video)) })
	case key.Matches(msg, m.keys.open):
		url, open := video.VideoURL, m.openURL
		return m, func() tea.Msg { return browserOpenedMsg(open(url)) }
	}
	return m, nil
}

func (m *Model) handlePlaylistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.status = ""
		m.view = FeedView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.playlistList.SelectedItem().(entryItem); ok {
			return m, m.loadLesson(item.entry.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.clear):
		return m, m.run(func(ctx context.Context) Msg { return playlistClearedMsg(m.engine.ClearPlaylist(ctx)) })
	}
	return m.updateLists(msg)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case FeedView:
		m.feedList, cmd = m.feedList.Update(msg)
	case PlaylistView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	}
	return m, cmd
}

// run wraps an engine call as a [tea.Cmd].
func (m *Model) run(fn func(ctx context.Context) Msg) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg { return fn(ctx) }
}

func (m *Model) loadLesson(id string) tea.Cmd {
	return m.run(func(ctx context.Context) Msg { return lessonLoadedMsg(m.engine.LoadLesson(ctx, id)) })
}

func (m *Model) loadPlaylist() tea.Cmd {
	return m.run(func(ctx context.Context) Msg { return playlistLoadedMsg(m.engine.Playlist(ctx)) })
}

func (m *Model) loadFeed() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan = progress
	m.done = done
	m.progress = tasks.ProgressUpdate{}

	go func() {
		result, err := m.engine.LoadFeed(m.ctx, progress)
		done <- feedLoadedMsg(result, err)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case msg := <-done:
			return msg
		case update := <-progress:
			return progressUpdateMsg(update)
		}
	}
}

func (m *Model) renderLoading() string {
	title := styles.title.Render("Loading feed")
	message := m.progress.Message
	if message == "" {
		message = "Starting..."
	}
	if m.progress.Total > 1 {
		message = fmt.Sprintf("%s (%d/%d)", message, m.progress.Step, m.progress.Total)
	}
	return fmt.Sprintf("%s\n%s", title, message)
}

func (m *Model) renderBanner() string {
	if m.feed == nil {
		return ""
	}
	switch m.feed.Source {
	case tasks.FeedRecommended:
		return styles.ok.Render("Recommended for you")
	case tasks.FeedLatest:
		return styles.ok.Render("Latest videos")
	default:
		return styles.banner.Render("Backend unavailable: showing demo lessons")
	}
}

func (m *Model) renderFeed() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.playlist, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.renderBanner(), m.feedList.View(), helpView)
}

func (m *Model) renderLesson() string {
	if m.lesson == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(m.lesson.Video.Title))
	b.WriteString("\n")
	if m.lesson.Source == tasks.LessonFallback {
		b.WriteString(styles.warn.Render("Lesson unavailable, showing a demo lesson instead"))
		b.WriteString("\n")
	}
	b.WriteString(formatter.VideoText(m.lesson.Video))
	if m.lesson.Saved {
		b.WriteString(styles.ok.Render("★ In your playlist"))
		b.WriteString("\n")
	}
	if m.panel != "" {
		b.WriteString("\n" + m.panel)
	}
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}

	helpKeys := []key.Binding{m.keys.summary, m.keys.quiz, m.keys.save, m.keys.complete, m.keys.open, m.keys.back, m.keys.quit}
	if m.quiz != nil {
		helpKeys = append([]key.Binding{m.keys.answers}, helpKeys...)
	}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderPlaylist() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.clear, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	if m.status != "" {
		return fmt.Sprintf("%s\n\n%s\n\n%s", m.playlistList.View(), m.status, helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}
