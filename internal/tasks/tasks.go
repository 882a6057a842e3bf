package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bitesized/internal/models"
	"github.com/desertthunder/bitesized/internal/repositories"
	"github.com/desertthunder/bitesized/internal/services"
	"github.com/desertthunder/bitesized/internal/session"
	"github.com/desertthunder/bitesized/internal/shared"
)

// FeedSource names where the feed's videos came from.
type FeedSource string

const (
	FeedRecommended FeedSource = "recommended"
	FeedLatest      FeedSource = "latest"
	FeedDemo        FeedSource = "demo"
)

// LessonSource names where a lesson's video came from.
type LessonSource string

const (
	LessonDemo     LessonSource = "demo"
	LessonBackend  LessonSource = "backend"
	LessonFallback LessonSource = "fallback"
)

// CompletionOutcome is the result of [Engine.MarkComplete].
type CompletionOutcome string

const (
	CompletionSkipped  CompletionOutcome = "skipped"
	CompletionRecorded CompletionOutcome = "recorded"
	CompletionFailed   CompletionOutcome = "failed"
)

// FeedResult contains the videos shown by the feed.
type FeedResult struct {
	Videos []models.Video `json:"videos"`
	Source FeedSource     `json:"source"`
}

// LessonResult contains a resolved lesson and the side effects of opening it.
type LessonResult struct {
	Video       models.Video `json:"video"`
	Source      LessonSource `json:"source"`
	Saved       bool         `json:"saved"`
	ViewCounted bool         `json:"view_counted"`
	HistoryTags []string     `json:"history_tags"`
}

// CompletionResult reports what [Engine.MarkComplete] did.
type CompletionResult struct {
	Outcome CompletionOutcome `json:"outcome"`
	Reason  string            `json:"reason,omitempty"`
}

// CourseResult contains a course, the videos that could be fetched and the learner's progress when known.
type CourseResult struct {
	Course   *models.Course         `json:"course"`
	Videos   []models.Video         `json:"videos"`
	Missing  []string               `json:"missing,omitempty"`
	Progress *models.CourseProgress `json:"progress,omitempty"`
}

// UploadInput is a video file picked for upload plus its metadata.
type UploadInput struct {
	models.UploadMetadata
	Filename    string
	ContentType string
	File        io.Reader
}

// Backend is the subset of the API gateway used by [Engine].
type Backend interface {
	Feed(ctx context.Context) ([]models.Video, error)
	Video(ctx context.Context, id string) (*models.Video, error)
	RecommendFeed(ctx context.Context, tags []string) ([]string, error)
	IncrementView(ctx context.Context, videoID string) error
	GenerateSummary(ctx context.Context, req models.SummaryRequest) (*models.SummaryResponse, error)
	GenerateQuiz(ctx context.Context, req models.QuizRequest) ([]models.QuizQuestion, error)
	Course(ctx context.Context, id string) (*models.Course, error)
	CourseProgress(ctx context.Context, token, userID, courseID string) (*models.CourseProgress, error)
	UpdateProgress(ctx context.Context, token string, update models.ProgressUpdate) error
	UploadVideo(ctx context.Context, token string, upload services.UploadRequest) (*models.Video, error)
	RegisterRemote(ctx context.Context, name, email, password string, role models.Role) (*models.RemoteUser, error)
	LoginRemote(ctx context.Context, email, password string) (*models.TokenResponse, error)
}

// Engine runs the client's page-level flows against the backend and local state.
type Engine struct {
	backend  Backend
	sessions *session.Manager
	playlist *repositories.PlaylistRepository
	history  *repositories.HistoryRepository
	logger   *log.Logger
}

// NewEngine creates an [Engine].
func NewEngine(backend Backend, sessions *session.Manager, playlist *repositories.PlaylistRepository, history *repositories.HistoryRepository, logger *log.Logger) *Engine {
	return &Engine{
		backend:  backend,
		sessions: sessions,
		playlist: playlist,
		history:  history,
		logger:   logger,
	}
}

// sendProgress sends a progress update if the channel is not nil.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// LoadFeed builds the feed from recommendations, the latest videos or the demo catalog, in that order of preference.
func (e *Engine) LoadFeed(ctx context.Context, progress chan<- ProgressUpdate) (*FeedResult, error) {
	e.sendProgress(progress, readHistoryUpdate())
	tags, err := e.history.List(ctx)
	if err != nil {
		e.logger.Warn("could not read history tags", "error", err)
		tags = []string{}
	}

	videos, source := e.backendFeed(ctx, tags, progress)
	result := DegradeFeed(videos, source)
	if result.Source == FeedDemo {
		e.logger.Info("feed unavailable, showing demo catalog")
	}
	return &result, nil
}

// backendFeed returns nil when the backend could not produce a feed at all.
func (e *Engine) backendFeed(ctx context.Context, tags []string, progress chan<- ProgressUpdate) ([]models.Video, FeedSource) {
	e.sendProgress(progress, recommendationsUpdate(tags))
	ids, err := e.backend.RecommendFeed(ctx, tags)
	if err != nil {
		e.logger.Debug("recommendations failed", "error", err)
		ids = nil
	}

	if len(ids) > 0 {
		fetched := make([]models.Video, 0, len(ids))
		for i, id := range ids {
			e.sendProgress(progress, fetchVideoUpdate(i+1, len(ids), id))
			video, err := e.backend.Video(ctx, id)
			if err != nil {
				e.logger.Debug("skipping recommended video", "id", id, "error", err)
				continue
			}
			fetched = append(fetched, *video)
		}
		return fetched, FeedRecommended
	}

	e.sendProgress(progress, fetchFeedUpdate())
	videos, err := e.backend.Feed(ctx)
	if err != nil {
		e.logger.Debug("latest feed failed", "error", err)
		return nil, FeedLatest
	}
	return videos, FeedLatest
}

// LoadLesson resolves a video and records that it was opened.
//
// Demo ids resolve locally. Other ids fall back to the first demo video when the backend cannot serve them.
func (e *Engine) LoadLesson(ctx context.Context, id string) (*LessonResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: video id", shared.ErrMissingArgument)
	}

	result := &LessonResult{}
	if models.IsDemoID(id) {
		video, ok := DemoVideo(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrVideoNotFound, id)
		}
		result.Video = video
		result.Source = LessonDemo
	} else {
		video, err := e.backend.Video(ctx, id)
		if err != nil {
			e.logger.Warn("video unavailable, falling back to demo", "id", id, "error", err)
			result.Video = DemoVideos()[0]
			result.Source = LessonFallback
		} else {
			result.Video = *video
			result.Source = LessonBackend
		}
	}

	tags, err := e.history.Record(ctx, result.Video.Tags...)
	if err != nil {
		e.logger.Warn("could not record history tags", "error", err)
	}
	result.HistoryTags = tags

	saved, err := e.playlist.Contains(ctx, result.Video.ID)
	if err != nil {
		e.logger.Warn("could not read playlist", "error", err)
	}
	result.Saved = saved

	if !result.Video.IsDemo() {
		if err := e.backend.IncrementView(ctx, result.Video.ID); err != nil {
			e.logger.Debug("view not counted", "id", result.Video.ID, "error", err)
		} else {
			result.ViewCounted = true
		}
	}

	return result, nil
}

// ResolveVideo looks up a demo or backend video without recording history or counting a view.
func (e *Engine) ResolveVideo(ctx context.Context, id string) (*models.Video, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: video id", shared.ErrMissingArgument)
	}
	if models.IsDemoID(id) {
		video, ok := DemoVideo(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrVideoNotFound, id)
		}
		return &video, nil
	}

	video, err := e.backend.Video(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrVideoNotFound, err)
	}
	return video, nil
}

// ToggleSaved adds the video to the playlist or removes it when already present.
func (e *Engine) ToggleSaved(ctx context.Context, video models.Video) (bool, error) {
	return e.playlist.Toggle(ctx, video.Entry())
}

// Playlist returns the saved entries, oldest first.
func (e *Engine) Playlist(ctx context.Context) ([]models.PlaylistEntry, error) {
	return e.playlist.List(ctx)
}

// ClearPlaylist removes every saved entry.
func (e *Engine) ClearPlaylist(ctx context.Context) error {
	return e.playlist.Clear(ctx)
}

// History returns the recently seen tags, oldest first.
func (e *Engine) History(ctx context.Context) ([]string, error) {
	return e.history.List(ctx)
}

// Session returns the identity the engine acts as.
func (e *Engine) Session() models.Session {
	return e.sessions.Session()
}

// Summary asks the backend for a summary of the video.
func (e *Engine) Summary(ctx context.Context, video models.Video) (*models.SummaryResponse, error) {
	req := models.SummaryRequest{Title: video.Title, Tags: nonNil(video.Tags)}
	return e.backend.GenerateSummary(ctx, req)
}

// Quiz asks the backend for quiz questions about the video.
func (e *Engine) Quiz(ctx context.Context, video models.Video) ([]models.QuizQuestion, error) {
	req := models.QuizRequest{Topic: video.Title, Tags: nonNil(video.Tags)}
	return e.backend.GenerateQuiz(ctx, req)
}

// MarkComplete records the video as completed for the current user.
//
// Backend failures are reported in the outcome rather than returned.
func (e *Engine) MarkComplete(ctx context.Context, video models.Video) CompletionResult {
	current := e.sessions.Session()
	switch {
	case !current.LoggedIn():
		return CompletionResult{Outcome: CompletionSkipped, Reason: "not logged in"}
	case video.IsDemo():
		return CompletionResult{Outcome: CompletionSkipped, Reason: "demo video"}
	case current.IsLocal():
		return CompletionResult{Outcome: CompletionSkipped, Reason: "local session"}
	}

	update := models.ProgressUpdate{
		UserID:    current.UserID,
		VideoID:   video.ID,
		Completed: true,
	}
	if err := e.backend.UpdateProgress(ctx, current.BackendToken(), update); err != nil {
		e.logger.Warn("progress not recorded", "video", video.ID, "error", err)
		return CompletionResult{Outcome: CompletionFailed, Reason: err.Error()}
	}
	return CompletionResult{Outcome: CompletionRecorded}
}

// LoadCourse fetches a course, its videos and, for backend sessions, the learner's progress.
func (e *Engine) LoadCourse(ctx context.Context, id string, progress chan<- ProgressUpdate) (*CourseResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: course id", shared.ErrMissingArgument)
	}

	e.sendProgress(progress, fetchCourseUpdate(id))
	course, err := e.backend.Course(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCourseNotFound, err)
	}
	e.sendProgress(progress, courseLoadedUpdate(course))

	result := &CourseResult{Course: course, Videos: make([]models.Video, 0, len(course.VideoIDs))}
	for i, videoID := range course.VideoIDs {
		e.sendProgress(progress, fetchVideoUpdate(i+1, len(course.VideoIDs), videoID))
		video, err := e.backend.Video(ctx, videoID)
		if err != nil {
			e.logger.Debug("skipping course video", "id", videoID, "error", err)
			result.Missing = append(result.Missing, videoID)
			continue
		}
		result.Videos = append(result.Videos, *video)
	}

	current := e.sessions.Session()
	if token := current.BackendToken(); token != "" {
		e.sendProgress(progress, fetchProgressUpdate())
		p, err := e.backend.CourseProgress(ctx, token, current.UserID, course.ID)
		if err != nil {
			e.logger.Debug("course progress unavailable", "course", course.ID, "error", err)
		} else {
			result.Progress = p
		}
	}

	return result, nil
}

// Upload sends a video file to the backend as the current creator.
func (e *Engine) Upload(ctx context.Context, input UploadInput, progress chan<- ProgressUpdate) (*models.Video, error) {
	current := e.sessions.Session()
	if !current.LoggedIn() {
		return nil, fmt.Errorf("%w: please login as a creator to upload", shared.ErrNotAuthenticated)
	}
	if current.Role != models.RoleCreator {
		return nil, fmt.Errorf("%w: only creators can upload videos", shared.ErrForbidden)
	}
	if input.File == nil {
		return nil, fmt.Errorf("%w: please select a video file", shared.ErrInvalidInput)
	}
	if !slices.Contains(services.SupportedVideoTypes, input.ContentType) {
		return nil, fmt.Errorf("%w: unsupported video type %q", shared.ErrInvalidInput, input.ContentType)
	}
	token := current.BackendToken()
	if token == "" {
		return nil, shared.ErrLocalSession
	}

	e.sendProgress(progress, uploadUpdate(input.Filename))
	video, err := e.backend.UploadVideo(ctx, token, services.UploadRequest{
		UploadMetadata: input.UploadMetadata,
		Filename:       input.Filename,
		ContentType:    input.ContentType,
		File:           input.File,
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("uploaded video", "id", video.ID, "title", video.Title)
	return video, nil
}

// LoginRemote exchanges credentials for a backend token and installs the identity it carries.
func (e *Engine) LoginRemote(ctx context.Context, email, password string, progress chan<- ProgressUpdate) (models.Session, error) {
	e.sendProgress(progress, authenticateUpdate(1, 2, "Logging in..."))
	resp, err := e.backend.LoginRemote(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return models.Session{}, err
	}

	e.sendProgress(progress, authenticateUpdate(2, 2, "Decoding token..."))
	return e.install(ctx, resp.AccessToken)
}

// RegisterRemote creates a backend account and logs in with it.
func (e *Engine) RegisterRemote(ctx context.Context, name, email, password string, role models.Role, progress chan<- ProgressUpdate) (models.Session, error) {
	if role == "" {
		role = models.RoleLearner
	}
	if !role.Valid() {
		return models.Session{}, fmt.Errorf("%w: role must be creator or learner", shared.ErrInvalidArgument)
	}

	e.sendProgress(progress, authenticateUpdate(1, 3, "Registering..."))
	if _, err := e.backend.RegisterRemote(ctx, strings.TrimSpace(name), strings.TrimSpace(email), password, role); err != nil {
		return models.Session{}, err
	}

	e.sendProgress(progress, authenticateUpdate(2, 3, "Logging in..."))
	resp, err := e.backend.LoginRemote(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return models.Session{}, err
	}

	e.sendProgress(progress, authenticateUpdate(3, 3, "Decoding token..."))
	return e.install(ctx, resp.AccessToken)
}

func (e *Engine) install(ctx context.Context, token string) (models.Session, error) {
	next, err := session.DecodeIdentityFromToken(token)
	if err != nil {
		return models.Session{}, err
	}
	if err := e.sessions.Set(ctx, next); err != nil {
		if errors.Is(err, session.ErrPartialSession) {
			return models.Session{}, fmt.Errorf("%w: token is missing identity claims", session.ErrDecodeFailure)
		}
		return models.Session{}, err
	}
	return next, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
