package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bitesized/internal/models"
	"github.com/desertthunder/bitesized/internal/shared"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultFeedLimit = 15
	maxUploadMemory  = 32 << 20
	seedPassword     = "password123"
)

var (
	errUnauthorized   = errors.New("could not validate credentials")
	errDuplicateEmail = errors.New("email already registered")
)

// MockOpts configures a [MockBackend].
type MockOpts struct {
	Secret   string        // HS256 signing key for issued tokens
	TokenTTL time.Duration // Token lifetime (default: 1 hour)
	HashCost int           // bcrypt cost for stored passwords (default: bcrypt.DefaultCost)
	NoSeed   bool          // Start without the sample users, videos and course
	Logger   *log.Logger
}

type mockUser struct {
	models.RemoteUser
	passwordHash []byte
}

type progressRecord struct {
	courseID  *string
	completed bool
}

type tokenClaims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// MockBackend is an in-memory stand-in for the learning platform API.
//
// It serves every endpoint the client calls, issues HS256 tokens carrying sub, role and name, and answers
// AI requests with deterministic canned content.
type MockBackend struct {
	mu       sync.Mutex
	videos   []models.Video
	courses  map[string]models.Course
	users    map[string]*mockUser
	progress map[string]map[string]progressRecord

	secret   []byte
	tokenTTL time.Duration
	hashCost int
	logger   *log.Logger
	now      func() time.Time
}

// NewMockBackend creates a [MockBackend], seeded with a demo creator, a demo learner, two videos and a course
// unless opts.NoSeed is set.
func NewMockBackend(opts MockOpts) (*MockBackend, error) {
	if opts.Secret == "" {
		return nil, fmt.Errorf("%w: server.jwt_secret is empty", shared.ErrMissingConfig)
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	b := &MockBackend{
		courses:  make(map[string]models.Course),
		users:    make(map[string]*mockUser),
		progress: make(map[string]map[string]progressRecord),
		secret:   []byte(opts.Secret),
		tokenTTL: opts.TokenTTL,
		hashCost: opts.HashCost,
		logger:   opts.Logger,
		now:      time.Now,
	}

	if !opts.NoSeed {
		if err := b.seed(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *MockBackend) seed() error {
	creator, err := b.addUser("Demo Creator", "creator@example.com", seedPassword, models.RoleCreator)
	if err != nil {
		return err
	}
	if _, err := b.addUser("Demo Learner", "learner@example.com", seedPassword, models.RoleLearner); err != nil {
		return err
	}

	first := b.AddVideo(models.Video{
		CreatorID:   creator.ID,
		Title:       "Intro to Neural Networks",
		Description: "Learn perceptrons in 60 seconds",
		Tags:        []string{"ai", "ml", "neural-networks"},
		SkillLevel:  "intermediate",
		VideoURL:    "https://www.youtube.com/embed/aircAruvnKk",
		Views:       10,
		Likes:       5,
	})
	second := b.AddVideo(models.Video{
		CreatorID:   creator.ID,
		Title:       "What is Big O?",
		Description: "Understand complexity quickly",
		Tags:        []string{"algorithms", "complexity"},
		SkillLevel:  "beginner",
		VideoURL:    "https://www.youtube.com/embed/D6xkbGLQesk",
		Views:       10,
		Likes:       5,
	})
	b.AddCourse(models.Course{
		CreatorID:        creator.ID,
		Title:            "ML Crash Course",
		Description:      "Micro-course of two videos",
		VideoIDs:         []string{first.ID, second.ID},
		LearnersEnrolled: 5,
	})
	return nil
}

// Register adds the backend routes to r.
func (b *MockBackend) Register(r Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(b.health))

	r.Handle(http.MethodPost, "/auth/register", http.HandlerFunc(b.register))
	r.Handle(http.MethodPost, "/auth/login", http.HandlerFunc(b.login))

	r.Handle(http.MethodGet, "/videos/feed", http.HandlerFunc(b.feed))
	r.Handle(http.MethodPost, "/videos/upload", http.HandlerFunc(b.upload))
	r.Handle(http.MethodPost, "/videos/increment-view", http.HandlerFunc(b.incrementView))
	r.Handle(http.MethodPost, "/videos/like", http.HandlerFunc(b.like))
	r.Handle(http.MethodGet, "/videos/{id}", http.HandlerFunc(b.video))

	r.Handle(http.MethodPost, "/courses/create", http.HandlerFunc(b.createCourse))
	r.Handle(http.MethodGet, "/courses/user/{creatorID}", http.HandlerFunc(b.coursesFor))
	r.Handle(http.MethodGet, "/courses/{id}", http.HandlerFunc(b.course))

	r.Handle(http.MethodPost, "/progress/update", http.HandlerFunc(b.updateProgress))
	r.Handle(http.MethodGet, "/progress/user/{userID}/course/{courseID}", http.HandlerFunc(b.courseProgress))

	r.Handle(http.MethodPost, "/ai/generate-summary", http.HandlerFunc(b.summary))
	r.Handle(http.MethodPost, "/ai/generate-quiz", http.HandlerFunc(b.quiz))
	r.Handle(http.MethodPost, "/ai/recommend-feed", http.HandlerFunc(b.recommend))
}

// AddVideo stores v, assigning an id when it has none, and returns the stored copy.
func (b *MockBackend) AddVideo(v models.Video) models.Video {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v.ID == "" {
		v.ID = shared.GenerateID()
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	b.videos = append(b.videos, v)
	return v
}

// AddCourse stores c, assigning an id when it has none, and returns the stored copy.
func (b *MockBackend) AddCourse(c models.Course) models.Course {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c.ID == "" {
		c.ID = shared.GenerateID()
	}
	if c.VideoIDs == nil {
		c.VideoIDs = []string{}
	}
	b.courses[c.ID] = c
	return c
}

// Videos returns the stored videos in insertion order.
func (b *MockBackend) Videos() []models.Video {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.videos)
}

// Courses returns the stored courses sorted by title.
func (b *MockBackend) Courses() []models.Course {
	b.mu.Lock()
	defer b.mu.Unlock()
	courses := make([]models.Course, 0, len(b.courses))
	for _, c := range b.courses {
		courses = append(courses, c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Title < courses[j].Title })
	return courses
}

// IssueToken signs a token for user.
func (b *MockBackend) IssueToken(user models.RemoteUser) (string, error) {
	now := b.now()
	claims := &tokenClaims{
		Role: string(user.Role),
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(b.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
}

func (b *MockBackend) addUser(name, email, password string, role models.Role) (models.RemoteUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.hashCost)
	if err != nil {
		return models.RemoteUser{}, err
	}
	user := &mockUser{
		RemoteUser: models.RemoteUser{
			ID:    shared.GenerateID(),
			Name:  name,
			Email: email,
			Role:  role,
		},
		passwordHash: hash,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	key := strings.ToLower(email)
	if _, exists := b.users[key]; exists {
		return models.RemoteUser{}, errDuplicateEmail
	}
	b.users[key] = user
	return user.RemoteUser, nil
}

// authenticate returns the user named by a valid bearer token.
func (b *MockBackend) authenticate(r *http.Request) (models.RemoteUser, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return models.RemoteUser{}, errUnauthorized
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(b.now))
	if err != nil {
		return models.RemoteUser{}, fmt.Errorf("%w: %v", errUnauthorized, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.ID == claims.Subject {
			return u.RemoteUser, nil
		}
	}
	return models.RemoteUser{}, errUnauthorized
}

func (b *MockBackend) findVideo(id string) (int, bool) {
	for i, v := range b.videos {
		if v.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (b *MockBackend) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (b *MockBackend) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationError("body", "invalid JSON"))
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, validationError("name", "field required"))
		return
	}
	if _, err := mail.ParseAddress(payload.Email); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationError("email", "value is not a valid email address"))
		return
	}
	if payload.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, validationError("password", "field required"))
		return
	}

	role := models.RoleLearner
	if payload.Role != "" {
		parsed, ok := models.ParseRole(payload.Role)
		if !ok {
			writeError(w, http.StatusBadRequest, "Role must be creator or learner")
			return
		}
		role = parsed
	}

	user, err := b.addUser(strings.TrimSpace(payload.Name), strings.TrimSpace(payload.Email), payload.Password, role)
	switch {
	case errors.Is(err, errDuplicateEmail):
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "Invalid password")
		return
	}

	b.logger.Info("registered user", "id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusOK, user)
}

func (b *MockBackend) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationError("body", "invalid JSON"))
		return
	}

	b.mu.Lock()
	user, ok := b.users[strings.ToLower(strings.TrimSpace(payload.Email))]
	b.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(user.passwordHash, []byte(payload.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := b.IssueToken(user.RemoteUser)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (b *MockBackend) feed(w http.ResponseWriter, r *http.Request) {
	limit := defaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusUnprocessableEntity, validationError("limit", "value is not a valid integer"))
			return
		}
		limit = n
	}

	b.mu.Lock()
	latest := make([]models.Video, 0, min(limit, len(b.videos)))
	for i := len(b.videos) - 1; i >= 0 && len(latest) < limit; i-- {
		latest = append(latest, b.videos[i])
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, latest)
}

func (b *MockBackend) video(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b.mu.Lock()
	i, ok := b.findVideo(id)
	var v models.Video
	if ok {
		v = b.videos[i]
	}
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (b *MockBackend) bump(w http.ResponseWriter, r *http.Request, field string) {
	var payload struct {
		VideoID string `json:"video_id"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationError("video_id", "field required"))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.findVideo(payload.VideoID)
	if !ok {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}

	if field == "likes" {
		b.videos[i].Likes++
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "likes": b.videos[i].Likes})
		return
	}
	b.videos[i].Views++
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "views": b.videos[i].Views})
}

func (b *MockBackend) incrementView(w http.ResponseWriter, r *http.Request) { b.bump(w, r, "views") }

func (b *MockBackend) like(w http.ResponseWriter, r *http.Request) { b.bump(w, r, "likes") }

func (b *MockBackend) upload(w http.ResponseWriter, r *http.Request) {
	user, err := b.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	if user.Role != models.RoleCreator {
		writeError(w, http.StatusForbidden, "Only creators can upload videos")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationError("file", "field required"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationError("file", "field required"))
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		writeError(w, http.StatusUnprocessableEntity, validationError("title", "field required"))
		return
	}
	if !slices.Contains([]string{"video/mp4", "video/webm", "video/quicktime"}, header.Header.Get("Content-Type")) {
		writeError(w, http.StatusBadRequest, "Unsupported video format")
		return
	}

	size, _ := io.Copy(io.Discard, file)

	tags := []string{}
	for _, tag := range strings.Split(r.FormValue("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	id := shared.GenerateID()
	video := b.AddVideo(models.Video{
		ID:          id,
		CreatorID:   user.ID,
		Title:       title,
		Description: r.FormValue("description"),
		Tags:        tags,
		SkillLevel:  r.FormValue("skill_level"),
		VideoURL:    fmt.Sprintf("/static/videos/%s.mp4", id),
	})
	b.logger.Info("stored upload", "id", video.ID, "filename", header.Filename, "bytes", size)
	writeJSON(w, http.StatusOK, video)
}

func (b *MockBackend) createCourse(w http.ResponseWriter, r *http.Request) {
	user, err := b.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	if user.Role != models.RoleCreator {
		writeError(w, http.StatusForbidden, "Only creators can create courses")
		return
	}

	var payload struct {
		CreatorID   string   `json:"creator_id"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		VideoIDs    []string `json:"video_ids"`
	}
	if err := decodeJSON(r, &payload); err != nil || payload.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, validationError("title", "field required"))
		return
	}
	if payload.CreatorID != "" && payload.CreatorID != user.ID {
		writeError(w, http.StatusForbidden, "Cannot create course for another creator")
		return
	}

	course := b.AddCourse(models.Course{
		CreatorID:   user.ID,
		Title:       payload.Title,
		Description: payload.Description,
		VideoIDs:    payload.VideoIDs,
	})
	writeJSON(w, http.StatusOK, course)
}

func (b *MockBackend) course(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	c, ok := b.courses[chi.URLParam(r, "id")]
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Course not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (b *MockBackend) coursesFor(w http.ResponseWriter, r *http.Request) {
	creatorID := chi.URLParam(r, "creatorID")
	courses := []models.Course{}
	for _, c := range b.Courses() {
		if c.CreatorID == creatorID {
			courses = append(courses, c)
		}
	}
	writeJSON(w, http.StatusOK, courses)
}

func (b *MockBackend) updateProgress(w http.ResponseWriter, r *http.Request) {
	user, err := b.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	var payload models.ProgressUpdate
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationError("body", "invalid JSON"))
		return
	}
	if payload.UserID != user.ID {
		writeError(w, http.StatusForbidden, "Cannot update other user progress")
		return
	}

	b.mu.Lock()
	records, ok := b.progress[user.ID]
	if !ok {
		records = make(map[string]progressRecord)
		b.progress[user.ID] = records
	}
	record, exists := records[payload.VideoID]
	if !exists {
		record.courseID = payload.CourseID
	}
	record.completed = payload.Completed
	records[payload.VideoID] = record
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, payload)
}

func (b *MockBackend) courseProgress(w http.ResponseWriter, r *http.Request) {
	user, err := b.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	userID, courseID := chi.URLParam(r, "userID"), chi.URLParam(r, "courseID")
	if userID != user.ID {
		writeError(w, http.StatusForbidden, "Cannot view other user progress")
		return
	}

	b.mu.Lock()
	var progress models.CourseProgress
	for _, record := range b.progress[userID] {
		if record.courseID == nil || *record.courseID != courseID {
			continue
		}
		progress.Total++
		if record.completed {
			progress.Completed++
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, progress)
}

func (b *MockBackend) summary(w http.ResponseWriter, r *http.Request) {
	var req models.SummaryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationError("body", "invalid JSON"))
		return
	}
	writeJSON(w, http.StatusOK, CannedSummary(req))
}

func (b *MockBackend) quiz(w http.ResponseWriter, r *http.Request) {
	var req models.QuizRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationError("body", "invalid JSON"))
		return
	}
	writeJSON(w, http.StatusOK, models.QuizResponse{Questions: CannedQuiz(req)})
}

func (b *MockBackend) recommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationError("recent_tags", "field required"))
		return
	}
	writeJSON(w, http.StatusOK, models.RecommendationResponse{VideoIDs: Recommend(b.Videos(), req.RecentTags, defaultFeedLimit)})
}
