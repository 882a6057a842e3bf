package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bitesized/internal/models"
	"github.com/desertthunder/bitesized/internal/session"
	"github.com/desertthunder/bitesized/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

func newMock(t *testing.T) (*MockBackend, *BasicRouter) {
	t.Helper()
	b, err := NewMockBackend(MockOpts{Secret: "test-secret", HashCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewMockBackend() error = %v", err)
	}
	r := NewBasicRouter()
	r.Handler(b)
	return b, r
}

func do(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func login(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": seedPassword}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	return decode[models.TokenResponse](t, rec).AccessToken
}

func TestBasicRouter(t *testing.T) {
	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		do(t, r, http.MethodGet, "/ping", nil, "")
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := do(t, r, http.MethodPost, "/ping", nil, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Not Found Uses Detail Shape", func(t *testing.T) {
		rec := do(t, NewBasicRouter(), http.MethodGet, "/nope", nil, "")
		if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"detail":"Not Found"`) {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Logging Middleware", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewBasicRouter()
		r.Use(DefaultMiddleware(log.New(&buf))...)
		r.Handle(http.MethodGet, "/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		do(t, r, http.MethodGet, "/teapot", nil, "")
		if !strings.Contains(buf.String(), "status=418") || !strings.Contains(buf.String(), "path=/teapot") {
			t.Errorf("unexpected log output %q", buf.String())
		}
	})

	t.Run("Recovers Panics", func(t *testing.T) {
		r := NewBasicRouter()
		r.Use(DefaultMiddleware(log.New(io.Discard))...)
		r.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		if rec := do(t, r, http.MethodGet, "/boom", nil, ""); rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestNewMockBackend(t *testing.T) {
	t.Run("Requires Secret", func(t *testing.T) {
		if _, err := NewMockBackend(MockOpts{}); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Seeds Sample Data", func(t *testing.T) {
		b, _ := newMock(t)
		if len(b.Videos()) != 2 || len(b.Courses()) != 1 {
			t.Errorf("expected 2 videos and 1 course, got %d and %d", len(b.Videos()), len(b.Courses()))
		}
	})

	t.Run("NoSeed", func(t *testing.T) {
		b, err := NewMockBackend(MockOpts{Secret: "s", NoSeed: true})
		if err != nil {
			t.Fatalf("NewMockBackend() error = %v", err)
		}
		if len(b.Videos()) != 0 || len(b.Courses()) != 0 {
			t.Error("expected empty backend")
		}
	})
}

func TestMockAuth(t *testing.T) {
	t.Run("Login Issues Decodable Token", func(t *testing.T) {
		_, r := newMock(t)
		token := login(t, r, "creator@example.com")

		s, err := session.DecodeIdentityFromToken(token)
		if err != nil {
			t.Fatalf("DecodeIdentityFromToken() error = %v", err)
		}
		if s.Role != models.RoleCreator || s.Name != "Demo Creator" || s.UserID == "" {
			t.Errorf("unexpected identity %+v", s)
		}
	})

	t.Run("Login Is Case Insensitive On Email", func(t *testing.T) {
		_, r := newMock(t)
		login(t, r, "Creator@Example.com")
	})

	t.Run("Wrong Password", func(t *testing.T) {
		_, r := newMock(t)
		rec := do(t, r, http.MethodPost, "/auth/login", map[string]string{"email": "creator@example.com", "password": "nope"}, "")
		if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Invalid credentials") {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Register Then Login", func(t *testing.T) {
		_, r := newMock(t)
		body := map[string]string{"name": "Ann", "email": "ann@example.com", "password": "secret1"}
		rec := do(t, r, http.MethodPost, "/auth/register", body, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
		}
		user := decode[models.RemoteUser](t, rec)
		if user.Role != "learner" || user.ID == "" {
			t.Errorf("unexpected user %+v", user)
		}

		rec = do(t, r, http.MethodPost, "/auth/login", map[string]string{"email": "ann@example.com", "password": "secret1"}, "")
		if rec.Code != http.StatusOK {
			t.Errorf("login failed: %d", rec.Code)
		}
	})

	t.Run("Register Duplicate", func(t *testing.T) {
		_, r := newMock(t)
		body := map[string]string{"name": "X", "email": "LEARNER@example.com", "password": "secret1"}
		rec := do(t, r, http.MethodPost, "/auth/register", body, "")
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Email already registered") {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Register Invalid Email Uses Structured Detail", func(t *testing.T) {
		_, r := newMock(t)
		body := map[string]string{"name": "X", "email": "nope", "password": "secret1"}
		rec := do(t, r, http.MethodPost, "/auth/register", body, "")
		if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), `"loc":["body","email"]`) {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Expired Token Rejected", func(t *testing.T) {
		b, r := newMock(t)
		b.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token := login(t, r, "creator@example.com")
		b.now = time.Now

		rec := do(t, r, http.MethodPost, "/progress/update", map[string]any{"user_id": "x", "video_id": "y", "completed": true}, token)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestMockVideos(t *testing.T) {
	t.Run("Feed Is Latest First With Limit", func(t *testing.T) {
		b, r := newMock(t)
		videos := b.Videos()

		feed := decode[[]models.Video](t, do(t, r, http.MethodGet, "/videos/feed", nil, ""))
		if len(feed) != 2 || feed[0].ID != videos[1].ID {
			t.Errorf("unexpected feed %+v", feed)
		}

		limited := decode[[]models.Video](t, do(t, r, http.MethodGet, "/videos/feed?limit=1", nil, ""))
		if len(limited) != 1 {
			t.Errorf("expected 1 video, got %d", len(limited))
		}

		if rec := do(t, r, http.MethodGet, "/videos/feed?limit=zero", nil, ""); rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("Get And Increment View", func(t *testing.T) {
		b, r := newMock(t)
		id := b.Videos()[0].ID

		v := decode[models.Video](t, do(t, r, http.MethodGet, "/videos/"+id, nil, ""))
		if v.Title != "Intro to Neural Networks" {
			t.Errorf("unexpected video %+v", v)
		}

		rec := do(t, r, http.MethodPost, "/videos/increment-view", map[string]string{"video_id": id}, "")
		if rec.Code != http.StatusOK || b.Videos()[0].Views != 11 {
			t.Errorf("expected views to increment, got %d (%s)", b.Videos()[0].Views, rec.Body.String())
		}

		do(t, r, http.MethodPost, "/videos/like", map[string]string{"video_id": id}, "")
		if b.Videos()[0].Likes != 6 {
			t.Errorf("expected likes to increment, got %d", b.Videos()[0].Likes)
		}
	})

	t.Run("Unknown Video", func(t *testing.T) {
		_, r := newMock(t)
		rec := do(t, r, http.MethodGet, "/videos/missing", nil, "")
		if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Video not found") {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Upload", func(t *testing.T) {
		upload := func(t *testing.T, h http.Handler, token, contentType string) *httptest.ResponseRecorder {
			var buf bytes.Buffer
			form := multipart.NewWriter(&buf)
			_ = form.WriteField("title", "Tries")
			_ = form.WriteField("tags", "trees, strings ,")
			_ = form.WriteField("skill_level", "beginner")
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition", `form-data; name="file"; filename="tries.mp4"`)
			header.Set("Content-Type", contentType)
			part, _ := form.CreatePart(header)
			_, _ = part.Write([]byte("fake"))
			_ = form.Close()

			req := httptest.NewRequest(http.MethodPost, "/videos/upload", &buf)
			req.Header.Set("Content-Type", form.FormDataContentType())
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec
		}

		t.Run("Creator", func(t *testing.T) {
			b, r := newMock(t)
			rec := upload(t, r, login(t, r, "creator@example.com"), "video/mp4")
			if rec.Code != http.StatusOK {
				t.Fatalf("upload failed: %d %s", rec.Code, rec.Body.String())
			}
			v := decode[models.Video](t, rec)
			if strings.Join(v.Tags, "|") != "trees|strings" || len(b.Videos()) != 3 {
				t.Errorf("unexpected upload %+v", v)
			}
		})

		t.Run("Anonymous", func(t *testing.T) {
			_, r := newMock(t)
			if rec := upload(t, r, "", "video/mp4"); rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})

		t.Run("Learner", func(t *testing.T) {
			_, r := newMock(t)
			if rec := upload(t, r, login(t, r, "learner@example.com"), "video/mp4"); rec.Code != http.StatusForbidden {
				t.Errorf("expected 403, got %d", rec.Code)
			}
		})

		t.Run("Unsupported Type", func(t *testing.T) {
			_, r := newMock(t)
			rec := upload(t, r, login(t, r, "creator@example.com"), "image/gif")
			if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Unsupported video format") {
				t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
			}
		})
	})
}

func TestMockCoursesAndProgress(t *testing.T) {
	t.Run("Course Lookup", func(t *testing.T) {
		b, r := newMock(t)
		course := b.Courses()[0]

		got := decode[models.Course](t, do(t, r, http.MethodGet, "/courses/"+course.ID, nil, ""))
		if got.Title != "ML Crash Course" || len(got.VideoIDs) != 2 {
			t.Errorf("unexpected course %+v", got)
		}

		list := decode[[]models.Course](t, do(t, r, http.MethodGet, "/courses/user/"+course.CreatorID, nil, ""))
		if len(list) != 1 {
			t.Errorf("expected 1 course for creator, got %d", len(list))
		}

		if rec := do(t, r, http.MethodGet, "/courses/nope", nil, ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Create Course", func(t *testing.T) {
		b, r := newMock(t)
		token := login(t, r, "creator@example.com")

		rec := do(t, r, http.MethodPost, "/courses/create", map[string]any{"title": "Graphs", "video_ids": []string{}}, token)
		if rec.Code != http.StatusOK || len(b.Courses()) != 2 {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}

		learner := login(t, r, "learner@example.com")
		if rec := do(t, r, http.MethodPost, "/courses/create", map[string]any{"title": "Nope"}, learner); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("Progress Is Scoped To Course And User", func(t *testing.T) {
		b, r := newMock(t)
		course := b.Courses()[0]
		token := login(t, r, "learner@example.com")
		s, _ := session.DecodeIdentityFromToken(token)

		update := map[string]any{"user_id": s.UserID, "course_id": course.ID, "video_id": course.VideoIDs[0], "completed": true}
		if rec := do(t, r, http.MethodPost, "/progress/update", update, token); rec.Code != http.StatusOK {
			t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
		}
		untracked := map[string]any{"user_id": s.UserID, "course_id": nil, "video_id": course.VideoIDs[1], "completed": true}
		do(t, r, http.MethodPost, "/progress/update", untracked, token)

		path := "/progress/user/" + s.UserID + "/course/" + course.ID
		got := decode[models.CourseProgress](t, do(t, r, http.MethodGet, path, nil, token))
		if got.Completed != 1 || got.Total != 1 {
			t.Errorf("unexpected progress %+v", got)
		}

		other := map[string]any{"user_id": "someone-else", "video_id": "v", "completed": true}
		if rec := do(t, r, http.MethodPost, "/progress/update", other, token); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
		if rec := do(t, r, http.MethodGet, "/progress/user/someone-else/course/"+course.ID, nil, token); rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})
}

func TestMockAI(t *testing.T) {
	_, r := newMock(t)

	t.Run("Summary", func(t *testing.T) {
		body := models.SummaryRequest{Title: "Big O", Tags: []string{"algorithms", "complexity"}}
		got := decode[models.SummaryResponse](t, do(t, r, http.MethodPost, "/ai/generate-summary", body, ""))
		if got.Summary != "Big O covers algorithms, complexity in under 90 seconds." {
			t.Errorf("unexpected summary %q", got.Summary)
		}
		if strings.Join(got.KeyPoints, "|") != "Key idea: algorithms|Key idea: complexity" {
			t.Errorf("unexpected key points %v", got.KeyPoints)
		}
	})

	t.Run("Quiz", func(t *testing.T) {
		got := decode[models.QuizResponse](t, do(t, r, http.MethodPost, "/ai/generate-quiz", models.QuizRequest{Topic: "Heaps", Tags: []string{"a", "b", "c"}}, ""))
		if len(got.Questions) != 2 || got.Questions[0].Answer != "Application" {
			t.Errorf("unexpected quiz %+v", got)
		}
	})

	t.Run("Recommend", func(t *testing.T) {
		got := decode[models.RecommendationResponse](t, do(t, r, http.MethodPost, "/ai/recommend-feed", models.RecommendationRequest{RecentTags: []string{"Complexity"}}, ""))
		if len(got.VideoIDs) != 2 {
			t.Fatalf("expected 2 ids, got %v", got.VideoIDs)
		}
	})
}

func TestCannedContent(t *testing.T) {
	t.Run("Untagged Summary", func(t *testing.T) {
		got := CannedSummary(models.SummaryRequest{Title: "Intro"})
		if got.Summary != "Intro covers core ideas in under 90 seconds." || got.KeyPoints[0] != "Key idea: core concept" {
			t.Errorf("unexpected summary %+v", got)
		}
	})

	t.Run("Summary Caps Key Points", func(t *testing.T) {
		got := CannedSummary(models.SummaryRequest{Title: "T", Tags: []string{"a", "b", "c", "d"}})
		if len(got.KeyPoints) != 3 {
			t.Errorf("expected 3 key points, got %v", got.KeyPoints)
		}
	})

	t.Run("Untagged Quiz", func(t *testing.T) {
		got := CannedQuiz(models.QuizRequest{Topic: "Heaps"})
		if len(got) != 1 || got[0].Question != "What is a core takeaway from Heaps?" {
			t.Errorf("unexpected quiz %+v", got)
		}
	})

	t.Run("Recommend Ranks By Overlap", func(t *testing.T) {
		videos := []models.Video{
			{ID: "popular", Tags: []string{"js"}, Views: 500, Likes: 10},
			{ID: "match", Tags: []string{"Graphs", "graphs"}},
		}
		got := Recommend(videos, []string{"graphs"}, 15)
		if strings.Join(got, ",") != "match,popular" {
			t.Errorf("unexpected ranking %v", got)
		}
		if got := Recommend(videos, nil, 1); len(got) != 1 || got[0] != "popular" {
			t.Errorf("unexpected ranking with limit %v", got)
		}
	})
}
