package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bitesized/internal/kv"
	"github.com/desertthunder/bitesized/internal/models"
	"github.com/desertthunder/bitesized/internal/server"
	"github.com/desertthunder/bitesized/internal/shared"
	"github.com/desertthunder/bitesized/internal/tasks"
	tu "github.com/desertthunder/bitesized/internal/testing"
	"golang.org/x/crypto/bcrypt"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			store := kv.NewMemoryStore()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Store:      store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
			if runner.sessions == nil || runner.registry == nil || runner.client == nil || runner.engine == nil {
				t.Error("expected components to be wired")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				HTTPClient: nil,
			})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with nil store uses memory", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if _, ok := runner.store.(*kv.MemoryStore); !ok {
				t.Errorf("expected memory store, got %T", runner.store)
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("SetLogger rewires components", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		engine := runner.engine

		logger := log.New(io.Discard)
		runner.SetLogger(logger)

		if runner.logger != logger {
			t.Error("expected logger to be replaced")
		}
		if runner.engine == engine {
			t.Error("expected engine to be rebuilt")
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 11 {
			t.Errorf("expected 11 commands, got %d", len(commands))
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("track closes cleanly", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard)})
		progressCh, wait := runner.track()
		progressCh <- tasks.ProgressUpdate{Message: "working", Step: 1, Total: 1}
		wait()
	})
}

func TestDetectVideoType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"lesson.mp4", "video/mp4"},
		{"LESSON.MOV", "video/quicktime"},
		{"clip.webm", "video/webm"},
		{"notes", ""},
	}
	for _, tt := range tests {
		if got := detectVideoType(tt.path); got != tt.want {
			t.Errorf("detectVideoType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

// syncBuffer is a bytes.Buffer safe for the concurrent writers that child loggers become.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// cliHarness runs commands against a runner wired to a mock backend.
type cliHarness struct {
	backend *server.MockBackend
	runner  *Runner
	output  *bytes.Buffer
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()
	logger := log.New(io.Discard)

	backend, err := server.NewMockBackend(server.MockOpts{Secret: "cli-secret", HashCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewMockBackend() error = %v", err)
	}
	router := server.NewBasicRouter()
	router.Handler(backend)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	config := shared.DefaultConfig()
	config.API.BaseURL = ts.URL

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Config: config, Logger: logger, Output: output})
	return &cliHarness{backend: backend, runner: runner, output: output}
}

// run executes args as a fresh command tree and returns what was written.
func (h *cliHarness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	h.output.Reset()
	app := rootCommand(h.runner)
	app.Writer, app.ErrWriter = io.Discard, io.Discard
	err := app.Run(context.Background(), append([]string{"bitesized"}, args...))
	return h.output.String(), err
}

func (h *cliHarness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	if err != nil {
		t.Fatalf("%v: unexpected error %v", args, err)
	}
	return out
}

func TestCommands(t *testing.T) {
	t.Run("Feed", func(t *testing.T) {
		h := newHarness(t)

		var feed tasks.FeedResult
		if err := json.Unmarshal([]byte(h.mustRun(t, "feed", "--json")), &feed); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if feed.Source != tasks.FeedRecommended || len(feed.Videos) != 2 {
			t.Errorf("unexpected feed %s with %d videos", feed.Source, len(feed.Videos))
		}

		out := h.mustRun(t, "feed")
		if !strings.Contains(out, "Recommended for you") || !strings.Contains(out, "What is Big O?") {
			t.Errorf("unexpected feed output %q", out)
		}
	})

	t.Run("Learn Demo Lesson", func(t *testing.T) {
		h := newHarness(t)
		demo := tasks.DemoVideos()[0]

		out := h.mustRun(t, "learn", "--complete", demo.ID)
		if !strings.Contains(out, demo.Title) {
			t.Errorf("expected %q in %q", demo.Title, out)
		}
		if !strings.Contains(out, "Progress not recorded") {
			t.Errorf("expected skipped completion in %q", out)
		}
	})

	t.Run("Learn Saves And Records History", func(t *testing.T) {
		h := newHarness(t)
		id := h.backend.Videos()[1].ID

		var lesson struct {
			Saved       bool                    `json:"saved"`
			ViewCounted bool                    `json:"view_counted"`
			Summary     *models.SummaryResponse `json:"summary"`
		}
		out := h.mustRun(t, "learn", "--json", "--save", "--summary", id)
		if err := json.Unmarshal([]byte(out), &lesson); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if !lesson.Saved || !lesson.ViewCounted || lesson.Summary == nil {
			t.Errorf("unexpected lesson %+v", lesson)
		}

		var entries []models.PlaylistEntry
		if err := json.Unmarshal([]byte(h.mustRun(t, "playlist", "list", "--json")), &entries); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(entries) != 1 || entries[0].ID != id {
			t.Errorf("unexpected playlist %+v", entries)
		}

		if out := h.mustRun(t, "history"); !strings.Contains(out, "algorithms, complexity") {
			t.Errorf("unexpected history %q", out)
		}
	})

	t.Run("Learn Save Toggles", func(t *testing.T) {
		h := newHarness(t)
		id := h.backend.Videos()[0].ID

		if out := h.mustRun(t, "learn", "--save", id); !strings.Contains(out, "Saved to playlist") {
			t.Errorf("unexpected output %q", out)
		}
		if out := h.mustRun(t, "learn", id); !strings.Contains(out, "In your playlist") {
			t.Errorf("unexpected output %q", out)
		}

		var lesson struct {
			Saved          bool   `json:"saved"`
			PlaylistChange string `json:"playlist_change"`
		}
		out := h.mustRun(t, "learn", "--json", "--save", id)
		if err := json.Unmarshal([]byte(out), &lesson); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if lesson.Saved || lesson.PlaylistChange != "removed" {
			t.Errorf("expected removal, got %+v", lesson)
		}
		if out := h.mustRun(t, "learn", "--save", id); !strings.Contains(out, "Saved to playlist") {
			t.Errorf("unexpected output %q", out)
		}
		if out := h.mustRun(t, "learn", "--save", id); !strings.Contains(out, "Removed from playlist") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Learn Open Resolves Relative URL", func(t *testing.T) {
		h := newHarness(t)
		video := h.backend.AddVideo(models.Video{Title: "Tries", VideoURL: "/static/videos/tries.mp4"})

		var opened string
		h.runner.openURL = func(url string) error {
			opened = url
			return nil
		}
		out := h.mustRun(t, "learn", "--open", video.ID)
		if want := h.runner.config.API.BaseURL + "/static/videos/tries.mp4"; opened != want {
			t.Errorf("expected %q to be opened, got %q", want, opened)
		}
		if strings.Contains(out, "open failed") {
			t.Errorf("unexpected output %q", out)
		}

		h.runner.openURL = func(string) error { return shared.ErrBrowserUnavailable }
		if out := h.mustRun(t, "learn", "--open", video.ID); !strings.Contains(out, "open failed: failed to open browser") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Log Level Reaches Components", func(t *testing.T) {
		h := newHarness(t)
		logs := &syncBuffer{}
		h.runner.SetLogger(log.New(logs))

		h.mustRun(t, "feed")
		if strings.Contains(logs.String(), "api request") {
			t.Fatalf("api debug line logged at info level: %s", logs.String())
		}

		h.mustRun(t, "--log-level", "debug", "feed")
		if !strings.Contains(logs.String(), "api request") {
			t.Errorf("expected api debug line, got %s", logs.String())
		}
	})

	t.Run("Playlist Toggle And Clear", func(t *testing.T) {
		h := newHarness(t)
		id := h.backend.Videos()[0].ID

		if out := h.mustRun(t, "playlist", "toggle", id); !strings.Contains(out, "Saved") {
			t.Errorf("unexpected output %q", out)
		}
		if out := h.mustRun(t, "playlist", "toggle", id); !strings.Contains(out, "Removed") {
			t.Errorf("unexpected output %q", out)
		}
		h.mustRun(t, "playlist", "toggle", id)
		h.mustRun(t, "playlist", "clear")
		if out := h.mustRun(t, "playlist", "list"); !strings.Contains(out, "No saved lessons") {
			t.Errorf("unexpected output %q", out)
		}

		if _, err := h.run(t, "playlist", "toggle", "demo-missing"); !errors.Is(err, shared.ErrVideoNotFound) {
			t.Errorf("expected ErrVideoNotFound, got %v", err)
		}
	})

	t.Run("Playlist Export", func(t *testing.T) {
		h := newHarness(t)
		h.mustRun(t, "playlist", "toggle", h.backend.Videos()[0].ID)
		dir := filepath.Join(t.TempDir(), "export")

		var result tasks.ExportResult
		out := h.mustRun(t, "playlist", "export", "--json", "--format", "csv", "--format", "markdown", "--output-dir", dir)
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if result.Entries != 1 || result.Successful != 2 || result.Failed != 0 {
			t.Errorf("unexpected result %+v", result)
		}
		tu.AssertFileExists(t, result.ManifestPath)

		if _, err := h.run(t, "playlist", "export", "--format", "yaml"); err == nil {
			t.Error("expected unknown format to fail")
		}
	})

	t.Run("Local Auth", func(t *testing.T) {
		h := newHarness(t)

		out := h.mustRun(t, "auth", "register", "--name", "Ann", "--email", "ann@example.com", "--password", "secret1")
		if !strings.Contains(out, "Ann (learner)") {
			t.Errorf("unexpected output %q", out)
		}

		var who whoami
		if err := json.Unmarshal([]byte(h.mustRun(t, "auth", "whoami", "--json")), &who); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if !who.LoggedIn || !who.Local || who.Name != "Ann" {
			t.Errorf("unexpected session %+v", who)
		}

		h.mustRun(t, "auth", "logout")
		if out := h.mustRun(t, "auth", "whoami"); !strings.Contains(out, "Not logged in") {
			t.Errorf("unexpected output %q", out)
		}

		if out := h.mustRun(t, "auth", "login", "--email", "ANN@example.com", "--password", "secret1"); !strings.Contains(out, "Logged in as Ann") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Remote Login And Upload", func(t *testing.T) {
		h := newHarness(t)

		out := h.mustRun(t, "auth", "login", "--remote", "--email", "creator@example.com", "--password", "password123")
		if !strings.Contains(out, "Demo Creator (creator)") {
			t.Errorf("unexpected output %q", out)
		}

		path := filepath.Join(t.TempDir(), "tries.mp4")
		if err := os.WriteFile(path, []byte("fake video"), 0644); err != nil {
			t.Fatal(err)
		}
		out = h.mustRun(t, "upload", "--file", path, "--title", "Tries", "--tag", "trees,strings")
		if !strings.Contains(out, `Uploaded "Tries"`) {
			t.Errorf("unexpected output %q", out)
		}
		videos := h.backend.Videos()
		if len(videos) != 3 || strings.Join(videos[2].Tags, ",") != "trees,strings" {
			t.Errorf("unexpected backend videos %+v", videos)
		}
	})

	t.Run("Upload Requires Login", func(t *testing.T) {
		h := newHarness(t)
		path := filepath.Join(t.TempDir(), "tries.mp4")
		if err := os.WriteFile(path, []byte("fake video"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := h.run(t, "upload", "--file", path, "--title", "Tries"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Course", func(t *testing.T) {
		h := newHarness(t)
		course := h.backend.Courses()[0]

		out := h.mustRun(t, "course", course.ID)
		if !strings.Contains(out, "ML Crash Course") || !strings.Contains(out, "Intro to Neural Networks") {
			t.Errorf("unexpected output %q", out)
		}

		if _, err := h.run(t, "course", "nope"); !errors.Is(err, shared.ErrCourseNotFound) {
			t.Errorf("expected ErrCourseNotFound, got %v", err)
		}
	})

	t.Run("API", func(t *testing.T) {
		h := newHarness(t)

		if out := h.mustRun(t, "api", "get", "/health"); !strings.Contains(out, `"status": "ok"`) {
			t.Errorf("unexpected output %q", out)
		}
		if _, err := h.run(t, "api", "get", "/videos/missing"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if _, err := h.run(t, "api", "post", "--data", "{not json", "/ai/recommend-feed"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}

		out := h.mustRun(t, "api", "post", "--data", `{"recent_tags":["algorithms"]}`, "/ai/recommend-feed")
		if !strings.Contains(out, "video_ids") {
			t.Errorf("unexpected output %q", out)
		}
	})
}
