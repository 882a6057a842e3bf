package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// startCommand launches the browser process without waiting for it.
var startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }

// ResolveVideoURL makes a video URL absolute. Uploaded videos are served from paths relative to the API base URL.
func ResolveVideoURL(baseURL, videoURL string) (string, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return "", fmt.Errorf("%w: video has no url", ErrMissingArgument)
	}

	ref, err := url.Parse(videoURL)
	if err != nil {
		return "", fmt.Errorf("%w: video url %q: %v", ErrInvalidArgument, videoURL, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return "", fmt.Errorf("%w: cannot resolve %q against base url %q", ErrInvalidArgument, videoURL, baseURL)
	}
	return base.ResolveReference(ref).String(), nil
}

// OpenBrowser opens an absolute http(s) URL in the default system browser.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: not an http(s) url: %q", ErrInvalidArgument, rawURL)
	}

	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", u.String())
	case "linux":
		cmd = exec.Command("xdg-open", u.String())
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", u.String())
	default:
		return fmt.Errorf("%w: unsupported platform: %s", ErrBrowserUnavailable, rt)
	}

	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	return nil
}
