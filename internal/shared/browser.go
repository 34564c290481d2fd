package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// WatchURL returns the YouTube watch page for a video ID.
func WatchURL(youtubeID string) (string, error) {
	youtubeID = strings.TrimSpace(youtubeID)
	if youtubeID == "" {
		return "", fmt.Errorf("%w: video has no YouTube ID", ErrInvalidInput)
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(youtubeID), nil
}

// browserCommand builds the platform specific command that opens target.
func browserCommand(target string) (*exec.Cmd, error) {
	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", target), nil
	case "linux":
		return exec.Command("xdg-open", target), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(target string) error {
	cmd, err := browserCommand(target)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
