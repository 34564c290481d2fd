package shared

import "regexp"

var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([\w-]+)`),
	regexp.MustCompile(`youtube\.com/embed/([\w-]+)`),
	regexp.MustCompile(`youtube\.com/v/([\w-]+)`),
}

// ExtractYouTubeID returns the video id from a watch, short, embed or /v/ URL, or "" if none matches.
func ExtractYouTubeID(url string) string {
	for _, pattern := range youtubeIDPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}
