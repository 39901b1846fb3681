package app

import "regexp"

var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^&\n?#]+)`),
}

// ExtractVideoID pulls the video id out of a YouTube URL so clients can
// embed the audio source directly. Unrecognized input is returned as-is.
func ExtractVideoID(url string) string {
	for _, pattern := range youtubeIDPatterns {
		if match := pattern.FindStringSubmatch(url); match != nil {
			return match[1]
		}
	}
	return url
}
