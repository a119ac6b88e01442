package video

import (
	"fmt"
	"strings"

	"strang/internal/domain"
)

const (
	secondsPerScene    = 45
	minDurationSeconds = 30
	maxDurationSeconds = 300
)

var promptPreamble = []string{
	"Create a short educational explainer video. Follow this script scene by scene.",
	"Style: illustrative only—no talking head, no on-screen presenter. Use only the described visuals with voice-over narration. Keep a clean, cinematic 3D/animation style where it fits.",
}

// BuildPrompt renders a screenplay into the Video Agent script format. The
// output depends only on sp; scenes keep their order.
func BuildPrompt(sp *domain.Screenplay) string {
	var title string
	var scenes []domain.Scene
	if sp != nil {
		title = strings.TrimSpace(sp.ProjectTitle)
		scenes = sp.Scenes
	}

	lines := make([]string, 0, len(promptPreamble)+4+len(scenes))
	lines = append(lines, promptPreamble...)
	lines = append(lines, fmt.Sprintf("Title: %s.", title), "", "---", "")
	for i, sc := range scenes {
		visualType := strings.TrimSpace(sc.VisualType)
		if visualType == "" {
			visualType = domain.DefaultVisualType
		}
		lines = append(lines, fmt.Sprintf("Scene %d (%s): %s VO: \"%s\"",
			i+1,
			visualType,
			strings.TrimSpace(sc.VisualPrompt),
			strings.TrimSpace(sc.Voiceover),
		))
	}
	return strings.Join(lines, "\n")
}

// EstimateDuration suggests a video length in seconds from the scene count.
func EstimateDuration(sp *domain.Screenplay) int {
	n := 0
	if sp != nil {
		n = len(sp.Scenes)
	}
	return clamp(secondsPerScene*max(1, n), minDurationSeconds, maxDurationSeconds)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
