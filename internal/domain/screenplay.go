package domain

import (
	"fmt"
	"strings"
)

// Visual types the director prompt allows for a scene.
const (
	VisualType3DAnimation           = "3D animation"
	VisualTypeDiagram               = "diagram"
	VisualTypeBRoll                 = "B-roll"
	VisualTypeMotionGraphics        = "motion graphics"
	VisualTypeCinematicIllustration = "cinematic illustration"

	DefaultVisualType = VisualType3DAnimation
)

// VisualTypes lists the vocabulary in prompt order.
var VisualTypes = []string{
	VisualType3DAnimation,
	VisualTypeDiagram,
	VisualTypeBRoll,
	VisualTypeMotionGraphics,
	VisualTypeCinematicIllustration,
}

// Scene is one shot of the explainer video.
type Scene struct {
	VisualType   string `json:"visual_type"`
	VisualPrompt string `json:"visual_prompt"`
	Voiceover    string `json:"voiceover"`
}

// Screenplay is the validated output of the director step.
type Screenplay struct {
	ProjectTitle      string  `json:"project_title"`
	Scenes            []Scene `json:"scenes"`
	ElaboratedContent string  `json:"elaborated_content,omitempty"`
}

// Normalize trims every field and fills the default visual type.
func (s *Screenplay) Normalize() {
	if s == nil {
		return
	}
	s.ProjectTitle = strings.TrimSpace(s.ProjectTitle)
	s.ElaboratedContent = strings.TrimSpace(s.ElaboratedContent)
	for i := range s.Scenes {
		sc := &s.Scenes[i]
		sc.VisualType = strings.TrimSpace(sc.VisualType)
		if sc.VisualType == "" {
			sc.VisualType = DefaultVisualType
		}
		sc.VisualPrompt = strings.TrimSpace(sc.VisualPrompt)
		sc.Voiceover = strings.TrimSpace(sc.Voiceover)
	}
}

// Validate collects every schema violation into one ErrValidation error.
func (s *Screenplay) Validate() error {
	if s == nil {
		return Errorf(ErrValidation, "screenplay is empty")
	}
	var problems []string
	if strings.TrimSpace(s.ProjectTitle) == "" {
		problems = append(problems, "project_title is required")
	}
	if len(s.Scenes) == 0 {
		problems = append(problems, "scenes must contain at least one scene")
	}
	for i, sc := range s.Scenes {
		if strings.TrimSpace(sc.VisualPrompt) == "" {
			problems = append(problems, fmt.Sprintf("scenes[%d].visual_prompt is required", i))
		}
		if strings.TrimSpace(sc.Voiceover) == "" {
			problems = append(problems, fmt.Sprintf("scenes[%d].voiceover is required", i))
		}
	}
	if len(problems) > 0 {
		return Errorf(ErrValidation, "invalid screenplay: %s", strings.Join(problems, "; "))
	}
	return nil
}
