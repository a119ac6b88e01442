package screenplay

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/invopop/jsonschema"

	"strang/internal/domain"
)

// screenplayPayload is the wire shape requested from the model. Strict
// structured output needs every property listed as required, so no field
// carries omitempty.
type screenplayPayload struct {
	ElaboratedContent string         `json:"elaborated_content" jsonschema_description:"The full elaborated description of the selected text, 2 to 4 paragraphs."`
	ProjectTitle      string         `json:"project_title" jsonschema_description:"Short title for the video."`
	Scenes            []scenePayload `json:"scenes" jsonschema_description:"Between 2 and 5 scenes in narrative order."`
}

type scenePayload struct {
	VisualType   string `json:"visual_type" jsonschema:"enum=3D animation,enum=diagram,enum=B-roll,enum=motion graphics,enum=cinematic illustration" jsonschema_description:"Type of visual for the scene."`
	VisualPrompt string `json:"visual_prompt" jsonschema_description:"Concrete, filmable description of what the viewer sees."`
	Voiceover    string `json:"voiceover" jsonschema_description:"Exact narration for this scene."`
}

func (p screenplayPayload) toDomain() *domain.Screenplay {
	sp := &domain.Screenplay{
		ProjectTitle:      p.ProjectTitle,
		ElaboratedContent: p.ElaboratedContent,
		Scenes:            make([]domain.Scene, 0, len(p.Scenes)),
	}
	for _, sc := range p.Scenes {
		sp.Scenes = append(sp.Scenes, domain.Scene{
			VisualType:   sc.VisualType,
			VisualPrompt: sc.VisualPrompt,
			Voiceover:    sc.Voiceover,
		})
	}
	return sp
}

var screenplaySchema = generateSchema[screenplayPayload]()

func generateSchema[T any]() any {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// parseScreenplay decodes model output into a validated screenplay. Content
// that is not JSON is an upstream failure that also matches ErrValidation;
// JSON of the wrong shape is a validation failure.
func parseScreenplay(raw string) (*domain.Screenplay, error) {
	payload, err := parseModelPayload[screenplayPayload](raw)
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "document"
			}
			return nil, domain.Wrap(domain.ErrValidation, err, "invalid screenplay: "+field+" has the wrong type")
		}
		return nil, malformedOutput(err, "OpenAI returned content that is not JSON")
	}
	sp := payload.toDomain()
	sp.Normalize()
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	return sp, nil
}

// malformedOutput reports a provider answer that carried no usable screenplay.
// It matches both ErrUpstream and ErrValidation.
func malformedOutput(cause error, detail string) error {
	return domain.Wrap(domain.ErrUpstream, domain.Wrap(domain.ErrValidation, cause, detail), detail)
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
