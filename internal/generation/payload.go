package generation

import "strings"

// resolutionPresets maps the advertised preset names to pixel dimensions.
var resolutionPresets = map[string]string{
	"360p":  "640x360",
	"480p":  "854x480",
	"576p":  "1024x576",
	"720p":  "1280x720",
	"1080p": "1920x1080",
}

// MapResolution translates a preset name to pixel dimensions. Unknown
// non-empty values pass through verbatim; empty input yields empty output so
// the request field is omitted.
func MapResolution(resolution string) string {
	key := strings.ToLower(strings.TrimSpace(resolution))
	if key == "" {
		return ""
	}
	if mapped, ok := resolutionPresets[key]; ok {
		return mapped
	}
	return resolution
}

type submitRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Video videoParams    `json:"video"`
}

type inputMessage struct {
	Role    string         `json:"role"`
	Content []inputContent `json:"content"`
}

type inputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type videoParams struct {
	Format     string  `json:"format"`
	Duration   float64 `json:"duration,omitempty"`
	Quality    string  `json:"quality,omitempty"`
	Resolution string  `json:"resolution,omitempty"`
}

// buildSubmitRequest shapes a job's parameters into the upstream request.
// Zero seconds and blank quality/resolution are omitted rather than
// defaulted; defaulting happened when the job record was normalized.
func buildSubmitRequest(model string, req Request) submitRequest {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = "Generate a short cinematic establishing shot."
	}

	out := submitRequest{
		Model: model,
		Input: []inputMessage{{
			Role:    "user",
			Content: []inputContent{{Type: "input_text", Text: prompt}},
		}},
		Video: videoParams{Format: "mp4"},
	}
	if req.Seconds > 0 {
		out.Video.Duration = float64(req.Seconds)
	}
	if quality := strings.TrimSpace(req.Quality); quality != "" {
		out.Video.Quality = strings.ToLower(quality)
	}
	out.Video.Resolution = MapResolution(req.Resolution)
	return out
}
