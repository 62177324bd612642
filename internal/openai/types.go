package openai

import "context"

// API is the subset of the model provider used by the imaging service.
type API interface {
	// Configured reports whether an API credential is present.
	Configured() bool
	// EditImage edits an image per prompt and returns the edited image bytes.
	EditImage(ctx context.Context, req EditRequest) ([]byte, error)
	// Complete runs a chat completion and returns the first choice's content.
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// EditRequest describes one image edit call.
type EditRequest struct {
	Image    []byte
	Filename string
	MIME     string
	Prompt   string
}

// ChatRequest is a system instruction plus one multi-part user message.
type ChatRequest struct {
	System string
	Parts  []ContentPart
}

// ContentPart is one element of a multi-part user message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references an image by URL or data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an image content part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type imagesResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
