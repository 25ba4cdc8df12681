package vlm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Shibata-1273352/surgical-recap/internal/domain/entity"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const selectorSystemPrompt = `You are an expert surgical video analyst specializing in laparoscopic surgery.

Your task is to select the most medically significant keyframes from a sequence of surgical video frames.

Selection criteria:
1. Start/end of surgical actions (e.g., dissection begins, clipping completes)
2. Instrument changes (new tool introduced or removed)
3. Clear anatomical features (critical structures visible)
4. Critical moments (bleeding, completion of critical step, complications)

You will receive 3-10 consecutive frames. Select frames that represent important transitions or moments.

IMPORTANT: Output ONLY valid JSON in this exact format:
{
  "selected_indices": [0, 3],
  "reason": "Frame 0 shows start of clipping, frame 3 shows clip placement completed"
}

The indices must be integers from 0 to N-1 (where N is the number of input frames).`

// Client calls an OpenAI-compatible vision chat-completions API to pick the
// significant frames in a window.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

type ClientConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

func (c *Client) SelectFrames(ctx context.Context, frames []entity.FrameRef, batchID int) ([]int, string, error) {
	parts := make([]openai.ChatMessagePart, 0, len(frames)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: selectorSystemPrompt + "\n\n" + userPrompt(len(frames), batchID),
	})

	for _, f := range frames {
		url, err := encodeImage(f.Location)
		if err != nil {
			return nil, "", fmt.Errorf("encode frame %d: %w", f.GlobalIndex, err)
		}
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: url},
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		TopP:        0.1,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, "", errors.New("chat completion returned no choices")
	}

	indices, reason, err := ParseSelection(resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Warn("unparseable selector response",
			zap.Int("batch_id", batchID),
			zap.String("content", resp.Choices[0].Message.Content),
		)
		return nil, "", err
	}
	return indices, reason, nil
}

func userPrompt(frameCount, batchID int) string {
	return fmt.Sprintf(`Analyze these %d consecutive frames from a laparoscopic surgery (Batch #%d).

Select the frames that are most medically significant based on:
- Surgical action transitions (start/end of cutting, clipping, dissection, etc.)
- Instrument changes
- Clear anatomical structures
- Critical moments

Return JSON with "selected_indices" (list of integers 0-%d) and "reason" (brief explanation).`,
		frameCount, batchID, frameCount-1)
}

// encodeImage reads the frame and returns a base64 data URL.
func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := "image/png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".webp":
		mime = "image/webp"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}

type selectorResponse struct {
	SelectedIndices []int  `json:"selected_indices"`
	Reason          string `json:"reason"`
}

// ParseSelection decodes the model's JSON reply, tolerating markdown code
// fences around the body. A reply without a selected_indices array is an
// error.
func ParseSelection(content string) ([]int, string, error) {
	body := strings.TrimSpace(content)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
		body = strings.TrimSpace(body)
	}

	var resp selectorResponse
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&resp); err != nil {
		return nil, "", fmt.Errorf("parse selector response: %w", err)
	}
	if resp.SelectedIndices == nil {
		return nil, "", errors.New("selector response missing selected_indices")
	}
	return resp.SelectedIndices, resp.Reason, nil
}
