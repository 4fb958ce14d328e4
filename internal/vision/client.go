// Package vision sends meal photos to the Anthropic inference endpoint and
// returns the model's raw text. Parsing the text into a nutrition estimate is
// the nutrition package's job; this boundary only classifies failures.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var (
	ErrNetwork       = errors.New("analysis request could not reach the service")
	ErrService       = errors.New("analysis service rejected the request")
	ErrTimeout       = errors.New("analysis request timed out")
	ErrEmptyResponse = errors.New("analysis service returned no text")
)

const analysisPrompt = `Analyze this image of a meal.
Identify the dish name and estimate the total calories, protein, carbs, and fats.
Provide a healthier swap if possible and a portion tweak recommendation.
Return the result in JSON format with the following keys:
dishName (string), calories (int), protein (number of grams), carbs (number of grams), fats (number of grams), healthierSwap (string), portionTweak (string).

IMPORTANT: Return ONLY a single raw JSON object. Do not include markdown formatting or any other text.`

type Client struct {
	api     anthropic.Client
	model   string
	timeout time.Duration
	log     *slog.Logger
}

func NewClient(apiKey string, model string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		api:     anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
		log:     log,
	}
}

// Analyze submits the image with the fixed instruction prompt and returns the
// response text verbatim. Transport and service errors never escape untyped.
func (client *Client) Analyze(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image payload", ErrService)
	}

	ctx, cancel := context.WithTimeout(ctx, client.timeout)
	defer cancel()

	message, err := client.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(client.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaTypeFor(image), base64.StdEncoding.EncodeToString(image)),
				anthropic.NewTextBlock(analysisPrompt),
			),
		},
	})
	if err != nil {
		classified := classifyRequestError(err)
		client.log.Warn("meal analysis request failed",
			slog.String("model", client.model),
			slog.String("cause", err.Error()))
		return "", classified
	}

	var text strings.Builder
	for _, block := range message.Content {
		text.WriteString(block.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyResponse
	}

	return text.String(), nil
}

func classifyRequestError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", ErrService, err)
	}

	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

func mediaTypeFor(image []byte) string {
	switch detected := http.DetectContentType(image); detected {
	case "image/png", "image/webp", "image/gif":
		return detected
	default:
		return "image/jpeg"
	}
}
