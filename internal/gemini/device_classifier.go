package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	"gitlab.com/yelinaung/repair-ledger/internal/models"
	"google.golang.org/genai"
)

// ErrNotIdentified means the photo did not yield a brand or model.
var ErrNotIdentified = errors.New("could not identify device")

// ErrTimeout indicates the Gemini API call timed out.
var ErrTimeout = errors.New("device identification timed out")

const devicePrompt = "Identify the mobile phone in this image. " +
	"Return a JSON object with keys: 'brand' (e.g. Samsung, Apple), " +
	"'model' (e.g. iPhone 13, S24 Ultra), and 'color'. " +
	"If unsure, make a best guess. Do NOT use Markdown. JSON only."

// DeviceGuess is a best-effort identification. Any field may be empty, but
// a guess returned without error has a brand or a model.
type DeviceGuess struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Color string `json:"color"`
}

// ApplyTo copies the non-empty guessed fields onto a draft device. The draft
// is not persisted; the caller decides whether to save it.
func (g DeviceGuess) ApplyTo(d *models.Device) {
	if g.Brand != "" {
		d.Brand = g.Brand
	}
	if g.Model != "" {
		d.Model = g.Model
	}
	if g.Color != "" {
		d.Color = g.Color
	}
}

// DeviceClassifier is implemented by Client. Callers depend on it so tests
// can substitute a fake.
type DeviceClassifier interface {
	ClassifyDevice(ctx context.Context, image []byte, mimeType string) (DeviceGuess, error)
}

var _ DeviceClassifier = (*Client)(nil)

// ClassifyDevice asks Gemini to identify the phone in image. The call is
// made once, without retries, under the client timeout. Every failure other
// than a timeout is reported as ErrNotIdentified.
func (c *Client) ClassifyDevice(ctx context.Context, image []byte, mimeType string) (DeviceGuess, error) {
	if c.generator == nil {
		return DeviceGuess{}, ErrNotConfigured
	}
	if len(image) == 0 {
		return DeviceGuess{}, fmt.Errorf("%w: image data is required", ErrNotIdentified)
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.generator.GenerateContent(timeoutCtx, c.model, []*genai.Content{
		{
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
				{Text: devicePrompt},
			},
		},
	}, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return DeviceGuess{}, ErrTimeout
		}
		logger.Log.Warn().Err(err).Int("image_bytes", len(image)).Msg("Device classification failed")
		return DeviceGuess{}, fmt.Errorf("%w: %w", ErrNotIdentified, err)
	}

	text := responseText(resp)
	if text == "" {
		return DeviceGuess{}, fmt.Errorf("%w: empty response", ErrNotIdentified)
	}

	guess, err := parseDeviceResponse(text)
	if err != nil {
		logger.Log.Debug().Str("response", logger.SanitizeText(text)).Msg("Unparsable classifier response")
		return DeviceGuess{}, fmt.Errorf("%w: %w", ErrNotIdentified, err)
	}
	if guess.Brand == "" && guess.Model == "" {
		return DeviceGuess{}, ErrNotIdentified
	}

	logger.Log.Debug().Str("brand", guess.Brand).Str("model", guess.Model).Msg("Device identified")
	return guess, nil
}

func parseDeviceResponse(response string) (DeviceGuess, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var g DeviceGuess
	if err := json.Unmarshal([]byte(response), &g); err != nil {
		return DeviceGuess{}, fmt.Errorf("failed to parse device response: %w", err)
	}
	g.Brand = strings.TrimSpace(g.Brand)
	g.Model = strings.TrimSpace(g.Model)
	g.Color = strings.TrimSpace(g.Color)
	return g, nil
}
