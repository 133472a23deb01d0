package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/repair-ledger/internal/models"
	"google.golang.org/genai"
)

func TestClassifyDevice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		gen     *mockGenerator
		want    DeviceGuess
		wantErr error
	}{
		{
			name: "full guess",
			gen:  &mockGenerator{response: textResponse(`{"brand":"Samsung","model":"Galaxy A54","color":"Black"}`)},
			want: DeviceGuess{Brand: "Samsung", Model: "Galaxy A54", Color: "Black"},
		},
		{
			name: "markdown fence is stripped",
			gen:  &mockGenerator{response: textResponse("```json\n{\"brand\":\"Apple\",\"model\":\"iPhone 13\"}\n```")},
			want: DeviceGuess{Brand: "Apple", Model: "iPhone 13"},
		},
		{
			name: "model only is enough",
			gen:  &mockGenerator{response: textResponse(`{"model":" S24 Ultra "}`)},
			want: DeviceGuess{Model: "S24 Ultra"},
		},
		{
			name:    "colour only is not identified",
			gen:     &mockGenerator{response: textResponse(`{"color":"Blue"}`)},
			wantErr: ErrNotIdentified,
		},
		{
			name:    "prose answer",
			gen:     &mockGenerator{response: textResponse("I think this is an iPhone.")},
			wantErr: ErrNotIdentified,
		},
		{
			name:    "no candidates",
			gen:     &mockGenerator{response: &genai.GenerateContentResponse{}},
			wantErr: ErrNotIdentified,
		},
		{
			name:    "api error",
			gen:     &mockGenerator{err: errors.New("quota exceeded")},
			wantErr: ErrNotIdentified,
		},
		{
			name:    "deadline",
			gen:     &mockGenerator{err: context.DeadlineExceeded},
			wantErr: ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := NewClientWithGenerator(tt.gen)
			got, err := client.ClassifyDevice(context.Background(), []byte("fake-jpeg"), "")
			require.Equal(t, 1, tt.gen.calls, "called exactly once")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, DeviceGuess{}, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyDevice_Request(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{response: textResponse(`{"brand":"Oppo"}`)}
	client := NewClientWithGenerator(gen, WithModel("gemini-test"), WithTimeout(5*time.Second))

	before := time.Now()
	_, err := client.ClassifyDevice(context.Background(), []byte{0xFF, 0xD8}, "image/png")
	require.NoError(t, err)

	require.Equal(t, "gemini-test", gen.model)
	require.Len(t, gen.contents, 1)
	parts := gen.contents[0].Parts
	require.Len(t, parts, 2)
	require.Equal(t, "image/png", parts[0].InlineData.MIMEType)
	require.Equal(t, []byte{0xFF, 0xD8}, parts[0].InlineData.Data)
	require.Contains(t, parts[1].Text, "JSON only")
	require.WithinDuration(t, before.Add(5*time.Second), gen.deadline, time.Second)
}

func TestClassifyDevice_InputErrors(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{}
	client := NewClientWithGenerator(gen)

	_, err := client.ClassifyDevice(context.Background(), nil, "image/jpeg")
	require.ErrorIs(t, err, ErrNotIdentified)
	require.Zero(t, gen.calls)

	_, err = (&Client{}).ClassifyDevice(context.Background(), []byte("x"), "")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestDeviceGuess_ApplyTo(t *testing.T) {
	t.Parallel()

	draft := models.Device{ClientID: "C1", Brand: "Unknown", Color: "Red"}
	DeviceGuess{Brand: "Samsung", Model: "Galaxy A54"}.ApplyTo(&draft)

	require.Equal(t, "C1", draft.ClientID)
	require.Equal(t, "Samsung", draft.Brand)
	require.Equal(t, "Galaxy A54", draft.Model)
	require.Equal(t, "Red", draft.Color, "empty guess fields keep the draft value")
	require.Empty(t, draft.ID, "draft stays unsaved")
}

func FuzzParseDeviceResponse(f *testing.F) {
	f.Add(`{"brand":"Apple","model":"iPhone 13","color":"Blue"}`)
	f.Add("```json\n{}\n```")
	f.Add(`[]`)
	f.Add(`not json`)
	f.Add(``)

	f.Fuzz(func(t *testing.T, input string) {
		g, err := parseDeviceResponse(input)
		if err != nil && g != (DeviceGuess{}) {
			t.Errorf("parseDeviceResponse(%q) returned a guess with error", input)
		}
	})
}
