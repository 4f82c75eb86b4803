// Package speech provides the text-to-speech client, backed by the Google
// Cloud TTS REST API. Synthesized audio is returned base64-encoded (MP3) for
// direct embedding in JSON responses.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
)

// DefaultBaseURL is the Google Cloud text-to-speech synthesis endpoint.
const DefaultBaseURL = "https://texttospeech.googleapis.com/v1/text:synthesize"

// DefaultLanguageCode is used when no language can be determined.
// Arabic is the dominant language of the app's user base.
const DefaultLanguageCode = "ar-XA"

// Client synthesizes speech via a Google-TTS-compatible REST endpoint.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// New constructs a Client. An empty baseURL falls back to the default;
// a timeout <= 0 falls back to 30s.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, httpc: &http.Client{Timeout: timeout}}
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		SSMLGender   string `json:"ssmlGender"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Synthesize converts text to MP3 speech in the given language and returns
// the audio base64-encoded. An empty languageCode falls back to the default.
func (c *Client) Synthesize(ctx context.Context, text, languageCode string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text is empty")
	}
	if strings.TrimSpace(languageCode) == "" {
		languageCode = DefaultLanguageCode
	}

	var sr synthesizeRequest
	sr.Input.Text = text
	sr.Voice.LanguageCode = languageCode
	sr.Voice.SSMLGender = "NEUTRAL"
	sr.AudioConfig.AudioEncoding = "MP3"
	sr.AudioConfig.SpeakingRate = 1.0

	body, err := json.Marshal(sr)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := c.baseURL
	if c.apiKey != "" {
		url += "?key=" + c.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("call tts engine: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tts engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out synthesizeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("tts engine error: %s", out.Error.Message)
	}
	if out.AudioContent == "" {
		return "", fmt.Errorf("tts engine returned no audio")
	}
	return out.AudioContent, nil
}

// DetectLanguageCode guesses a TTS language code for text. The heuristic
// covers the languages the translator actually serves: Arabic script (which
// includes Darija) wins outright, then keyword checks for French, English,
// and Spanish. Unknown text falls back to the Arabic default.
func DetectLanguageCode(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultLanguageCode
	}
	if containsArabic(text) {
		return DefaultLanguageCode
	}

	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, frenchKeywords):
		return "fr-FR"
	case containsAny(lower, englishKeywords):
		return "en-US"
	case containsAny(lower, spanishKeywords):
		return "es-ES"
	}
	return DefaultLanguageCode
}

var (
	frenchKeywords  = []string{" le ", " la ", " les ", " un ", " une ", " est ", " avec ", "bonjour", "merci", "oui "}
	englishKeywords = []string{" the ", " is ", " are ", " and ", " you ", " with ", "hello", "thank", "yes "}
	spanishKeywords = []string{" el ", " los ", " es ", " una ", " con ", "hola", "gracias", " si "}
)

func containsArabic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) {
			return true
		}
	}
	return false
}

func containsAny(s string, words []string) bool {
	// Pad so word-boundary patterns can match at the edges.
	s = " " + s + " "
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
