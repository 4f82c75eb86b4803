// Translation and speech HTTP handlers.
//
//   - POST /translate  (translate text, optionally recording history)
//   - POST /speech     (synthesize speech for a piece of text)
//
// A client retrying a translation may send an Idempotency-Key header; the
// recorded result is replayed instead of calling the engine again.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-translator-backend/internal/services"
	"github.com/tbourn/go-translator-backend/internal/speech"
)

// TranslationService is the translation flow consumed by HTTP handlers.
type TranslationService interface {
	// Translate renders text in the target language. username may be empty;
	// replayKey is an optional client retry token.
	Translate(ctx context.Context, username, text, target, replayKey string) (*services.TranslationResult, error)
}

// SpeechService synthesizes speech audio for text.
type SpeechService interface {
	// Synthesize returns base64-encoded MP3 audio for text in languageCode.
	Synthesize(ctx context.Context, text, languageCode string) (string, error)
}

// TranslateRequest is the JSON payload for a translation.
type TranslateRequest struct {
	// Text to translate.
	Text string `json:"text" binding:"required" example:"Hello, how are you?"`
	// Target language; free-form names and BCP 47 tags are both accepted.
	// Empty falls back to the server default.
	TargetLang string `json:"target_lang,omitempty" example:"darija"`
	// Username under which the result is recorded. Empty skips history.
	Username string `json:"username,omitempty" example:"alice"`
}

// SpeechRequest is the JSON payload for speech synthesis.
type SpeechRequest struct {
	Text string `json:"text" binding:"required" example:"مرحبا"`
	// BCP 47 voice code; empty triggers script/keyword detection.
	LanguageCode string `json:"language_code,omitempty" example:"ar-XA"`
}

// SpeechResponse carries the synthesized audio.
type SpeechResponse struct {
	// Base64-encoded MP3.
	AudioContent string `json:"audio_content"`
	LanguageCode string `json:"language_code"`
}

// Translate godoc
// @ID          translate
// @Summary     Translate text
// @Description Translates text into the target language. When a username is given the result is stored in that user's history; an Idempotency-Key header makes retries replay the recorded result.
// @Tags        Translate
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Client retry token"
// @Param       body  body  handlers.TranslateRequest  true  "Translation request"
// @Success     200  {object}  services.TranslationResult
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or oversized text"
// @Failure     502  {object}  handlers.ErrorResponse  "Translation engine failure"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /translate [post]
func (h *Handlers) Translate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text is required")
		return
	}

	replayKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	res, err := h.txSvc.Translate(c.Request.Context(),
		strings.TrimSpace(req.Username), req.Text, req.TargetLang, replayKey)
	switch {
	case errors.Is(err, services.ErrEmptyText):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text must not be empty")
	case errors.Is(err, services.ErrTextTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text exceeds the maximum length")
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeTranslateFailed, err.Error())
	default:
		ok(c, http.StatusOK, res)
	}
}

// Speak godoc
// @ID          speak
// @Summary     Synthesize speech
// @Description Converts text to MP3 audio (base64). The voice language is detected from the text when not given.
// @Tags        Translate
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.SpeechRequest  true  "Speech request"
// @Success     200  {object}  handlers.SpeechResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Speech engine failure"
// @Router      /speech [post]
func (h *Handlers) Speak(c *gin.Context) {
	var req SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text is required")
		return
	}

	lang := strings.TrimSpace(req.LanguageCode)
	if lang == "" {
		lang = speech.DetectLanguageCode(req.Text)
	}

	audio, err := h.speechSvc.Synthesize(c.Request.Context(), req.Text, lang)
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeSpeechFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SpeechResponse{AudioContent: audio, LanguageCode: lang})
}
