// Package services – TranslationService
//
// This file implements the TranslationService, which coordinates the
// external translation engine with the history store: it validates and
// normalizes the request, obtains the translation, and — for authenticated
// callers — records the result as a history entry. An optional replay key
// makes retried requests return the originally recorded entry instead of
// paying for a second engine call.
//
// Observability: Translate is OpenTelemetry-instrumented; spans carry the
// username and target language.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/language"

	"github.com/tbourn/go-translator-backend/internal/domain"
	"github.com/tbourn/go-translator-backend/internal/repo"
)

// Translator is the external translation engine consumed by this service.
// Implementations must be safe for concurrent use.
type Translator interface {
	// Translate detects the language of text and renders it in target.
	Translate(ctx context.Context, text, target string) (string, error)
}

// TranslationResult is the outcome of a Translate call. EntryID is empty for
// unauthenticated requests (nothing was recorded); Replayed marks results
// served from a previously recorded entry.
type TranslationResult struct {
	Translation string `json:"translation"`
	TargetLang  string `json:"target_lang"`
	EntryID     string `json:"history_id,omitempty"`
	Replayed    bool   `json:"replayed,omitempty"`
}

// TranslationService validates requests, calls the engine, and records
// history for authenticated users.
type TranslationService struct {
	DB         *gorm.DB
	Translator Translator
	History    *HistoryService

	// DefaultTarget is used when the request names no target language.
	DefaultTarget string
	// MaxTextRunes caps accepted input length; 0 disables the check.
	MaxTextRunes int
	// ReplayTTL bounds how long a replay key stays answerable.
	ReplayTTL time.Duration
}

// Translate runs the full translation flow for one request. username may be
// empty (no history is recorded then); replayKey is an optional
// client-chosen retry token, only honored for authenticated requests.
func (s *TranslationService) Translate(ctx context.Context, username, text, target, replayKey string) (*TranslationResult, error) {
	tr := otel.Tracer("services/TranslationService")
	ctx, span := tr.Start(ctx, "Translate",
		trace.WithAttributes(
			attribute.String("user.name", username),
			attribute.String("translate.target", target),
		),
	)
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if s.MaxTextRunes > 0 && utf8.RuneCountInString(text) > s.MaxTextRunes {
		return nil, ErrTextTooLong
	}
	target = s.normalizeTarget(target)

	// Serve a recorded entry when the client is retrying.
	if username != "" && replayKey != "" {
		if res, ok := s.lookupReplay(ctx, username, replayKey); ok {
			return res, nil
		}
	}

	translated, err := s.Translator.Translate(ctx, text, target)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}

	res := &TranslationResult{Translation: translated, TargetLang: target}
	if username == "" {
		return res, nil
	}

	entry := &domain.HistoryEntry{
		OriginalText:   text,
		TranslatedText: translated,
		TargetLang:     target,
	}
	if err := s.History.Append(ctx, username, entry); err != nil {
		return nil, err
	}
	res.EntryID = entry.ID

	if replayKey != "" {
		// Losing a create race just means the concurrent twin recorded first.
		if _, err := repo.CreateReplayKey(ctx, s.DB, username, replayKey, entry.ID, s.replayTTL()); err != nil &&
			!errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("record replay key: %w", err)
		}
	}
	return res, nil
}

// lookupReplay resolves replayKey to its recorded entry. A key whose entry
// has since been evicted from the bounded history falls through to a fresh
// translation.
func (s *TranslationService) lookupReplay(ctx context.Context, username, key string) (*TranslationResult, bool) {
	rec, err := repo.GetReplayKey(ctx, s.DB, username, key, time.Now().UTC())
	if err != nil {
		return nil, false
	}
	e, err := s.History.Get(ctx, rec.EntryID)
	if err != nil {
		return nil, false
	}
	return &TranslationResult{
		Translation: e.TranslatedText,
		TargetLang:  e.TargetLang,
		EntryID:     e.ID,
		Replayed:    true,
	}, true
}

// normalizeTarget lowercases free-form language names ("darija") and
// canonicalizes anything parseable as a BCP 47 tag ("PT-br" -> "pt-BR").
// An empty target falls back to the configured default.
func (s *TranslationService) normalizeTarget(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return s.DefaultTarget
	}
	if tag, err := language.Parse(target); err == nil {
		return tag.String()
	}
	return strings.ToLower(target)
}

func (s *TranslationService) replayTTL() time.Duration {
	if s.ReplayTTL > 0 {
		return s.ReplayTTL
	}
	return 24 * time.Hour
}
