package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/and161185/voicenotes/internal/errs"
	"github.com/and161185/voicenotes/internal/model"
)

// NotesService defines note retrieval, editing and AI-assisted refinement.
type NotesService interface {
	GetNote(ctx context.Context, id string) (*model.Note, error)
	UpdateNote(ctx context.Context, id string, in model.NoteUpdate) (*model.Note, error)
	// GetNoteByTranscriptID returns nil, nil when the transcript has no note.
	GetNoteByTranscriptID(ctx context.Context, transcriptID string) (*model.Note, error)
	GenerateQuestions(ctx context.Context, id string) ([]string, error)
	UpdateWithAnswer(ctx context.Context, id, question, answer string) error
}

type NotesServiceImpl struct {
	api API
	log *zap.Logger
}

// NewNotesService constructs NotesService.
func NewNotesService(api API, log *zap.Logger) *NotesServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotesServiceImpl{api: api, log: log}
}

func notePath(id string) string { return "/notes/" + url.PathEscape(id) }

// GetNote fetches one note.
func (s *NotesServiceImpl) GetNote(ctx context.Context, id string) (*model.Note, error) {
	n, err := fetch[model.Note](ctx, s.api, http.MethodGet, notePath(id), nil, "failed to fetch note")
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// UpdateNote applies a partial update.
func (s *NotesServiceImpl) UpdateNote(ctx context.Context, id string, in model.NoteUpdate) (*model.Note, error) {
	n, err := fetch[model.Note](ctx, s.api, http.MethodPut, notePath(id), in, "failed to update note")
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNoteByTranscriptID tolerates only "not found"; other failures propagate.
func (s *NotesServiceImpl) GetNoteByTranscriptID(ctx context.Context, transcriptID string) (*model.Note, error) {
	n, err := fetch[model.Note](ctx, s.api, http.MethodGet, "/notes/transcript/"+url.PathEscape(transcriptID), nil, "failed to fetch note")
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			s.log.Debug("no note for transcript", zap.String("transcript_id", transcriptID))
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// GenerateQuestions asks the backend for clarifying questions about a note.
func (s *NotesServiceImpl) GenerateQuestions(ctx context.Context, id string) ([]string, error) {
	qs, err := fetch[[]string](ctx, s.api, http.MethodPost, notePath(id)+"/generate-questions", nil, "failed to generate questions")
	if err != nil {
		return nil, err
	}
	if qs == nil {
		qs = []string{}
	}
	return qs, nil
}

// UpdateWithAnswer folds a question/answer pair into the note.
func (s *NotesServiceImpl) UpdateWithAnswer(ctx context.Context, id, question, answer string) error {
	return exec(ctx, s.api, http.MethodPost, notePath(id)+"/update-with-answer",
		model.Answer{Question: question, Answer: answer}, "failed to update note with answer")
}
