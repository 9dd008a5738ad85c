package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/voicenotes/internal/errs"
	"github.com/and161185/voicenotes/internal/kv"
	"github.com/and161185/voicenotes/internal/model"
)

const (
	// TranscriptsCacheKey holds the cached transcripts collection.
	TranscriptsCacheKey = "transcripts_cache"
	// DefaultCacheTTL bounds the age of a cached collection.
	DefaultCacheTTL = 5 * time.Minute
)

// TranscriptsService defines transcript CRUD with a read-through collection cache.
type TranscriptsService interface {
	// GetTranscripts returns the collection, from cache when allowed and fresh.
	GetTranscripts(ctx context.Context, useCache bool) ([]model.Transcript, error)
	// GetTranscript always goes to the network.
	GetTranscript(ctx context.Context, id string) (*model.Transcript, error)
	// CreateTranscript creates a transcript and drops the cache.
	CreateTranscript(ctx context.Context, in model.TranscriptCreate) (*model.Transcript, error)
	// UpdateTranscript applies a partial update and drops the cache.
	UpdateTranscript(ctx context.Context, id string, in model.TranscriptUpdate) (*model.Transcript, error)
	// DeleteTranscript deletes a transcript and drops the cache.
	DeleteTranscript(ctx context.Context, id string) error
	// GenerateNote asks the backend to derive a note from a transcript.
	GenerateNote(ctx context.Context, transcriptID string) (*model.Note, error)
	// ClearCache drops the cached collection regardless of age.
	ClearCache(ctx context.Context) error
}

type TranscriptsServiceImpl struct {
	api   API
	store kv.Store
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

// NewTranscriptsService constructs TranscriptsService. A non-positive ttl means DefaultCacheTTL.
func NewTranscriptsService(api API, store kv.Store, ttl time.Duration, log *zap.Logger) *TranscriptsServiceImpl {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TranscriptsServiceImpl{api: api, store: store, ttl: ttl, log: log, now: time.Now}
}

// GetTranscripts fetches from the network unless useCache is set and the cache
// is fresh. A network fetch always overwrites the cache.
func (s *TranscriptsServiceImpl) GetTranscripts(ctx context.Context, useCache bool) ([]model.Transcript, error) {
	if useCache {
		if c, ok := s.cached(ctx); ok {
			return c.Data, nil
		}
	}

	const fallback = "failed to fetch transcripts"
	resp, err := s.api.Do(ctx, http.MethodGet, "/transcripts/", nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(fallback); err != nil {
		return nil, err
	}
	list, err := decodeList[model.Transcript](resp)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Transcript{}
	}
	s.storeCache(ctx, list)
	return list, nil
}

func (s *TranscriptsServiceImpl) cached(ctx context.Context) (model.CachedCollection[model.Transcript], bool) {
	var c model.CachedCollection[model.Transcript]
	raw, err := s.store.Get(ctx, TranscriptsCacheKey)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			s.log.Warn("failed to read transcripts cache", zap.Error(err))
		}
		return c, false
	}
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.log.Warn("failed to decode transcripts cache", zap.Error(err))
		return c, false
	}
	return c, c.Valid(s.now(), s.ttl)
}

func (s *TranscriptsServiceImpl) storeCache(ctx context.Context, list []model.Transcript) {
	b, err := json.Marshal(model.CachedCollection[model.Transcript]{Data: list, Timestamp: s.now().UnixMilli()})
	if err != nil {
		s.log.Warn("failed to encode transcripts cache", zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, TranscriptsCacheKey, string(b)); err != nil {
		s.log.Warn("failed to write transcripts cache", zap.Error(err))
	}
}

func (s *TranscriptsServiceImpl) invalidate(ctx context.Context) {
	if err := s.store.Remove(ctx, TranscriptsCacheKey); err != nil {
		s.log.Warn("failed to invalidate transcripts cache", zap.Error(err))
	}
}

// GetTranscript fetches one transcript.
func (s *TranscriptsServiceImpl) GetTranscript(ctx context.Context, id string) (*model.Transcript, error) {
	t, err := fetch[model.Transcript](ctx, s.api, http.MethodGet, "/transcripts/"+url.PathEscape(id), nil, "failed to fetch transcript")
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTranscript creates a transcript.
func (s *TranscriptsServiceImpl) CreateTranscript(ctx context.Context, in model.TranscriptCreate) (*model.Transcript, error) {
	t, err := fetch[model.Transcript](ctx, s.api, http.MethodPost, "/transcripts/", in, "failed to create transcript")
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &t, nil
}

// UpdateTranscript updates a transcript.
func (s *TranscriptsServiceImpl) UpdateTranscript(ctx context.Context, id string, in model.TranscriptUpdate) (*model.Transcript, error) {
	t, err := fetch[model.Transcript](ctx, s.api, http.MethodPut, "/transcripts/"+url.PathEscape(id), in, "failed to update transcript")
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &t, nil
}

// DeleteTranscript deletes a transcript.
func (s *TranscriptsServiceImpl) DeleteTranscript(ctx context.Context, id string) error {
	if err := exec(ctx, s.api, http.MethodDelete, "/transcripts/"+url.PathEscape(id), nil, "failed to delete transcript"); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// GenerateNote triggers note generation; the cache is untouched.
func (s *TranscriptsServiceImpl) GenerateNote(ctx context.Context, transcriptID string) (*model.Note, error) {
	s.log.Debug("generating note", zap.String("transcript_id", transcriptID))
	n, err := fetch[model.Note](ctx, s.api, http.MethodPost, "/transcripts/"+url.PathEscape(transcriptID)+"/generate-note", nil, "failed to generate note")
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ClearCache removes the cached collection.
func (s *TranscriptsServiceImpl) ClearCache(ctx context.Context) error {
	return s.store.Remove(ctx, TranscriptsCacheKey)
}
