// Package fakeapi is an in-memory implementation of the notes backend REST
// contract, used by the development server and end-to-end tests.
package fakeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/and161185/voicenotes/internal/errs"
	"github.com/and161185/voicenotes/internal/limiter"
	"github.com/and161185/voicenotes/internal/model"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxBodyBytes     = 1 << 20
)

// Options configures a Server.
type Options struct {
	SignKey   []byte
	AccessTTL time.Duration
	// Envelope wraps every success body as {"data": ...}; otherwise bodies are bare.
	Envelope bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// MaxLoginFails within LoginWindow blocks an account for LoginBlock.
	MaxLoginFails int
	LoginWindow   time.Duration
	LoginBlock    time.Duration
	Logger        *zap.Logger
	// Now overrides the clock.
	Now func() time.Time
}

// Server serves the REST contract from memory.
type Server struct {
	opts  Options
	store *store
	auth  *auth
	log   *zap.Logger
	now   func() time.Time
}

// New constructs a Server with defaults filled in.
func New(opts Options) *Server {
	if len(opts.SignKey) == 0 {
		opts.SignKey = []byte("dev-secret-change-me")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.MaxLoginFails == 0 {
		opts.MaxLoginFails = 5
	}
	if opts.LoginWindow <= 0 {
		opts.LoginWindow = 15 * time.Minute
	}
	if opts.LoginBlock <= 0 {
		opts.LoginBlock = 15 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	st := newStore()
	lock := limiter.NewLockout(opts.LoginWindow, opts.MaxLoginFails, opts.LoginBlock)
	return &Server{
		opts:  opts,
		store: st,
		auth: &auth{
			store:     st,
			signKey:   opts.SignKey,
			accessTTL: opts.AccessTTL,
			cost:      opts.BcryptCost,
			lock:      lock,
			now:       opts.Now,
		},
		log: opts.Logger,
		now: opts.Now,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(s.log), logging(s.log))

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/users/profile", s.handleGetProfile)
		r.Put("/users/profile", s.handleUpdateProfile)

		r.Get("/transcripts/", s.handleListTranscripts)
		r.Post("/transcripts/", s.handleCreateTranscript)
		r.Get("/transcripts/{id}", s.handleGetTranscript)
		r.Put("/transcripts/{id}", s.handleUpdateTranscript)
		r.Delete("/transcripts/{id}", s.handleDeleteTranscript)
		r.Post("/transcripts/{id}/generate-note", s.handleGenerateNote)

		r.Get("/notes/transcript/{id}", s.handleNoteByTranscript)
		r.Get("/notes/{id}", s.handleGetNote)
		r.Put("/notes/{id}", s.handleUpdateNote)
		r.Post("/notes/{id}/generate-questions", s.handleGenerateQuestions)
		r.Post("/notes/{id}/update-with-answer", s.handleUpdateWithAnswer)
	})
	return r
}

// ---- responses ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) respond(w http.ResponseWriter, status int, v any, message string) {
	if !s.opts.Envelope {
		writeJSON(w, status, v)
		return
	}
	body := map[string]any{"data": v}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}

// fail maps domain errors onto statuses.
func (s *Server) fail(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, errValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, fallback)
	case errors.Is(err, errs.ErrConflict):
		writeError(w, http.StatusConflict, fallback)
	case errors.Is(err, errs.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, fallback)
	case errors.Is(err, errRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func currentUser(r *http.Request) string {
	id, _ := userIDFromCtx(r.Context())
	return id.String()
}

// ---- auth ----

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := s.auth.register(req)
	if err != nil {
		s.fail(w, err, "email already registered")
		return
	}
	s.respond(w, http.StatusCreated, u, "registered")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := s.auth.login(req.Email, req.Password)
	if err != nil {
		s.fail(w, err, "invalid credentials")
		return
	}
	s.respond(w, http.StatusOK, t, "")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}
	t, err := s.auth.refresh(req.RefreshToken)
	if err != nil {
		s.fail(w, err, "invalid refresh token")
		return
	}
	s.respond(w, http.StatusOK, t, "")
}

// ---- profile ----

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFromCtx(r.Context())
	u, err := s.store.userByID(id)
	if err != nil {
		s.fail(w, err, "user not found")
		return
	}
	s.respond(w, http.StatusOK, u, "")
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p model.UserProfile
	if !decode(w, r, &p) {
		return
	}
	if err := p.Gender.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, _ := userIDFromCtx(r.Context())
	u, err := s.store.updateUser(id, func(u *model.User) {
		u.FirstName = p.FirstName
		u.LastName = p.LastName
		u.NickName = p.NickName
		u.Language = p.Language
		u.Gender = p.Gender
		u.UpdatedAt = s.now().UTC()
	})
	if err != nil {
		s.fail(w, err, "user not found")
		return
	}
	s.respond(w, http.StatusOK, u, "profile updated")
}

// ---- transcripts ----

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}

func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	all := s.store.listTranscripts(currentUser(r))
	if !s.opts.Envelope {
		s.respond(w, http.StatusOK, all, "")
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	from := (page - 1) * limit
	if from > len(all) {
		from = len(all)
	}
	to := from + limit
	if to > len(all) {
		to = len(all)
	}
	s.respond(w, http.StatusOK, model.Page[model.Transcript]{
		Data:       all[from:to],
		Total:      len(all),
		Page:       page,
		Limit:      limit,
		TotalPages: (len(all) + limit - 1) / limit,
	}, "")
}

func (s *Server) handleCreateTranscript(w http.ResponseWriter, r *http.Request) {
	var in model.TranscriptCreate
	if !decode(w, r, &in) {
		return
	}
	if in.Title == "" && in.Content == "" {
		writeError(w, http.StatusBadRequest, "title or content is required")
		return
	}
	id, err := uuid.NewV4()
	if err != nil {
		s.fail(w, err, "")
		return
	}
	now := s.now().UTC()
	t := model.Transcript{
		ID:        id.String(),
		Title:     in.Title,
		Content:   in.Content,
		UserID:    currentUser(r),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store.putTranscript(t)
	s.respond(w, http.StatusCreated, t, "transcript created")
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.transcript(currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, "transcript not found")
		return
	}
	s.respond(w, http.StatusOK, t, "")
}

func (s *Server) handleUpdateTranscript(w http.ResponseWriter, r *http.Request) {
	var in model.TranscriptUpdate
	if !decode(w, r, &in) {
		return
	}
	t, err := s.store.updateTranscript(currentUser(r), chi.URLParam(r, "id"), func(t *model.Transcript) {
		if in.Title != nil {
			t.Title = *in.Title
		}
		if in.Content != nil {
			t.Content = *in.Content
		}
		t.UpdatedAt = s.now().UTC()
	})
	if err != nil {
		s.fail(w, err, "transcript not found")
		return
	}
	s.respond(w, http.StatusOK, t, "transcript updated")
}

func (s *Server) handleDeleteTranscript(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteTranscript(currentUser(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err, "transcript not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerateNote(w http.ResponseWriter, r *http.Request) {
	uid := currentUser(r)
	t, err := s.store.transcript(uid, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, "transcript not found")
		return
	}

	nid := t.NoteID
	created := t.CreatedAt
	if nid == "" {
		id, err := uuid.NewV4()
		if err != nil {
			s.fail(w, err, "")
			return
		}
		nid = id.String()
		created = s.now().UTC()
	} else if t.Note != nil {
		created = t.Note.CreatedAt
	}

	title, content := noteFromTranscript(t.Title, t.Content)
	n := model.Note{
		ID:           nid,
		Title:        title,
		Content:      content,
		UserID:       uid,
		TranscriptID: t.ID,
		CreatedAt:    created,
		UpdatedAt:    s.now().UTC(),
	}
	if err := s.store.attachNote(n); err != nil {
		s.fail(w, err, "transcript not found")
		return
	}
	s.respond(w, http.StatusCreated, n, "note generated")
}

// ---- notes ----

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.note(currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, "note not found")
		return
	}
	s.respond(w, http.StatusOK, n, "")
}

func (s *Server) handleNoteByTranscript(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.noteByTranscript(currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, "note not found")
		return
	}
	s.respond(w, http.StatusOK, n, "")
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var in model.NoteUpdate
	if !decode(w, r, &in) {
		return
	}
	n, err := s.store.updateNote(currentUser(r), chi.URLParam(r, "id"), func(n *model.Note) {
		if in.Title != nil {
			n.Title = *in.Title
		}
		if in.Content != nil {
			n.Content = *in.Content
		}
		n.UpdatedAt = s.now().UTC()
	})
	if err != nil {
		s.fail(w, err, "note not found")
		return
	}
	s.respond(w, http.StatusOK, n, "note updated")
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.note(currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, "note not found")
		return
	}
	s.respond(w, http.StatusOK, questionsFor(n.Content), "")
}

func (s *Server) handleUpdateWithAnswer(w http.ResponseWriter, r *http.Request) {
	var in model.Answer
	if !decode(w, r, &in) {
		return
	}
	if in.Question == "" || in.Answer == "" {
		writeError(w, http.StatusBadRequest, "question and answer are required")
		return
	}
	n, err := s.store.updateNote(currentUser(r), chi.URLParam(r, "id"), func(n *model.Note) {
		n.Content = appendAnswer(n.Content, in.Question, in.Answer)
		n.UpdatedAt = s.now().UTC()
	})
	if err != nil {
		s.fail(w, err, "note not found")
		return
	}
	s.respond(w, http.StatusOK, n, "note updated")
}
