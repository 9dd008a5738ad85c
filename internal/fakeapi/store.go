package fakeapi

import (
	"sort"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/voicenotes/internal/errs"
	"github.com/and161185/voicenotes/internal/model"
)

type account struct {
	user model.User
	hash []byte
}

// store is the in-memory state behind the server. All methods return copies.
type store struct {
	mu sync.RWMutex

	users   map[uuid.UUID]*account
	byEmail map[string]uuid.UUID
	refresh map[string]uuid.UUID

	transcripts map[string]*model.Transcript
	notes       map[string]*model.Note
}

func newStore() *store {
	return &store{
		users:       map[uuid.UUID]*account{},
		byEmail:     map[string]uuid.UUID{},
		refresh:     map[string]uuid.UUID{},
		transcripts: map[string]*model.Transcript{},
		notes:       map[string]*model.Note{},
	}
}

func (s *store) createUser(a *account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[a.user.Email]; exists {
		return errs.ErrConflict
	}
	id := uuid.FromStringOrNil(a.user.ID)
	cpy := *a
	s.users[id] = &cpy
	s.byEmail[a.user.Email] = id
	return nil
}

func (s *store) userByEmail(email string) (*account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *s.users[id]
	return &cpy, nil
}

func (s *store) userByID(id uuid.UUID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	u := a.user
	return &u, nil
}

func (s *store) updateUser(id uuid.UUID, fn func(u *model.User)) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	fn(&a.user)
	u := a.user
	return &u, nil
}

func (s *store) putRefresh(token string, userID uuid.UUID) {
	s.mu.Lock()
	s.refresh[token] = userID
	s.mu.Unlock()
}

// takeRefresh consumes a refresh token; each one is single-use.
func (s *store) takeRefresh(token string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.refresh[token]
	if ok {
		delete(s.refresh, token)
	}
	return id, ok
}

func (s *store) listTranscripts(userID string) []model.Transcript {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Transcript, 0)
	for _, t := range s.transcripts {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *store) putTranscript(t model.Transcript) {
	s.mu.Lock()
	s.transcripts[t.ID] = &t
	s.mu.Unlock()
}

func (s *store) transcript(userID, id string) (*model.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transcripts[id]
	if !ok || t.UserID != userID {
		return nil, errs.ErrNotFound
	}
	cpy := *t
	if t.NoteID != "" {
		if n, ok := s.notes[t.NoteID]; ok {
			nc := *n
			cpy.Note = &nc
		}
	}
	return &cpy, nil
}

func (s *store) updateTranscript(userID, id string, fn func(t *model.Transcript)) (*model.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcripts[id]
	if !ok || t.UserID != userID {
		return nil, errs.ErrNotFound
	}
	fn(t)
	cpy := *t
	return &cpy, nil
}

// deleteTranscript removes the transcript and its note.
func (s *store) deleteTranscript(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcripts[id]
	if !ok || t.UserID != userID {
		return errs.ErrNotFound
	}
	if t.NoteID != "" {
		delete(s.notes, t.NoteID)
	}
	delete(s.transcripts, id)
	return nil
}

// attachNote stores n and links it to its transcript, replacing any previous note.
func (s *store) attachNote(n model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcripts[n.TranscriptID]
	if !ok || t.UserID != n.UserID {
		return errs.ErrNotFound
	}
	if t.NoteID != "" && t.NoteID != n.ID {
		delete(s.notes, t.NoteID)
	}
	t.NoteID = n.ID
	s.notes[n.ID] = &n
	return nil
}

func (s *store) note(userID, id string) (*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return nil, errs.ErrNotFound
	}
	cpy := *n
	return &cpy, nil
}

func (s *store) noteByTranscript(userID, transcriptID string) (*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transcripts[transcriptID]
	if !ok || t.UserID != userID || t.NoteID == "" {
		return nil, errs.ErrNotFound
	}
	n, ok := s.notes[t.NoteID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *n
	return &cpy, nil
}

func (s *store) updateNote(userID, id string, fn func(n *model.Note)) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return nil, errs.ErrNotFound
	}
	fn(n)
	cpy := *n
	return &cpy, nil
}
