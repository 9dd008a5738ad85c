package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/voicenotes/internal/errs"
	"github.com/and161185/voicenotes/internal/model"
)

var envelopes = map[string]func(string) string{
	"bare":      func(s string) string { return s },
	"enveloped": func(s string) string { return `{"data":` + s + `}` },
}

func TestNotes_EnvelopeTolerance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	note := `{"id":"n1","title":"T","content":"C","user_id":"u1","transcript_id":"t1"}`
	want := model.Note{ID: "n1", Title: "T", Content: "C", UserID: "u1", TranscriptID: "t1"}

	for name, wrap := range envelopes {
		t.Run(name, func(t *testing.T) {
			api := newFakeAPI().
				on(http.MethodGet, "/notes/n1", 200, wrap(note)).
				on(http.MethodPut, "/notes/n1", 200, wrap(note)).
				on(http.MethodGet, "/notes/transcript/t1", 200, wrap(note)).
				on(http.MethodPost, "/notes/n1/generate-questions", 200, wrap(`["Why?","When?"]`))
			s := NewNotesService(api, nil)

			n, err := s.GetNote(ctx, "n1")
			require.NoError(t, err)
			require.Equal(t, want, *n)

			title := "T"
			n, err = s.UpdateNote(ctx, "n1", model.NoteUpdate{Title: &title})
			require.NoError(t, err)
			require.Equal(t, want, *n)
			require.JSONEq(t, `{"title":"T"}`, string(api.sent(http.MethodPut, "/notes/n1")))

			n, err = s.GetNoteByTranscriptID(ctx, "t1")
			require.NoError(t, err)
			require.Equal(t, want, *n)

			qs, err := s.GenerateQuestions(ctx, "n1")
			require.NoError(t, err)
			require.Equal(t, []string{"Why?", "When?"}, qs)
		})
	}
}

func TestGetNoteByTranscriptID_NotFoundIsNil(t *testing.T) {
	t.Parallel()
	api := newFakeAPI().on(http.MethodGet, "/notes/transcript/t9", 404, `{"error":"note not found"}`)
	n, err := NewNotesService(api, nil).GetNoteByTranscriptID(context.Background(), "t9")
	require.NoError(t, err)
	require.Nil(t, n)
}

func TestGetNoteByTranscriptID_OtherFailuresPropagate(t *testing.T) {
	t.Parallel()
	api := newFakeAPI().on(http.MethodGet, "/notes/transcript/t1", 500, ``)
	_, err := NewNotesService(api, nil).GetNoteByTranscriptID(context.Background(), "t1")
	require.EqualError(t, err, "failed to fetch note (HTTP 500)")
}

func TestNotes_Failures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	api := newFakeAPI().
		on(http.MethodGet, "/notes/n1", 404, `{"error":"note not found"}`).
		on(http.MethodPost, "/notes/n1/generate-questions", 502, ``).
		on(http.MethodPost, "/notes/n1/update-with-answer", 400, `{"error":"answer required"}`)
	s := NewNotesService(api, nil)

	_, err := s.GetNote(ctx, "n1")
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = s.GenerateQuestions(ctx, "n1")
	require.EqualError(t, err, "failed to generate questions (HTTP 502)")

	err = s.UpdateWithAnswer(ctx, "n1", "Why?", "")
	require.EqualError(t, err, "answer required (HTTP 400)")
}

func TestUpdateWithAnswer_SendsPair(t *testing.T) {
	t.Parallel()
	api := newFakeAPI().on(http.MethodPost, "/notes/n1/update-with-answer", 200, `{"message":"updated"}`)
	require.NoError(t, NewNotesService(api, nil).UpdateWithAnswer(context.Background(), "n1", "Why?", "Because."))
	require.JSONEq(t, `{"question":"Why?","answer":"Because."}`, string(api.sent(http.MethodPost, "/notes/n1/update-with-answer")))
}

func TestNotes_PathEscaping(t *testing.T) {
	t.Parallel()
	api := newFakeAPI().on(http.MethodGet, "/notes/a%2Fb", 200, `{"id":"a/b"}`)
	n, err := NewNotesService(api, nil).GetNote(context.Background(), "a/b")
	require.NoError(t, err)
	require.Equal(t, "a/b", n.ID)
}
