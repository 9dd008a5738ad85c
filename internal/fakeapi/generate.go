package fakeapi

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	maxNotePoints = 5
	maxQuestions  = 3
)

// sentences splits text on terminal punctuation and line breaks.
func sentences(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		s := strings.TrimSpace(b.String())
		if s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			b.WriteRune(r)
			flush()
		case '\n':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}

// noteFromTranscript derives a note deterministically: a title and a bullet
// list of the leading sentences.
func noteFromTranscript(title, content string) (string, string) {
	noteTitle := strings.TrimSpace(title)
	if noteTitle == "" {
		noteTitle = "Untitled"
	}
	noteTitle = "Notes: " + noteTitle

	ss := sentences(content)
	if len(ss) == 0 {
		return noteTitle, "- (empty transcript)"
	}
	if len(ss) > maxNotePoints {
		ss = ss[:maxNotePoints]
	}
	lines := make([]string, len(ss))
	for i, s := range ss {
		lines[i] = "- " + s
	}
	return noteTitle, strings.Join(lines, "\n")
}

// questionsFor asks about the first few points of a note.
func questionsFor(content string) []string {
	var qs []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		if line == "" || strings.HasPrefix(line, "Q:") || strings.HasPrefix(line, "A:") {
			continue
		}
		topic := strings.TrimRightFunc(firstWords(line, 6), unicode.IsPunct)
		qs = append(qs, fmt.Sprintf("Can you expand on %q?", topic))
		if len(qs) == maxQuestions {
			break
		}
	}
	if len(qs) == 0 {
		qs = []string{"What is this note about?"}
	}
	return qs
}

func firstWords(s string, n int) string {
	f := strings.Fields(s)
	if len(f) > n {
		f = f[:n]
	}
	return strings.Join(f, " ")
}

func appendAnswer(content, question, answer string) string {
	return strings.TrimRight(content, "\n") + fmt.Sprintf("\n\nQ: %s\nA: %s", question, answer)
}
