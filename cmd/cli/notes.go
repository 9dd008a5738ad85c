package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/voicenotes/internal/model"
)

func (c *cli) notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Read and refine notes",
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.app.Notes.GetNote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printJSON(c.out, n)
			return nil
		},
	}

	byTranscript := &cobra.Command{
		Use:   "by-transcript TRANSCRIPT_ID",
		Short: "Show the note generated from a transcript, if any",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.app.Notes.GetNoteByTranscriptID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if n == nil {
				fmt.Fprintln(c.out, "no note yet")
				return nil
			}
			printJSON(c.out, n)
			return nil
		},
	}

	var title, file string
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change the title or content of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in model.NoteUpdate
			if cmd.Flags().Changed("title") {
				in.Title = &title
			}
			if file != "" {
				b, err := readAll(c.in, file)
				if err != nil {
					return err
				}
				s := string(b)
				in.Content = &s
			}
			n, err := c.app.Notes.UpdateNote(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			printJSON(c.out, n)
			return nil
		},
	}
	update.Flags().StringVarP(&title, "title", "t", "", "new title")
	update.Flags().StringVarP(&file, "file", "f", "", "new content file, - for stdin")

	questions := &cobra.Command{
		Use:   "questions ID",
		Short: "Ask the backend for follow-up questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, err := c.app.Notes.GenerateQuestions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for i, q := range qs {
				fmt.Fprintf(c.out, "%d. %s\n", i+1, q)
			}
			return nil
		},
	}

	var question, answer string
	answerCmd := &cobra.Command{
		Use:   "answer ID",
		Short: "Fold an answer to a question into the note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Notes.UpdateWithAnswer(cmd.Context(), args[0], question, answer); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "note updated")
			return nil
		},
	}
	answerCmd.Flags().StringVarP(&question, "question", "q", "", "question being answered")
	answerCmd.Flags().StringVarP(&answer, "answer", "a", "", "answer text")
	_ = answerCmd.MarkFlagRequired("question")
	_ = answerCmd.MarkFlagRequired("answer")

	cmd.AddCommand(get, byTranscript, update, questions, answerCmd)
	return cmd
}
