package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/voicenotes/internal/model"
)

func (c *cli) transcriptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transcripts",
		Aliases: []string{"tr"},
		Short:   "Manage transcripts",
	}

	var noCache bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List transcripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ts, err := c.app.Transcripts.GetTranscripts(cmd.Context(), !noCache)
			if err != nil {
				return err
			}
			printJSON(c.out, ts)
			return nil
		},
	}
	list.Flags().BoolVar(&noCache, "no-cache", false, "bypass the local cache")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.app.Transcripts.GetTranscript(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printJSON(c.out, t)
			return nil
		},
	}

	var title, file string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a transcript from a file (- for stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := model.TranscriptCreate{Title: title}
			if file != "" {
				b, err := readAll(c.in, file)
				if err != nil {
					return err
				}
				in.Content = string(b)
			}
			t, err := c.app.Transcripts.CreateTranscript(cmd.Context(), in)
			if err != nil {
				return err
			}
			printJSON(c.out, t)
			return nil
		},
	}
	create.Flags().StringVarP(&title, "title", "t", "", "title")
	create.Flags().StringVarP(&file, "file", "f", "", "content file, - for stdin")

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change the title or content of a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in model.TranscriptUpdate
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
			t, err := c.app.Transcripts.UpdateTranscript(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			printJSON(c.out, t)
			return nil
		},
	}
	update.Flags().StringVarP(&title, "title", "t", "", "new title")
	update.Flags().StringVarP(&file, "file", "f", "", "new content file, - for stdin")

	del := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a transcript",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Transcripts.DeleteTranscript(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "deleted")
			return nil
		},
	}

	gen := &cobra.Command{
		Use:   "generate-note ID",
		Short: "Generate a note from a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.app.Transcripts.GenerateNote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printJSON(c.out, n)
			return nil
		},
	}

	clearCache := &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop the locally cached transcript list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Transcripts.ClearCache(cmd.Context())
		},
	}

	cmd.AddCommand(list, get, create, update, del, gen, clearCache)
	return cmd
}
