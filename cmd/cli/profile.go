package main

import (
	"github.com/spf13/cobra"

	"github.com/and161185/voicenotes/internal/model"
)

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the user profile",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.app.Profile.GetUserProfile(cmd.Context())
			if err != nil {
				return err
			}
			printJSON(c.out, u)
			return nil
		},
	}

	var p model.UserProfile
	var gender string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; unspecified fields keep their values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.app.Profile.GetUserProfile(cmd.Context())
			if err != nil {
				return err
			}
			doc := u.Profile()
			f := cmd.Flags()
			if f.Changed("first-name") {
				doc.FirstName = p.FirstName
			}
			if f.Changed("last-name") {
				doc.LastName = p.LastName
			}
			if f.Changed("nick") {
				doc.NickName = p.NickName
			}
			if f.Changed("language") {
				doc.Language = p.Language
			}
			if f.Changed("gender") {
				g, err := model.ParseGender(gender)
				if err != nil {
					return err
				}
				doc.Gender = g
			}
			u, err = c.app.Profile.UpdateUserProfile(cmd.Context(), doc)
			if err != nil {
				return err
			}
			printJSON(c.out, u)
			return nil
		},
	}
	f := update.Flags()
	f.StringVar(&p.FirstName, "first-name", "", "first name")
	f.StringVar(&p.LastName, "last-name", "", "last name")
	f.StringVar(&p.NickName, "nick", "", "nickname")
	f.StringVar(&p.Language, "language", "", "preferred language")
	f.StringVar(&gender, "gender", "", "Male, Female or empty to unset")

	cmd.AddCommand(get, update)
	return cmd
}
