package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/voicenotes/internal/model"
)

func (c *cli) registerCmd() *cobra.Command {
	var (
		req    model.RegisterRequest
		gender string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := model.ParseGender(gender)
			if err != nil {
				return err
			}
			req.Gender = g
			res, err := c.app.Auth.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "registered and logged in as %s\n", res.Email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.Email, "email", "e", "", "account email")
	f.StringVarP(&req.Password, "password", "p", "", "account password")
	f.StringVar(&req.Name, "name", "", "display name")
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&req.NickName, "nick", "", "nickname")
	f.StringVar(&req.Language, "language", "", "preferred language")
	f.StringVar(&gender, "gender", "", "Male or Female")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "logged in as %s\n", res.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session and cached data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the locally stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !c.app.Auth.IsAuthenticated() {
				fmt.Fprintln(c.out, "not logged in")
				return nil
			}
			email, ok := c.app.Client.StoredEmail(cmd.Context())
			if !ok {
				email = "(unknown)"
			}
			fmt.Fprintf(c.out, "logged in as %s\n", email)
			if exp, ok := c.app.Session.ExpiresAt(); ok {
				fmt.Fprintf(c.out, "access token expires %s\n", exp.Local().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func (c *cli) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.app.Auth.RefreshTokens(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "tokens refreshed")
			return nil
		},
	}
}
