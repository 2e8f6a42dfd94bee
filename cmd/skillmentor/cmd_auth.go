package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"skillmentor/internal/domain"
)

// 密码可走环境变量，避免出现在 shell 历史里
const passwordEnv = "SKILLMENTOR_PASSWORD"

func passwordOr(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(passwordEnv)
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !c.app.Session.Login(cmd.Context(), email, passwordOr(password)) {
				return errors.New(c.app.Session.Err())
			}
			return c.printUser()
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (or $"+passwordEnv+")")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var in domain.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a student account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Password = passwordOr(in.Password)
			if !c.app.Session.Register(cmd.Context(), in) {
				return errors.New(c.app.Session.Err())
			}
			return c.printUser()
		},
	}
	cmd.Flags().StringVarP(&in.Name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "password (or $"+passwordEnv+")")
	cmd.Flags().StringVar(&in.ContactNo, "contact", "", "contact number")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Session.Logout(cmd.Context())
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current account",
		RunE: func(*cobra.Command, []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			return c.printUser()
		},
	}
}

func (c *cli) printUser() error {
	u := c.app.Session.User()
	if u == nil {
		return errors.New("not logged in")
	}
	if c.asJSON {
		return c.printJSON(u)
	}
	fmt.Fprintf(c.out, "%s <%s> role=%s active=%t\n", u.Name, u.Email, u.Role, u.IsActive)
	if p := u.Profile; p != nil {
		printField(c.out, "contact", p.ContactNo)
		printField(c.out, "university", p.University)
		printField(c.out, "degree", p.Degree)
		printField(c.out, "major", p.Major)
		printField(c.out, "skills", strings.Join(p.Skills, ", "))
		printField(c.out, "interests", strings.Join(p.AreasOfInterest, ", "))
	}
	return nil
}

func printField(w io.Writer, k, v string) {
	if v != "" {
		fmt.Fprintf(w, "  %-11s %s\n", k+":", v)
	}
}

var profileFlags = []string{"contact", "father", "mother", "education", "university", "degree", "major", "year", "skills", "interests"}

func (c *cli) profileCmd() *cobra.Command {
	var (
		name string
		p    domain.Profile
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your name or profile fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			var in domain.ProfileUpdate
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			for _, k := range profileFlags {
				if cmd.Flags().Changed(k) {
					in.Profile = &p
					break
				}
			}
			if err := c.app.Session.UpdateProfile(cmd.Context(), in); err != nil {
				return fail(err)
			}
			return c.printUser()
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "display name")
	f.StringVar(&p.ContactNo, "contact", "", "contact number")
	f.StringVar(&p.FatherName, "father", "", "father's name")
	f.StringVar(&p.MotherName, "mother", "", "mother's name")
	f.StringVar(&p.Education, "education", "", "education level")
	f.StringVar(&p.University, "university", "", "university")
	f.StringVar(&p.Degree, "degree", "", "degree")
	f.StringVar(&p.Major, "major", "", "major")
	f.StringVar(&p.YearOfCompletion, "year", "", "year of completion")
	f.StringSliceVar(&p.Skills, "skills", nil, "comma separated skills")
	f.StringSliceVar(&p.AreasOfInterest, "interests", nil, "comma separated areas of interest")
	return cmd
}

func (c *cli) passwordCmd() *cobra.Command {
	var in domain.PasswordChange
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			if err := domain.Validate(in); err != nil {
				return err
			}
			res, err := c.app.Remote.Auth.UpdatePassword(cmd.Context(), in)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintln(c.out, res.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.CurrentPassword, "current", "", "current password")
	cmd.Flags().StringVar(&in.NewPassword, "new", "", "new password")
	return cmd
}
