package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"skillmentor/internal/domain"
)

func (c *cli) studentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Manage student accounts (admin)",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// 子命令的 PersistentPreRunE 会覆盖根命令的，手动接上
			if err := c.open(cmd); err != nil {
				return err
			}
			return c.requireAdmin()
		},
	}

	var q domain.UserQuery
	var role string
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q.Role = domain.Role(role)
			if err := c.app.Roster.List(cmd.Context(), q); err != nil {
				return fail(err)
			}
			snap := c.app.Roster.Snapshot()
			if err := c.printUsers(snap.Users); err != nil {
				return err
			}
			if !c.asJSON {
				fmt.Fprintf(c.out, "\npage %d/%d, %d total, %d active, %d inactive\n",
					snap.Pagination.Page, snap.Pagination.Pages, snap.Pagination.Total,
					c.app.Roster.ActiveCount(), c.app.Roster.InactiveCount())
			}
			return nil
		},
	}
	list.Flags().IntVar(&q.Page, "page", 1, "page number")
	list.Flags().IntVar(&q.Limit, "limit", 10, "page size")
	list.Flags().StringVarP(&q.Search, "search", "s", "", "name or email contains")
	list.Flags().StringVar(&role, "role", "student", "student | admin")

	show := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.Roster.Get(cmd.Context(), args[0])
			if err != nil {
				return fail(err)
			}
			return c.printUsers([]domain.Identity{*u})
		},
	}

	status := &cobra.Command{
		Use:   "status <user-id> <active|inactive>",
		Short: "Activate or deactivate an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var active bool
			switch args[1] {
			case "active", "on":
				active = true
			case "inactive", "off":
			default:
				b, err := strconv.ParseBool(args[1])
				if err != nil {
					return fmt.Errorf("status must be active or inactive")
				}
				active = b
			}
			u, err := c.app.Roster.SetStatus(cmd.Context(), args[0], active)
			if err != nil {
				return fail(err)
			}
			return c.printUsers([]domain.Identity{*u})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <user-id>",
		Short: "Delete an account and its enrollments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Roster.Delete(cmd.Context(), args[0]); err != nil {
				return fail(err)
			}
			fmt.Fprintln(c.out, "deleted", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, status, rm)
	return cmd
}

func (c *cli) printUsers(us []domain.Identity) error {
	return c.table(us, "ID\tNAME\tEMAIL\tROLE\tACTIVE\tJOINED", func(w io.Writer) {
		for _, u := range us {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n", u.ID, u.Name, u.Email, u.Role, u.IsActive, u.CreatedAt.Format("2006-01-02"))
		}
	})
}

func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Dashboard, analytics and moderation (admin)",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.open(cmd); err != nil {
				return err
			}
			return c.requireAdmin()
		},
	}

	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Platform totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Remote.Admin.Dashboard(cmd.Context())
			if err != nil {
				return fail(err)
			}
			d := res.Data
			return c.table(d, "METRIC\tVALUE", func(w io.Writer) {
				fmt.Fprintf(w, "students\t%d (%d active)\n", d.TotalStudents, d.ActiveStudents)
				fmt.Fprintf(w, "courses\t%d (%d active)\n", d.TotalCourses, d.ActiveCourses)
				fmt.Fprintf(w, "enrollments\t%d (%d completed)\n", d.TotalEnrollments, d.CompletedEnrollments)
				fmt.Fprintf(w, "certificates\t%d\n", d.CertificatesIssued)
				fmt.Fprintf(w, "reviews\t%d (avg %.2f)\n", d.TotalReviews, d.AverageRating)
			})
		},
	}

	var timeframe string
	users := &cobra.Command{
		Use:   "signups",
		Short: "Daily signups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Remote.Admin.UserAnalytics(cmd.Context(), timeframe)
			if err != nil {
				return fail(err)
			}
			return c.table(res.Data, "DATE\tSIGNUPS", func(w io.Writer) {
				for _, d := range res.Data.Signups {
					fmt.Fprintf(w, "%s\t%d\n", d.Date, d.Count)
				}
			})
		},
	}
	users.Flags().StringVar(&timeframe, "timeframe", "30d", "7d | 30d | 90d")

	courses := &cobra.Command{
		Use:   "courses",
		Short: "Per-course enrollment and completion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Remote.Admin.CourseAnalytics(cmd.Context())
			if err != nil {
				return fail(err)
			}
			return c.table(res.Data, "COURSE\tCATEGORY\tENROLLED\tCOMPLETED\tRATING", func(w io.Writer) {
				for _, s := range res.Data.Courses {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.1f (%d)\n", s.Title, s.Category, s.Enrolled, s.Completed, s.Rating, s.ReviewCount)
				}
			})
		},
	}

	reported := &cobra.Command{
		Use:   "reported",
		Short: "Reviews with open reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Remote.Admin.ReportedReviews(cmd.Context())
			if err != nil {
				return fail(err)
			}
			return c.table(res.Data, "REVIEW\tRATING\tREPORTS\tLAST REASON\tCOMMENT", func(w io.Writer) {
				for _, rr := range res.Data {
					last := ""
					if n := len(rr.Reports); n > 0 {
						last = rr.Reports[n-1].Reason
					}
					fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", rr.Review.ID, rr.Review.Rating, len(rr.Reports), last, rr.Review.Comment)
				}
			})
		},
	}

	moderate := &cobra.Command{
		Use:   "moderate <review-id> <approve|reject>",
		Short: "Resolve reports on a review",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.Remote.Admin.ModerateReview(cmd.Context(), args[0], domain.Moderation(args[1]))
			if err != nil {
				return fail(err)
			}
			return c.printReviews([]domain.Review{res.Data})
		},
	}

	cmd.AddCommand(dashboard, users, courses, reported, moderate)
	return cmd
}
