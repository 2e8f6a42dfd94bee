package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"skillmentor/internal/catalog"
	"skillmentor/internal/domain"
)

func (c *cli) coursesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "courses", Short: "Browse and manage courses"}
	cmd.AddCommand(c.coursesListCmd(), c.courseShowCmd(), c.courseAddCmd(), c.courseEditCmd(), c.courseRmCmd(), c.recommendCmd())
	return cmd
}

func (c *cli) printCourses(cs []domain.Course) error {
	return c.table(cs, "ID\tTITLE\tCATEGORY\tLEVEL\tPRICE\tRATING\tSTUDENTS", func(w io.Writer) {
		for _, co := range cs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.1f (%d)\t%d\n",
				co.ID, co.Title, co.Category, co.Difficulty, co.Price, co.Rating, co.ReviewCount, co.EnrolledStudents)
		}
	})
}

func (c *cli) coursesListCmd() *cobra.Command {
	var f domain.CourseFilter
	var level string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List courses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.Difficulty = domain.Difficulty(level)
			if err := c.app.Catalog.FetchCourses(cmd.Context(), f); err != nil {
				return fail(err)
			}
			return c.printCourses(c.app.Catalog.Courses())
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.Category, "category", "", "filter by category")
	fl.StringVar(&level, "difficulty", "", "Beginner | Intermediate | Advanced")
	fl.StringVarP(&f.Search, "search", "s", "", "search title and description")
	fl.StringVar(&f.Sort, "sort", "", "rating | price | -price | popular")
	fl.IntVar(&f.Page, "page", 0, "page number")
	fl.IntVar(&f.Limit, "limit", 0, "page size")
	return cmd
}

func (c *cli) courseShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <course-id>",
		Short: "Show one course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			co, err := c.app.Catalog.FetchCourseByID(cmd.Context(), args[0])
			if err != nil {
				return fail(err)
			}
			if c.asJSON {
				return c.printJSON(co)
			}
			fmt.Fprintf(c.out, "%s\n%s\n\n", co.Title, co.Description)
			printField(c.out, "instructor", co.Instructor)
			printField(c.out, "level", string(co.Difficulty))
			printField(c.out, "duration", co.Duration)
			printField(c.out, "category", co.Category)
			printField(c.out, "price", strconv.FormatFloat(co.Price, 'f', 2, 64))
			printField(c.out, "rating", fmt.Sprintf("%.1f (%d reviews)", co.Rating, co.ReviewCount))
			printField(c.out, "tags", strings.Join(co.Tags, ", "))
			for i, s := range co.Syllabus {
				fmt.Fprintf(c.out, "  %2d. %s\n", i+1, s)
			}
			return nil
		},
	}
}

func draftFlags(cmd *cobra.Command, d *domain.CourseDraft, level *string) {
	f := cmd.Flags()
	f.StringVar(&d.Title, "title", "", "course title")
	f.StringVar(&d.Description, "description", "", "description")
	f.StringVar(&d.Instructor, "instructor", "", "instructor name")
	f.StringVar(level, "difficulty", "", "Beginner | Intermediate | Advanced")
	f.StringVar(&d.Duration, "duration", "", "e.g. 6 weeks")
	f.StringVar(&d.Category, "category", "", "category")
	f.Float64Var(&d.Price, "price", 0, "price")
	f.StringVar(&d.Image, "image", "", "cover image URL")
	f.StringVar(&d.Video, "video", "", "intro video URL")
	f.StringSliceVar(&d.Syllabus, "syllabus", nil, "comma separated modules")
	f.StringSliceVar(&d.Tags, "tags", nil, "comma separated tags")
	f.StringSliceVar(&d.Prerequisites, "prerequisites", nil, "comma separated prerequisites")
	f.StringSliceVar(&d.LearningOutcomes, "outcomes", nil, "comma separated learning outcomes")
}

func (c *cli) courseAddCmd() *cobra.Command {
	var d domain.CourseDraft
	var level string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a course (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireAdmin(); err != nil {
				return err
			}
			d.Difficulty = domain.Difficulty(level)
			co, err := c.app.Catalog.AddCourse(cmd.Context(), d)
			if err != nil {
				return fail(err)
			}
			return c.printCourses([]domain.Course{*co})
		},
	}
	draftFlags(cmd, &d, &level)
	return cmd
}

func (c *cli) courseEditCmd() *cobra.Command {
	var d domain.CourseDraft
	var level string
	var active bool
	cmd := &cobra.Command{
		Use:   "edit <course-id>",
		Short: "Update fields of a course (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAdmin(); err != nil {
				return err
			}
			var p domain.CoursePatch
			fl := cmd.Flags()
			setIf := func(name string, dst **string, v string) {
				if fl.Changed(name) {
					*dst = &v
				}
			}
			setIf("title", &p.Title, d.Title)
			setIf("description", &p.Description, d.Description)
			setIf("instructor", &p.Instructor, d.Instructor)
			setIf("duration", &p.Duration, d.Duration)
			setIf("category", &p.Category, d.Category)
			setIf("image", &p.Image, d.Image)
			setIf("video", &p.Video, d.Video)
			if fl.Changed("difficulty") {
				lv := domain.Difficulty(level)
				p.Difficulty = &lv
			}
			if fl.Changed("price") {
				p.Price = &d.Price
			}
			if fl.Changed("active") {
				p.IsActive = &active
			}
			p.Syllabus, p.Tags, p.Prerequisites, p.LearningOutcomes = d.Syllabus, d.Tags, d.Prerequisites, d.LearningOutcomes
			co, err := c.app.Catalog.UpdateCourse(cmd.Context(), args[0], p)
			if err != nil {
				return fail(err)
			}
			return c.printCourses([]domain.Course{*co})
		},
	}
	draftFlags(cmd, &d, &level)
	cmd.Flags().BoolVar(&active, "active", true, "publish or hide the course")
	return cmd
}

func (c *cli) courseRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <course-id>",
		Short: "Delete a course (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAdmin(); err != nil {
				return err
			}
			if err := c.app.Catalog.DeleteCourse(cmd.Context(), args[0]); err != nil {
				return fail(err)
			}
			fmt.Fprintln(c.out, "deleted", args[0])
			return nil
		},
	}
}

func (c *cli) recommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Courses recommended for you",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			res, err := c.app.Remote.Courses.Recommendations(cmd.Context())
			if err != nil {
				return fail(err)
			}
			return c.printCourses(res.Data)
		},
	}
}

// ---- 选课 ----

func (c *cli) enrollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enroll <course-id>",
		Short: "Enroll in a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			// 先拉一次已选课程，本地就能挡住重复报名
			if err := c.app.Catalog.FetchUserEnrollments(cmd.Context()); err != nil {
				return fail(err)
			}
			e, err := c.app.Catalog.EnrollInCourse(cmd.Context(), args[0])
			if err != nil {
				return fail(err)
			}
			return c.printEnrollments([]domain.Enrollment{*e})
		},
	}
}

func (c *cli) unenrollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unenroll <enrollment-id>",
		Short: "Leave a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			if err := c.app.Catalog.UnenrollFromCourse(cmd.Context(), args[0]); err != nil {
				return fail(err)
			}
			fmt.Fprintln(c.out, "unenrolled", args[0])
			return nil
		},
	}
}

func (c *cli) printEnrollments(es []domain.Enrollment) error {
	return c.table(es, "ID\tCOURSE\tPROGRESS\tMODULES\tCERTIFICATE", func(w io.Writer) {
		for _, e := range es {
			title := e.Course.ID()
			if co, ok := e.Course.Entity(); ok {
				title = co.Title
			}
			fmt.Fprintf(w, "%s\t%s\t%d%%\t%d\t%s\n", e.ID, title, e.Progress, len(e.CompletedModules), e.CertificateNumber)
		}
	})
}

func (c *cli) enrollmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrollments",
		Short: "List your enrollments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			if err := c.app.Catalog.FetchUserEnrollments(cmd.Context()); err != nil {
				return fail(err)
			}
			return c.printEnrollments(c.app.Catalog.Enrollments())
		},
	}
}

func (c *cli) progressCmd() *cobra.Command {
	var module int
	cmd := &cobra.Command{
		Use:   "progress <enrollment-id> <percent>",
		Short: "Report progress on an enrollment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			pct, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
			if err != nil {
				return fmt.Errorf("percent must be a number: %w", err)
			}
			var idx *int
			if cmd.Flags().Changed("module") {
				idx = &module
			}
			e, err := c.app.Catalog.UpdateProgress(cmd.Context(), args[0], pct, idx)
			if err != nil {
				return fail(err)
			}
			return c.printEnrollments([]domain.Enrollment{*e})
		},
	}
	cmd.Flags().IntVarP(&module, "module", "m", 0, "mark this module index as completed")
	return cmd
}

// ---- 评价 ----

func (c *cli) reviewCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "review", Short: "Course reviews"}

	var d domain.ReviewDraft
	add := &cobra.Command{
		Use:   "add <course-id>",
		Short: "Review a course you are enrolled in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			d.CourseID = args[0]
			r, err := c.app.Catalog.AddReview(cmd.Context(), d)
			if err != nil {
				return fail(err)
			}
			return c.printReviews([]domain.Review{*r})
		},
	}
	add.Flags().IntVarP(&d.Rating, "rating", "r", 5, "1-5 stars")
	add.Flags().StringVarP(&d.Comment, "comment", "c", "", "review text")

	list := &cobra.Command{
		Use:   "list <course-id>",
		Short: "Reviews of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Catalog.FetchCourseReviews(cmd.Context(), args[0]); err != nil {
				return fail(err)
			}
			return c.printReviews(c.app.Catalog.GetReviewsByCourse(args[0]))
		},
	}

	mine := &cobra.Command{
		Use:   "mine",
		Short: "Your reviews",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			if err := c.app.Catalog.FetchUserReviews(cmd.Context()); err != nil {
				return fail(err)
			}
			return c.printReviews(c.app.Catalog.Reviews())
		},
	}

	helpful := &cobra.Command{
		Use:   "helpful <review-id>",
		Short: "Mark a review as helpful",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			res, err := c.app.Remote.Reviews.MarkHelpful(cmd.Context(), args[0])
			if err != nil {
				return fail(err)
			}
			return c.printReviews([]domain.Review{res.Data})
		},
	}

	var reason string
	report := &cobra.Command{
		Use:   "report <review-id>",
		Short: "Report a review to moderators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			res, err := c.app.Remote.Reviews.Report(cmd.Context(), args[0], reason)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintln(c.out, res.Message)
			return nil
		},
	}
	report.Flags().StringVar(&reason, "reason", "", "why this review is inappropriate")

	cmd.AddCommand(add, list, mine, helpful, report)
	return cmd
}

func (c *cli) printReviews(rs []domain.Review) error {
	return c.table(rs, "ID\tSTUDENT\tRATING\tHELPFUL\tCOMMENT", func(w io.Writer) {
		for _, r := range rs {
			who := r.Student.ID()
			if s, ok := r.Student.Entity(); ok {
				who = s.Name
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.ID, who, strings.Repeat("*", r.Rating), r.HelpfulVotes, r.Comment)
		}
	})
}

// statsCmd 本地派生指标，不额外请求后端统计接口
func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summary of the catalog and your learning",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.app.Catalog.FetchCourses(ctx, domain.CourseFilter{}); err != nil {
				return fail(err)
			}
			if c.app.Session.IsAuthenticated() {
				if err := c.app.Catalog.FetchUserEnrollments(ctx); err != nil {
					return fail(err)
				}
			}
			cs, es := c.app.Catalog.Courses(), c.app.Catalog.Enrollments()
			out := struct {
				Courses         int            `json:"courses"`
				AverageRating   float64        `json:"averageRating"`
				Categories      map[string]int `json:"categories"`
				Enrollments     int            `json:"enrollments"`
				Completed       int            `json:"completed"`
				CompletionRate  float64        `json:"completionRate"`
				AverageProgress float64        `json:"averageProgress"`
			}{
				Courses:         len(cs),
				AverageRating:   catalog.AverageRating(cs),
				Categories:      catalog.CategoryCounts(cs),
				Enrollments:     len(es),
				Completed:       catalog.CompletedCount(es),
				CompletionRate:  catalog.CompletionRate(es),
				AverageProgress: catalog.AverageProgress(es),
			}
			return c.table(out, "METRIC\tVALUE", func(w io.Writer) {
				fmt.Fprintf(w, "courses\t%d\n", out.Courses)
				fmt.Fprintf(w, "average rating\t%.2f\n", out.AverageRating)
				fmt.Fprintf(w, "enrollments\t%d\n", out.Enrollments)
				fmt.Fprintf(w, "completed\t%d (%.0f%%)\n", out.Completed, out.CompletionRate*100)
				fmt.Fprintf(w, "average progress\t%.1f%%\n", out.AverageProgress)
				for _, top := range catalog.TopRated(cs, 3) {
					fmt.Fprintf(w, "top rated\t%s (%.1f)\n", top.Title, top.Rating)
				}
			})
		},
	}
}
