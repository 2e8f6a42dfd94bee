package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"skillmentor/internal/domain"
	"skillmentor/internal/remote"
)

func (c *cli) notesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "notes", Short: "Your study notes"}

	var course string
	list := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			res, err := c.app.Remote.Notes.List(cmd.Context(), course)
			if err != nil {
				return fail(err)
			}
			return c.printNotes(res.Data)
		},
	}
	list.Flags().StringVar(&course, "course", "", "only notes of this course")

	var d domain.NoteDraft
	var module int
	add := &cobra.Command{
		Use:   "add",
		Short: "Write a note; content from --content or stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			if d.Content == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				d.Content = string(b)
			}
			if cmd.Flags().Changed("module") {
				d.ModuleIndex = &module
			}
			if err := domain.Validate(d); err != nil {
				return err
			}
			res, err := c.app.Remote.Notes.Create(cmd.Context(), d)
			if err != nil {
				return fail(err)
			}
			return c.printNotes([]domain.Note{res.Data})
		},
	}
	add.Flags().StringVar(&d.CourseID, "course", "", "course id")
	add.Flags().StringVarP(&d.Title, "title", "t", "", "note title")
	add.Flags().StringVarP(&d.Content, "content", "c", "", "note body")
	add.Flags().IntVarP(&module, "module", "m", 0, "module index")

	var title, content string
	edit := &cobra.Command{
		Use:   "edit <note-id>",
		Short: "Change title or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			var p domain.NotePatch
			if cmd.Flags().Changed("title") {
				p.Title = &title
			}
			if cmd.Flags().Changed("content") {
				p.Content = &content
			}
			if err := domain.Validate(p); err != nil {
				return err
			}
			res, err := c.app.Remote.Notes.Update(cmd.Context(), args[0], p)
			if err != nil {
				return fail(err)
			}
			return c.printNotes([]domain.Note{res.Data})
		},
	}
	edit.Flags().StringVarP(&title, "title", "t", "", "new title")
	edit.Flags().StringVarP(&content, "content", "c", "", "new content")

	rm := &cobra.Command{
		Use:   "rm <note-id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			if _, err := c.app.Remote.Notes.Delete(cmd.Context(), args[0]); err != nil {
				return fail(err)
			}
			fmt.Fprintln(c.out, "deleted", args[0])
			return nil
		},
	}

	summarize := &cobra.Command{
		Use:   "summarize <note-id>",
		Short: "Generate and save a summary of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			res, err := c.app.Remote.Notes.Summarize(cmd.Context(), args[0])
			if err != nil {
				return fail(err)
			}
			fmt.Fprintln(c.out, res.Data)
			return nil
		},
	}

	cmd.AddCommand(list, add, edit, rm, summarize)
	return cmd
}

func (c *cli) printNotes(ns []domain.Note) error {
	return c.table(ns, "ID\tCOURSE\tTITLE\tUPDATED", func(w io.Writer) {
		for _, n := range ns {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.Course.ID(), n.Title, n.UpdatedAt.Format("2006-01-02 15:04"))
		}
	})
}

func (c *cli) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [text]",
		Short: "Summarize text (argument or stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(b)
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("nothing to summarize")
			}
			res, err := c.app.Remote.AI.GenerateSummary(cmd.Context(), text)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintln(c.out, res.Data)
			return nil
		},
	}
}

func (c *cli) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload course material",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			files := make([]remote.File, 0, len(args))
			for _, p := range args {
				f, err := os.Open(p)
				if err != nil {
					return err
				}
				defer f.Close()
				files = append(files, remote.File{Name: filepath.Base(p), Body: f})
			}
			var ups []domain.Upload
			if len(files) == 1 {
				res, err := c.app.Remote.Uploads.Upload(cmd.Context(), files[0])
				if err != nil {
					return fail(err)
				}
				ups = []domain.Upload{res.Data}
			} else {
				res, err := c.app.Remote.Uploads.UploadMany(cmd.Context(), files)
				if err != nil {
					return fail(err)
				}
				ups = res.Data
			}
			return c.table(ups, "URL\tNAME\tSIZE", func(w io.Writer) {
				for _, u := range ups {
					fmt.Fprintf(w, "%s\t%s\t%d\n", u.URL, u.Filename, u.Size)
				}
			})
		},
	}
}
