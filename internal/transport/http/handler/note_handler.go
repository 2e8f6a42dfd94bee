package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"skillmentor/internal/domain"
	"skillmentor/internal/feature/note"
	"skillmentor/internal/service"
	"skillmentor/internal/transport/http/ez"
)

type NoteHandler struct {
	db  *gorm.DB
	svc *service.NoteService
}

func NewNoteHandler(db *gorm.DB, svc *service.NoteService) *NoteHandler {
	return &NoteHandler{db: db, svc: svc}
}

type summaryOut struct {
	Summary string `json:"summary"`
}

func (h *NoteHandler) MountAPI(api ez.EZ) {
	ez.Crud(ez.CrudConfig[note.NoteModel]{
		DB:      h.db,
		EZ:      api,
		Path:    "/notes",
		New:     func() *note.NoteModel { return &note.NoteModel{} },
		Name:    "Note",
		Single:  "note",
		Plural:  "notes",
		View:    func(m *note.NoteModel) any { return m.ToDomain() },
		OrderBy: "created_at DESC",
		Hooks: ez.CrudHooks[note.NoteModel]{
			BeforeCreate: func(_ *gin.Context, m *note.NoteModel) error {
				m.Summary = ""
				return domain.Validate(domain.NoteDraft{
					CourseID:    m.CourseID,
					Title:       strings.TrimSpace(m.Title),
					Content:     m.Content,
					ModuleIndex: m.ModuleIndex,
				})
			},
			BeforeUpdate: func(_ *gin.Context, m *note.NoteModel) error {
				// 摘要只能由 /notes/:id/summary 生成
				m.Summary = ""
				return domain.Validate(domain.NotePatch{ModuleIndex: m.ModuleIndex})
			},
			ScopeList: func(c *gin.Context, q *gorm.DB) *gorm.DB {
				if cid := c.Query("courseId"); cid != "" {
					q = q.Where("course_id = ?", cid)
				}
				return q
			},
		},
	})

	ez.RegisterAction(api, ez.Action[none, summaryOut]{
		Method:  http.MethodPost,
		Path:    "/notes/:id/summary",
		Binder:  ez.BindNone,
		Auth:    true,
		Message: "Summary generated successfully",
		Handler: func(c *gin.Context, _ *none) (summaryOut, error) {
			s, err := h.svc.Summarize(c, ez.UserID(c), c.Param("id"))
			return summaryOut{Summary: s}, err
		},
	})

	type aiIn struct {
		Notes string `json:"notes"`
	}
	ez.RegisterAction(api, ez.Action[aiIn, summaryOut]{
		Method:  http.MethodPost,
		Path:    "/ai/generate-summary",
		Binder:  ez.BindJSON,
		Message: "Summary generated successfully",
		Handler: func(_ *gin.Context, in *aiIn) (summaryOut, error) {
			if strings.TrimSpace(in.Notes) == "" {
				return summaryOut{}, ez.BadRequest("Notes are required")
			}
			return summaryOut{Summary: service.Summarize(in.Notes, service.SummarySentences)}, nil
		},
	})
}
