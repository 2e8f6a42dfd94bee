package remote

import (
	"context"
	"net/http"
	"net/url"

	"skillmentor/internal/domain"
)

type NotesAPI struct{ c *Client }

type noteData struct {
	Note domain.Note `json:"note"`
}

type notesData struct {
	Notes []domain.Note `json:"notes"`
}

type summaryData struct {
	Summary string `json:"summary"`
}

func (a *NotesAPI) Create(ctx context.Context, d domain.NoteDraft) (Result[domain.Note], error) {
	return a.one(ctx, request{op: "notes.create", method: http.MethodPost, path: "/notes", body: d})
}

// List courseID 为空时返回全部笔记
func (a *NotesAPI) List(ctx context.Context, courseID string) (Result[[]domain.Note], error) {
	rq := request{op: "notes.list", method: http.MethodGet, path: "/notes"}
	if courseID != "" {
		rq.query = url.Values{"courseId": {courseID}}
	}
	var env envelope[notesData]
	if err := a.c.call(ctx, rq, &env); err != nil {
		return Result[[]domain.Note]{}, err
	}
	return ok(env.Message, env.Data.Notes), nil
}

func (a *NotesAPI) Update(ctx context.Context, id string, p domain.NotePatch) (Result[domain.Note], error) {
	return a.one(ctx, request{op: "notes.update", method: http.MethodPut, path: "/notes/" + escape(id), body: p})
}

func (a *NotesAPI) Delete(ctx context.Context, id string) (Result[Empty], error) {
	var env envelope[Empty]
	if err := a.c.call(ctx, request{op: "notes.delete", method: http.MethodDelete, path: "/notes/" + escape(id)}, &env); err != nil {
		return Result[Empty]{}, err
	}
	return ok(env.Message, Empty{}), nil
}

// Summarize 生成并保存笔记摘要
func (a *NotesAPI) Summarize(ctx context.Context, id string) (Result[string], error) {
	var env envelope[summaryData]
	if err := a.c.call(ctx, request{op: "notes.summary", method: http.MethodPost, path: "/notes/" + escape(id) + "/summary"}, &env); err != nil {
		return Result[string]{}, err
	}
	return ok(env.Message, env.Data.Summary), nil
}

func (a *NotesAPI) one(ctx context.Context, rq request) (Result[domain.Note], error) {
	var env envelope[noteData]
	if err := a.c.call(ctx, rq, &env); err != nil {
		return Result[domain.Note]{}, err
	}
	return ok(env.Message, env.Data.Note), nil
}

type AIAPI struct{ c *Client }

// GenerateSummary 对任意文本做摘要
func (a *AIAPI) GenerateSummary(ctx context.Context, notes string) (Result[string], error) {
	var env envelope[summaryData]
	err := a.c.call(ctx, request{
		op: "ai.summary", method: http.MethodPost, path: "/ai/generate-summary",
		body: map[string]string{"notes": notes},
	}, &env)
	if err != nil {
		return Result[string]{}, err
	}
	return ok(env.Message, env.Data.Summary), nil
}
