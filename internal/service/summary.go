package service

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"skillmentor/internal/feature/note"
)

const SummarySentences = 3

// 停用词不参与打分
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true, "of": true, "to": true,
	"in": true, "on": true, "for": true, "with": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "it": true, "this": true, "that": true, "as": true, "at": true, "by": true, "from": true,
	"we": true, "you": true, "i": true, "can": true, "will": true, "not": true, "if": true, "so": true,
}

// Summarize 抽取式摘要：按词频给句子打分，取前 n 句并保持原文顺序
func Summarize(text string, n int) string {
	sentences := splitSentences(text)
	if len(sentences) <= n {
		return strings.Join(sentences, " ")
	}
	freq := map[string]int{}
	for _, s := range sentences {
		for _, w := range words(s) {
			freq[w]++
		}
	}
	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		ws := words(s)
		if len(ws) == 0 {
			ranked = append(ranked, scored{idx: i})
			continue
		}
		total := 0
		for _, w := range ws {
			total += freq[w]
		}
		ranked = append(ranked, scored{idx: i, score: float64(total) / float64(len(ws))})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	keep := ranked[:n]
	sort.Slice(keep, func(i, j int) bool { return keep[i].idx < keep[j].idx })
	out := make([]string, 0, n)
	for _, k := range keep {
		out = append(out, sentences[k.idx])
	}
	return strings.Join(out, " ")
}

func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	for _, r := range text {
		if r == '\n' {
			flush()
			continue
		}
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
	flush()
	return out
}

func words(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 1 && !stopWords[f] {
			out = append(out, f)
		}
	}
	return out
}

type NoteService struct{ db *gorm.DB }

func NewNoteService(db *gorm.DB) *NoteService { return &NoteService{db: db} }

// Summarize 生成并保存笔记摘要；只能操作自己的笔记
func (s *NoteService) Summarize(ctx context.Context, uid, id string) (string, error) {
	var m note.NoteModel
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, uid).Limit(1).Find(&m)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", fail(ErrNotFound, "Note not found")
	}
	if strings.TrimSpace(m.Content) == "" {
		return "", fail(ErrInvalid, "Note is empty")
	}
	sum := Summarize(m.Content, SummarySentences)
	err := s.db.WithContext(ctx).Model(&note.NoteModel{}).Where("id = ?", id).Update("summary", sum).Error
	return sum, err
}
