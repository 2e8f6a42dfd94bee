package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProgressRange(t *testing.T) {
	assert.NoError(t, Validate(ProgressUpdate{Progress: 0}))
	assert.NoError(t, Validate(ProgressUpdate{Progress: 100}))

	err := Validate(ProgressUpdate{Progress: 120})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "progress")

	assert.Error(t, Validate(ProgressUpdate{Progress: -1}))
}

func TestValidateReviewRating(t *testing.T) {
	ok := ReviewDraft{CourseID: "c1", Rating: 5, Comment: "great"}
	assert.NoError(t, Validate(ok))

	for _, r := range []int{0, 6, -3} {
		d := ok
		d.Rating = r
		err := Validate(d)
		require.Error(t, err, "rating %d", r)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "rating", ve.Fields[0].Field)
	}
}

func TestValidateCourseDraft(t *testing.T) {
	d := CourseDraft{
		Title: "Go", Description: "d", Instructor: "i", Difficulty: Beginner,
		Duration: "4 weeks", Category: "Programming", Price: 0,
	}
	assert.NoError(t, Validate(d))

	d.Difficulty = "Expert"
	assert.Error(t, Validate(d))

	d.Difficulty = Advanced
	d.Price = -1
	assert.Error(t, Validate(d))
}

func TestCourseDraftNormalize(t *testing.T) {
	d := CourseDraft{
		Title:    "  Go  ",
		Syllabus: []string{"intro", " ", "", " types "},
		Tags:     []string{""},
	}.Normalize()
	assert.Equal(t, "Go", d.Title)
	assert.Equal(t, []string{"intro", "types"}, d.Syllabus)
	assert.Empty(t, d.Tags)
	assert.NotNil(t, d.Tags)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 25, Pages: 3}, NewPagination(1, 10, 25))
	assert.Equal(t, 1, NewPagination(1, 10, 0).Pages)
	assert.Equal(t, 1, NewPagination(1, 0, 7).Pages)
}
