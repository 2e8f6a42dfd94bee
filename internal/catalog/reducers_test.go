package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"skillmentor/internal/domain"
)

func TestReducersDoNotMutateInput(t *testing.T) {
	in := []domain.Course{{ID: "A", Title: "a"}, {ID: "B", Title: "b"}}

	out := replaceByID(in, domain.Course{ID: "B", Title: "b2"})
	assert.Equal(t, "b", in[1].Title)
	assert.Equal(t, "b2", out[1].Title)

	out = removeByID(in, "A")
	assert.Len(t, in, 2)
	assert.Equal(t, []domain.Course{{ID: "B", Title: "b"}}, out)

	out = appendOne(in, domain.Course{ID: "C"})
	assert.Len(t, in, 2)
	assert.Len(t, out, 3)

	assert.NotNil(t, replaceAll[domain.Course](nil))
	assert.Equal(t, in, replaceByID(in, domain.Course{ID: "zzz"}))
}

func TestApplyEnrollment(t *testing.T) {
	courses := []domain.Course{{ID: "X", EnrolledStudents: 4}, {ID: "Y", EnrolledStudents: 1}}
	e := domain.Enrollment{ID: "e1", Course: domain.Embed(domain.Course{ID: "X"})}

	cs, es := ApplyEnrollment(courses, nil, e, "ignored")
	assert.Equal(t, 5, cs[0].EnrolledStudents)
	assert.Equal(t, 1, cs[1].EnrolledStudents)
	assert.Equal(t, 4, courses[0].EnrolledStudents)
	assert.Len(t, es, 1)

	cs, _ = ApplyEnrollment(courses, nil, domain.Enrollment{ID: "e2"}, "Y")
	assert.Equal(t, 2, cs[1].EnrolledStudents)

	assert.Zero(t, BumpEnrolled([]domain.Course{{ID: "Z"}}, "Z", -3)[0].EnrolledStudents)
}

func TestLookupsToleranceBothForms(t *testing.T) {
	es := []domain.Enrollment{
		{ID: "1", Course: domain.RefOf[domain.Course]("c1"), Student: domain.Embed(domain.Identity{ID: "s1"})},
		{ID: "2", Course: domain.Embed(domain.Course{ID: "c2"}), Student: domain.RefOf[domain.Identity]("s2")},
		{ID: "3", Course: domain.Ref[domain.Course]{}, Student: domain.RefOf[domain.Identity]("s3")},
	}
	cases := []struct {
		course, student string
		want            string
	}{
		{"c1", "s1", "1"},
		{"c2", "s2", "2"},
		{"c1", "s2", ""},
		{"c2", "s1", ""},
		{"", "s3", ""},
	}
	for _, tc := range cases {
		got, ok := FindEnrollment(es, tc.course, tc.student)
		if tc.want == "" {
			assert.False(t, ok, "%s/%s", tc.course, tc.student)
			continue
		}
		assert.True(t, ok)
		assert.Equal(t, tc.want, got.ID)
	}

	got, ok := FindEnrollmentByCourse(es, "c2")
	assert.True(t, ok)
	assert.Equal(t, "2", got.ID)

	rs := []domain.Review{
		{ID: "r1", Course: domain.RefOf[domain.Course]("c1")},
		{ID: "r2", Course: domain.Embed(domain.Course{ID: "c1"})},
		{ID: "r3", Course: domain.RefOf[domain.Course]("c2")},
	}
	assert.Len(t, FilterReviews(rs, "c1"), 2)
	assert.Empty(t, FilterReviews(rs, ""))
}
