package catalog

import "skillmentor/internal/domain"

// FindCourse 线性查找
func FindCourse(courses []domain.Course, id string) (domain.Course, bool) {
	for _, c := range courses {
		if id != "" && c.ID == id {
			return c, true
		}
	}
	return domain.Course{}, false
}

// FindEnrollmentByCourse 第一条课程关联指向 courseID 的选课（id / 内嵌对象都认）
func FindEnrollmentByCourse(es []domain.Enrollment, courseID string) (domain.Enrollment, bool) {
	for _, e := range es {
		if e.Course.Matches(courseID) {
			return e, true
		}
	}
	return domain.Enrollment{}, false
}

// FindEnrollment 课程与学员两个关联各自独立匹配
func FindEnrollment(es []domain.Enrollment, courseID, studentID string) (domain.Enrollment, bool) {
	for _, e := range es {
		if e.Course.Matches(courseID) && e.Student.Matches(studentID) {
			return e, true
		}
	}
	return domain.Enrollment{}, false
}

// FilterReviews 某门课的评价；与选课查找同一套匹配规则
func FilterReviews(rs []domain.Review, courseID string) []domain.Review {
	out := make([]domain.Review, 0)
	for _, r := range rs {
		if r.Course.Matches(courseID) {
			out = append(out, r)
		}
	}
	return out
}
