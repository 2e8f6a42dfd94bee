package catalog

import (
	"slices"

	"skillmentor/internal/domain"
)

// 纯函数：旧集合 + 服务端返回 → 新集合。总是返回新切片，不改入参。

func replaceAll[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}

func appendOne[T any](xs []T, x T) []T {
	out := make([]T, 0, len(xs)+1)
	out = append(out, xs...)
	return append(out, x)
}

// replaceByID 按 id 替换；找不到时原样返回副本
func replaceByID[T domain.Keyed](xs []T, x T) []T {
	out := slices.Clone(xs)
	for i := range out {
		if out[i].Key() == x.Key() {
			out[i] = x
		}
	}
	return out
}

func removeByID[T domain.Keyed](xs []T, id string) []T {
	out := make([]T, 0, len(xs))
	for _, x := range xs {
		if x.Key() != id {
			out = append(out, x)
		}
	}
	return out
}

// ApplyEnrollment 选课成功：追加选课记录，对应课程人数 +1
func ApplyEnrollment(courses []domain.Course, enrollments []domain.Enrollment, e domain.Enrollment, courseID string) ([]domain.Course, []domain.Enrollment) {
	if id := e.Course.ID(); id != "" {
		courseID = id
	}
	return BumpEnrolled(courses, courseID, 1), appendOne(enrollments, e)
}

// BumpEnrolled 调整某门课的 EnrolledStudents，不低于 0
func BumpEnrolled(courses []domain.Course, courseID string, delta int) []domain.Course {
	out := slices.Clone(courses)
	for i := range out {
		if out[i].ID == courseID {
			out[i].EnrolledStudents = max(0, out[i].EnrolledStudents+delta)
		}
	}
	return out
}
