package catalog

import (
	"cmp"
	"slices"

	"skillmentor/internal/domain"
)

// 派生指标：由调用方按需计算，不存入 Store。空集合一律返回 0。

// AverageRating 课程评分均值
func AverageRating(courses []domain.Course) float64 {
	if len(courses) == 0 {
		return 0
	}
	var sum float64
	for _, c := range courses {
		sum += c.Rating
	}
	return sum / float64(len(courses))
}

// CompletionRate 完成比例（0~1）
func CompletionRate(es []domain.Enrollment) float64 {
	if len(es) == 0 {
		return 0
	}
	return float64(CompletedCount(es)) / float64(len(es))
}

func CompletedCount(es []domain.Enrollment) int {
	n := 0
	for _, e := range es {
		if e.Progress == domain.MaxProgress {
			n++
		}
	}
	return n
}

func AverageProgress(es []domain.Enrollment) float64 {
	if len(es) == 0 {
		return 0
	}
	sum := 0
	for _, e := range es {
		sum += e.Progress
	}
	return float64(sum) / float64(len(es))
}

// RatingDistribution 下标 0 对应 1 星；越界评分忽略
func RatingDistribution(rs []domain.Review) [domain.MaxRating]int {
	var out [domain.MaxRating]int
	for _, r := range rs {
		if r.Rating >= domain.MinRating && r.Rating <= domain.MaxRating {
			out[r.Rating-1]++
		}
	}
	return out
}

// TopRated 按评分、评价数降序取前 n
func TopRated(courses []domain.Course, n int) []domain.Course {
	out := slices.Clone(courses)
	slices.SortStableFunc(out, func(a, b domain.Course) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		return cmp.Compare(b.ReviewCount, a.ReviewCount)
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

func CategoryCounts(courses []domain.Course) map[string]int {
	out := make(map[string]int)
	for _, c := range courses {
		out[c.Category]++
	}
	return out
}

// Overview 仪表盘汇总
type Overview struct {
	Courses         int
	ActiveCourses   int
	Enrollments     int
	Completed       int
	Reviews         int
	AverageRating   float64
	CompletionRate  float64
	AverageProgress float64
}

func Summarize(s Snapshot) Overview {
	active := 0
	for _, c := range s.Courses {
		if c.IsActive {
			active++
		}
	}
	return Overview{
		Courses:         len(s.Courses),
		ActiveCourses:   active,
		Enrollments:     len(s.Enrollments),
		Completed:       CompletedCount(s.Enrollments),
		Reviews:         len(s.Reviews),
		AverageRating:   AverageRating(s.Courses),
		CompletionRate:  CompletionRate(s.Enrollments),
		AverageProgress: AverageProgress(s.Enrollments),
	}
}
