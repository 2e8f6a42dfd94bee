package domain

import "time"

// Dashboard 管理端首页计数
type Dashboard struct {
	TotalStudents        int64   `json:"totalStudents"`
	ActiveStudents       int64   `json:"activeStudents"`
	TotalCourses         int64   `json:"totalCourses"`
	ActiveCourses        int64   `json:"activeCourses"`
	TotalEnrollments     int64   `json:"totalEnrollments"`
	CompletedEnrollments int64   `json:"completedEnrollments"`
	CertificatesIssued   int64   `json:"certificatesIssued"`
	TotalReviews         int64   `json:"totalReviews"`
	AverageRating        float64 `json:"averageRating"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// UserAnalytics 注册趋势；Timeframe 取 7d / 30d / 90d
type UserAnalytics struct {
	Timeframe   string       `json:"timeframe"`
	NewUsers    int64        `json:"newUsers"`
	ActiveUsers int64        `json:"activeUsers"`
	Signups     []DailyCount `json:"signups"`
}

type CourseStat struct {
	CourseID    string  `json:"courseId"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Enrolled    int64   `json:"enrolled"`
	Completed   int64   `json:"completed"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}

type CourseAnalytics struct {
	Courses []CourseStat `json:"courses"`
}

type ReviewReport struct {
	Reason     string    `json:"reason"`
	ReportedBy string    `json:"reportedBy"`
	ReportedAt time.Time `json:"reportedAt"`
}

// ReportedReview 被举报的评价及举报记录
type ReportedReview struct {
	Review  Review         `json:"review"`
	Reports []ReviewReport `json:"reports"`
}

type Moderation string

const (
	Approve Moderation = "approve"
	Reject  Moderation = "reject"
)

// Upload 上传后的文件地址
type Upload struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
