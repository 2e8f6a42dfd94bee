package catalog

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"skillmentor/internal/domain"
	"skillmentor/internal/remote"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

// fakeBackend 内存版的课程后端，记录调用次数
type fakeBackend struct {
	mu      sync.Mutex
	calls   map[string]int
	courses []domain.Course
	fail    map[string]error
	nextID  int
}

func newFake(courses ...domain.Course) *fakeBackend {
	return &fakeBackend{calls: map[string]int{}, fail: map[string]error{}, courses: courses}
}

func (f *fakeBackend) hit(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail[op]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.calls {
		n += v
	}
	return n
}

func (f *fakeBackend) id(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return prefix + string(rune('0'+f.nextID))
}

func (f *fakeBackend) List(_ context.Context, _ domain.CourseFilter) (remote.Result[remote.CoursePage], error) {
	if err := f.hit("courses.list"); err != nil {
		return remote.Result[remote.CoursePage]{}, err
	}
	return remote.Result[remote.CoursePage]{Success: true, Data: remote.CoursePage{
		Courses:    f.courses,
		Pagination: domain.NewPagination(1, 10, int64(len(f.courses))),
	}}, nil
}

func (f *fakeBackend) Get(_ context.Context, id string) (remote.Result[domain.Course], error) {
	if err := f.hit("courses.get"); err != nil {
		return remote.Result[domain.Course]{}, err
	}
	for _, c := range f.courses {
		if c.ID == id {
			return remote.Result[domain.Course]{Success: true, Data: c}, nil
		}
	}
	return remote.Result[domain.Course]{}, &remote.Error{Op: "courses.get", Status: 404, Message: "Course not found"}
}

func (f *fakeBackend) Create(_ context.Context, d domain.CourseDraft) (remote.Result[domain.Course], error) {
	if err := f.hit("courses.create"); err != nil {
		return remote.Result[domain.Course]{}, err
	}
	return remote.Result[domain.Course]{Success: true, Data: domain.Course{
		ID: f.id("c"), Title: d.Title, Category: d.Category, Difficulty: d.Difficulty, Syllabus: d.Syllabus, IsActive: true,
	}}, nil
}

func (f *fakeBackend) Update(_ context.Context, id string, p domain.CoursePatch) (remote.Result[domain.Course], error) {
	if err := f.hit("courses.update"); err != nil {
		return remote.Result[domain.Course]{}, err
	}
	c := domain.Course{ID: id}
	if p.Title != nil {
		c.Title = *p.Title
	}
	return remote.Result[domain.Course]{Success: true, Data: c}, nil
}

func (f *fakeBackend) Delete(_ context.Context, id string) (remote.Result[remote.Empty], error) {
	return remote.Result[remote.Empty]{Success: true}, f.hit("courses.delete")
}

type fakeEnrollments struct{ *fakeBackend }

func (f fakeEnrollments) Enroll(_ context.Context, courseID string) (remote.Result[domain.Enrollment], error) {
	if err := f.hit("enrollments.enroll"); err != nil {
		return remote.Result[domain.Enrollment]{}, err
	}
	return remote.Result[domain.Enrollment]{Success: true, Data: domain.Enrollment{
		ID: f.id("e"), Course: domain.RefOf[domain.Course](courseID), Student: domain.RefOf[domain.Identity]("s1"), IsActive: true,
	}}, nil
}

func (f fakeEnrollments) List(context.Context) (remote.Result[[]domain.Enrollment], error) {
	if err := f.hit("enrollments.list"); err != nil {
		return remote.Result[[]domain.Enrollment]{}, err
	}
	return remote.Result[[]domain.Enrollment]{Success: true, Data: []domain.Enrollment{
		{ID: "e1", Course: domain.Embed(domain.Course{ID: "A"}), Student: domain.RefOf[domain.Identity]("s1"), Progress: 100},
		{ID: "e2", Course: domain.RefOf[domain.Course]("B"), Student: domain.Embed(domain.Identity{ID: "s1"}), Progress: 50},
	}}, nil
}

func (f fakeEnrollments) UpdateProgress(_ context.Context, id string, in domain.ProgressUpdate) (remote.Result[domain.Enrollment], error) {
	if err := f.hit("enrollments.progress"); err != nil {
		return remote.Result[domain.Enrollment]{}, err
	}
	return remote.Result[domain.Enrollment]{Success: true, Data: domain.Enrollment{ID: id, Progress: in.Progress, Course: domain.RefOf[domain.Course]("B")}}, nil
}

func (f fakeEnrollments) Unenroll(context.Context, string) (remote.Result[remote.Empty], error) {
	return remote.Result[remote.Empty]{Success: true}, f.hit("enrollments.unenroll")
}

type fakeReviews struct{ *fakeBackend }

func (f fakeReviews) Create(_ context.Context, d domain.ReviewDraft) (remote.Result[domain.Review], error) {
	if err := f.hit("reviews.create"); err != nil {
		return remote.Result[domain.Review]{}, err
	}
	return remote.Result[domain.Review]{Success: true, Data: domain.Review{
		ID: f.id("r"), Course: domain.RefOf[domain.Course](d.CourseID), Rating: d.Rating, Comment: d.Comment,
	}}, nil
}

func (f fakeReviews) ByCourse(_ context.Context, courseID string) (remote.Result[[]domain.Review], error) {
	if err := f.hit("reviews.by_course"); err != nil {
		return remote.Result[[]domain.Review]{}, err
	}
	return remote.Result[[]domain.Review]{Success: true, Data: []domain.Review{
		{ID: "r1", Course: domain.RefOf[domain.Course](courseID), Rating: 5},
		{ID: "r2", Course: domain.Embed(domain.Course{ID: courseID}), Rating: 3},
	}}, nil
}

func (f fakeReviews) Mine(context.Context) (remote.Result[[]domain.Review], error) {
	if err := f.hit("reviews.mine"); err != nil {
		return remote.Result[[]domain.Review]{}, err
	}
	return remote.Result[[]domain.Review]{Success: true, Data: []domain.Review{{ID: "r9", Course: domain.RefOf[domain.Course]("Z"), Rating: 4}}}, nil
}

func newStore(f *fakeBackend) *Store {
	return New(Options{Courses: f, Enrollments: fakeEnrollments{f}, Reviews: fakeReviews{f}})
}

func seed() *fakeBackend {
	return newFake(
		domain.Course{ID: "A", Title: "Go", Rating: 4, EnrolledStudents: 10, IsActive: true, Category: "Dev"},
		domain.Course{ID: "B", Title: "Rust", Rating: 5, EnrolledStudents: 0, IsActive: true, Category: "Dev"},
		domain.Course{ID: "X", Title: "Design", Rating: 3, EnrolledStudents: 7, Category: "Art"},
	)
}

func TestFetchCoursesReplacesCollection(t *testing.T) {
	f := seed()
	s := newStore(f)
	require.NoError(t, s.FetchCourses(context.Background(), domain.CourseFilter{}))
	assert.Len(t, s.Courses(), 3)
	assert.Equal(t, int64(3), s.Snapshot().Pagination.Total)

	f.courses = f.courses[:1]
	require.NoError(t, s.FetchCourses(context.Background(), domain.CourseFilter{}))
	assert.Len(t, s.Courses(), 1)
	assert.False(t, s.Loading())
}

func TestFetchFailureRecordsErrorAndKeepsState(t *testing.T) {
	f := seed()
	s := newStore(f)
	require.NoError(t, s.FetchCourses(context.Background(), domain.CourseFilter{}))

	f.fail["courses.list"] = &remote.Error{Op: "courses.list", Status: 500, Message: "Database unavailable"}
	err := s.FetchCourses(context.Background(), domain.CourseFilter{})
	require.Error(t, err)
	assert.Equal(t, 500, remote.StatusOf(err))
	assert.Equal(t, "Database unavailable", s.Err())
	assert.Len(t, s.Courses(), 3)
	assert.False(t, s.Loading())
}

func TestGetCourseByIDIdempotent(t *testing.T) {
	s := newStore(seed())
	require.NoError(t, s.FetchCourses(context.Background(), domain.CourseFilter{}))
	a, okA := s.GetCourseByID("A")
	b, okB := s.GetCourseByID("A")
	require.True(t, okA)
	require.True(t, okB)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("lookup not idempotent (-first +second):\n%s", diff)
	}
	_, ok := s.GetCourseByID("nope")
	assert.False(t, ok)
}

func TestFetchCourseByIDIsReadThrough(t *testing.T) {
	f := seed()
	s := newStore(f)
	c, err := s.FetchCourseByID(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, "Rust", c.Title)
	assert.Empty(t, s.Courses())

	_, err = s.FetchCourseByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, remote.IsNotFound(err))
	assert.Equal(t, "Course not found", s.Err())
}

func TestEnrollIncrementsCountExactlyOnce(t *testing.T) {
	f := seed()
	s := newStore(f)
	ctx := context.Background()
	require.NoError(t, s.FetchCourses(ctx, domain.CourseFilter{}))
	before, _ := s.GetCourseByID("X")

	e, err := s.EnrollInCourse(ctx, "X")
	require.NoError(t, err)
	assert.True(t, e.Course.Matches("X"))

	after, _ := s.GetCourseByID("X")
	assert.Equal(t, before.EnrolledStudents+1, after.EnrolledStudents)

	refs := 0
	for _, en := range s.Enrollments() {
		if en.Course.Matches("X") {
			refs++
		}
	}
	assert.Equal(t, 1, refs)

	other, _ := s.GetCourseByID("A")
	assert.Equal(t, 10, other.EnrolledStudents)
}

func TestDuplicateEnrollIsRejectedLocally(t *testing.T) {
	f := seed()
	s := newStore(f)
	ctx := context.Background()
	require.NoError(t, s.FetchUserEnrollments(ctx))
	calls := f.total()

	_, err := s.EnrollInCourse(ctx, "A")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Equal(t, calls, f.total())
	assert.NotEmpty(t, s.Err())
}

func TestServerConflictMapsToAlreadyEnrolled(t *testing.T) {
	f := seed()
	f.fail["enrollments.enroll"] = &remote.Error{Op: "enrollments.enroll", Status: 409, Message: "Already enrolled in this course"}
	s := newStore(f)
	_, err := s.EnrollInCourse(context.Background(), "B")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.Empty(t, s.Enrollments())
}

func TestUpdateProgressOutOfRangeNoNetwork(t *testing.T) {
	f := seed()
	s := newStore(f)
	for _, p := range []int{120, -1} {
		_, err := s.UpdateProgress(context.Background(), "e1", p, nil)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	}
	assert.Zero(t, f.total())
	assert.Contains(t, s.Err(), "progress")
}

func TestUpdateProgressReplacesByID(t *testing.T) {
	f := seed()
	s := newStore(f)
	ctx := context.Background()
	require.NoError(t, s.FetchUserEnrollments(ctx))

	idx := 1
	e, err := s.UpdateProgress(ctx, "e2", 80, &idx)
	require.NoError(t, err)
	assert.Equal(t, 80, e.Progress)

	got := s.Enrollments()
	require.Len(t, got, 2)
	assert.Equal(t, 100, got[0].Progress)
	assert.Equal(t, 80, got[1].Progress)
}

func TestUnenrollRemovesByID(t *testing.T) {
	f := seed()
	s := newStore(f)
	ctx := context.Background()
	require.NoError(t, s.FetchUserEnrollments(ctx))
	require.NoError(t, s.UnenrollFromCourse(ctx, "e1"))
	got := s.Enrollments()
	require.Len(t, got, 1)
	assert.Equal(t, "e2", got[0].ID)
}

func TestUnenrollFailureNoPartialPatch(t *testing.T) {
	f := seed()
	s := newStore(f)
	ctx := context.Background()
	require.NoError(t, s.FetchUserEnrollments(ctx))
	f.fail["enrollments.unenroll"] = &remote.Error{Status: 500, Message: "boom"}
	require.Error(t, s.UnenrollFromCourse(ctx, "e1"))
	assert.Len(t, s.Enrollments(), 2)
	assert.Equal(t, "boom", s.Err())
}

func TestCourseCRUD(t *testing.T) {
	f := seed()
	s := newStore(f)
	ctx := context.Background()
	require.NoError(t, s.FetchCourses(ctx, domain.CourseFilter{}))

	_, err := s.AddCourse(ctx, domain.CourseDraft{Title: "Bad", Price: -1})
	require.Error(t, err)
	assert.Zero(t, f.calls["courses.create"])

	c, err := s.AddCourse(ctx, domain.CourseDraft{
		Title: " Kubernetes ", Description: "d", Instructor: "i", Difficulty: domain.Advanced,
		Duration: "4 weeks", Category: "Ops", Syllabus: []string{"pods", " ", "", "services"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Kubernetes", c.Title)
	assert.Equal(t, []string{"pods", "services"}, c.Syllabus)
	assert.Len(t, s.Courses(), 4)

	title := "Go 2"
	_, err = s.UpdateCourse(ctx, "A", domain.CoursePatch{Title: &title})
	require.NoError(t, err)
	got, _ := s.GetCourseByID("A")
	assert.Equal(t, "Go 2", got.Title)

	require.NoError(t, s.DeleteCourse(ctx, "A"))
	_, ok := s.GetCourseByID("A")
	assert.False(t, ok)
	assert.Len(t, s.Courses(), 3)
}

func TestReviews(t *testing.T) {
	f := seed()
	s := newStore(f)
	ctx := context.Background()

	_, err := s.AddReview(ctx, domain.ReviewDraft{CourseID: "A", Rating: 6, Comment: "great"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Zero(t, f.total())

	require.NoError(t, s.FetchCourseReviews(ctx, "A"))
	assert.Len(t, s.GetReviewsByCourse("A"), 2)

	r, err := s.AddReview(ctx, domain.ReviewDraft{CourseID: "A", Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, 5, r.Rating)
	assert.Len(t, s.GetReviewsByCourse("A"), 3)

	require.NoError(t, s.FetchUserReviews(ctx))
	assert.Empty(t, s.GetReviewsByCourse("A"))
	assert.Len(t, s.Reviews(), 1)
}

func TestCanceledContextSkipsPatch(t *testing.T) {
	f := seed()
	s := newStore(f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.FetchCourses(ctx, domain.CourseFilter{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Courses())
	assert.False(t, s.Loading())
}

func TestCanceledAfterRemoteSuccessIsNotApplied(t *testing.T) {
	f := seed()
	s := newStore(f)
	require.NoError(t, s.FetchCourses(context.Background(), domain.CourseFilter{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.AddCourse(ctx, domain.CourseDraft{
		Title: "Rust", Description: "d", Instructor: "i", Difficulty: domain.Beginner,
		Duration: "2 weeks", Category: "Systems",
	})
	require.ErrorIs(t, err, ErrNotApplied)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.calls["courses.create"])
	assert.Len(t, s.Courses(), 3)
	assert.False(t, s.Loading())
	assert.Empty(t, s.Err())

	// 后端没成功时不算 ErrNotApplied
	f.fail["courses.delete"] = &remote.Error{Op: "courses.delete", Status: 500, Message: "boom"}
	err = s.DeleteCourse(ctx, "A")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotApplied)
}

func TestSubscribersSeePatches(t *testing.T) {
	s := newStore(seed())
	var last Snapshot
	n := 0
	cancel := s.Subscribe(func(snap Snapshot) {
		n++
		last = snap
	})
	defer cancel()
	require.NoError(t, s.FetchCourses(context.Background(), domain.CourseFilter{}))
	assert.GreaterOrEqual(t, n, 2)
	assert.Len(t, last.Courses, 3)
	assert.False(t, last.Loading)

	// 修改副本不影响 Store
	last.Courses[0].Title = "mutated"
	c, _ := s.GetCourseByID("A")
	assert.Equal(t, "Go", c.Title)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	s := newStore(seed())
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.FetchCourses(ctx, domain.CourseFilter{})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.GetCourseByID("A")
			_ = Summarize(s.Snapshot())
		}()
	}
	wg.Wait()
	assert.Len(t, s.Courses(), 3)
}

func TestSubscribersSeeMutationsInOrder(t *testing.T) {
	s := newStore(seed())
	seq := 0
	var last, outOfOrder atomic.Int64
	cancel := s.Subscribe(func(snap Snapshot) {
		n, err := strconv.Atoi(snap.Err)
		if err != nil {
			return
		}
		if int64(n) <= last.Load() {
			outOfOrder.Add(1)
		}
		last.Store(int64(n))
	})
	defer cancel()

	const writers, rounds = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				s.mutate(func(st *Snapshot) {
					seq++
					st.Err = strconv.Itoa(seq)
				})
			}
		}()
	}
	wg.Wait()
	assert.Eventually(t, func() bool { return last.Load() == writers*rounds }, time.Second, 5*time.Millisecond)
	assert.Zero(t, outOfOrder.Load())
	assert.Equal(t, strconv.Itoa(writers*rounds), s.Err())
}

func TestErrorsWrapOperation(t *testing.T) {
	f := seed()
	f.fail["reviews.mine"] = errors.New("dial tcp: refused")
	s := newStore(f)
	err := s.FetchUserReviews(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch user reviews")
}
