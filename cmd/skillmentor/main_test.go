package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillmentor/internal/credential"
	"skillmentor/internal/devtest"
	"skillmentor/internal/domain"
)

type runner struct {
	t     *testing.T
	base  string
	creds credential.Store
}

func (r runner) run(args ...string) (string, error) {
	r.t.Helper()
	var out, errOut bytes.Buffer
	c := &cli{out: &out, errOut: &errOut, creds: r.creds}
	err := c.execute(r.t.Context(), append([]string{"--api", r.base}, args...))
	return out.String(), err
}

func (r runner) must(args ...string) string {
	r.t.Helper()
	out, err := r.run(args...)
	require.NoError(r.t, err, "%v", args)
	return out
}

func TestCLIEndToEnd(t *testing.T) {
	base := devtest.Backend(t)
	admin := runner{t: t, base: base, creds: credential.NewMemoryStore("")}
	stu := runner{t: t, base: base, creds: credential.NewMemoryStore("")}

	admin.must("login", "-e", devtest.AdminEmail, "-p", devtest.AdminPassword)
	out := admin.must("--json", "courses", "add",
		"--title", "Rust in Action", "--description", "ownership", "--instructor", "Tim",
		"--difficulty", "Intermediate", "--duration", "5 weeks", "--category", "Systems",
		"--price", "30", "--syllabus", "borrowing,lifetimes")
	var added []domain.Course
	require.NoError(t, json.Unmarshal([]byte(out), &added))
	require.Len(t, added, 1)
	cid := added[0].ID

	_, err := stu.run("courses", "add", "--title", "x")
	assert.Error(t, err)

	stu.must("register", "-n", "Kai", "-e", "kai@x.io", "-p", "secret1")
	assert.Contains(t, stu.must("whoami"), "kai@x.io")
	assert.Contains(t, stu.must("courses", "list"), "Rust in Action")

	stu.must("enroll", cid)
	_, err = stu.run("enroll", cid)
	assert.Error(t, err)

	out = stu.must("--json", "enrollments")
	var es []domain.Enrollment
	require.NoError(t, json.Unmarshal([]byte(out), &es))
	require.Len(t, es, 1)

	assert.Contains(t, stu.must("progress", es[0].ID, "100", "-m", "1"), "100%")
	stu.must("review", "add", cid, "-r", "4", "-c", "solid")
	assert.Contains(t, stu.must("review", "list", cid), "Kai")
	assert.Contains(t, stu.must("stats"), "completed")

	assert.Contains(t, stu.must("summary", "Ownership moves values. Borrowing lends them. Lifetimes bound borrows."), ".")

	_, err = stu.run("students", "list")
	assert.Error(t, err)
	assert.Contains(t, admin.must("students", "list"), "kai@x.io")
	assert.Contains(t, admin.must("admin", "dashboard"), "certificates")

	stu.must("logout")
	_, err = stu.run("whoami")
	assert.Error(t, err)
}

func TestFailedCommandStillReleasesApp(t *testing.T) {
	base := devtest.Backend(t)
	var out, errOut bytes.Buffer
	c := &cli{out: &out, errOut: &errOut, creds: credential.NewMemoryStore("")}

	err := c.execute(t.Context(), []string{"--api", base, "whoami"})
	require.Error(t, err)
	assert.Nil(t, c.app)
	assert.Nil(t, c.cleanup)

	err = c.execute(t.Context(), []string{"--api", base, "students", "list"})
	require.Error(t, err)
	assert.Nil(t, c.app)
	assert.Nil(t, c.cleanup)
}
