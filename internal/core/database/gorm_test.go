package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	got := NormalizeMySQLDSN("jdbc:mysql://root:pw@127.0.0.1:3306/skill?serverTimezone=UTC&useSSL=false", "", "")
	assert.Equal(t, "root:pw@tcp(127.0.0.1:3306)/skill?charset=utf8mb4&loc=UTC&parseTime=true", got)

	got = NormalizeMySQLDSN("mysql://a@h:1/db", "u", "p")
	assert.Equal(t, "u:p@tcp(h:1)/db?charset=utf8mb4&parseTime=true", got)

	raw := "u:p@tcp(h:1)/db"
	assert.Equal(t, raw, NormalizeMySQLDSN(raw, "x", "y"))
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "u:****@tcp(h:1)/db", maskDSN("u:secret@tcp(h:1)/db"))
	assert.Equal(t, "tcp(h:1)/db", maskDSN("tcp(h:1)/db"))
}

func TestNewGormSQLiteMemory(t *testing.T) {
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: "file::memory:", LogLevel: "silent"})
	require.NoError(t, err)
	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestNewGormUnsupported(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}
