package utils

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const certAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// NewID 32 位无横线 id（主键 varchar(32)）
func NewID() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }

// NewRequestID 请求链路 id
func NewRequestID() string { return uuid.NewString() }

// CertificateNumber 证书编号，形如 CERT-2025-7K3QZ9PA
func CertificateNumber(year int) string {
	return "CERT-" + strconv.Itoa(year) + "-" + gonanoid.MustGenerate(certAlphabet, 8)
}
