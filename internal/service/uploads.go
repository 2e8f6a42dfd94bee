package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"skillmentor/internal/domain"
)

// UploadService 文件落本地目录，由 /uploads 静态路由对外
type UploadService struct {
	Dir    string
	Prefix string // 对外 URL 前缀
}

func NewUploadService(dir, prefix string) *UploadService {
	if prefix == "" {
		prefix = "/uploads"
	}
	return &UploadService{Dir: dir, Prefix: strings.TrimRight(prefix, "/")}
}

var allowedExt = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".mp4": true, ".webm": true, ".txt": true, ".md": true, ".doc": true, ".docx": true,
}

func (s *UploadService) Save(ctx context.Context, fh *multipart.FileHeader) (domain.Upload, error) {
	if err := ctx.Err(); err != nil {
		return domain.Upload{}, err
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return domain.Upload{}, fail(ErrInvalid, "File type %q is not allowed", ext)
	}
	base := slug.Make(strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename)))
	if base == "" {
		base = "file"
	}
	name := fmt.Sprintf("%s-%s%s", base, gonanoid.Must(10), ext)

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return domain.Upload{}, err
	}
	src, err := fh.Open()
	if err != nil {
		return domain.Upload{}, err
	}
	defer src.Close()
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return domain.Upload{}, err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return domain.Upload{}, err
	}
	return domain.Upload{URL: path.Join(s.Prefix, name), Filename: fh.Filename, Size: n}, nil
}
