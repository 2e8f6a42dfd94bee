package handler

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"skillmentor/internal/domain"
	"skillmentor/internal/service"
	"skillmentor/internal/transport/http/ez"
)

const maxUploadFiles = 10

type UploadHandler struct{ svc *service.UploadService }

func NewUploadHandler(svc *service.UploadService) *UploadHandler { return &UploadHandler{svc: svc} }

func (h *UploadHandler) MountAPI(api ez.EZ) {
	api.Files("/upload", "file", 1, "File uploaded successfully", func(c *gin.Context, files []*multipart.FileHeader) (any, error) {
		return h.svc.Save(c, files[0])
	})

	api.Files("/upload/multiple", "files", maxUploadFiles, "Files uploaded successfully", func(c *gin.Context, files []*multipart.FileHeader) (any, error) {
		out := make([]domain.Upload, 0, len(files))
		for _, fh := range files {
			u, err := h.svc.Save(c, fh)
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		}
		return gin.H{"files": out}, nil
	})
}
