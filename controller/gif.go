package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prizmora/pkg/errno"
	"prizmora/pkg/gifx"
)

// GIFFramesHandler 拆分 GIF 为 PNG 帧
// @Summary GIF 拆帧
// @Description 只接受 20MB 以内的 GIF，返回按时间顺序排列的 PNG data URI
// @Tags GIF
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "GIF 文件"
// @Success 200 {object} map[string][]string "frames"
// @Failure 415 {object} ErrorResponse "不是 GIF 或超过大小限制"
// @Failure 422 {object} ErrorResponse "没有可提取的帧"
// @Router /api/gif/frames [post]
func (h *Handler) GIFFramesHandler(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		ResponseErrorWithMsg(c, errno.KindInvalidInput, "No file provided")
		return
	}
	if fh.Size > gifx.MaxSize {
		ResponseErrorWithMsg(c, errno.KindUnsupportedInput, "Please upload a GIF file up to 20MB")
		return
	}
	f, err := fh.Open()
	if err != nil {
		ResponseError(c, errno.Wrap(errno.KindInvalidInput, "Failed to read file", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, gifx.MaxSize+1))
	if err != nil {
		ResponseError(c, errno.Wrap(errno.KindInvalidInput, "Failed to read file", err))
		return
	}

	mediaType := fh.Header.Get("Content-Type")
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(data)
	}

	frames, err := gifx.ExtractFrames(mediaType, data)
	if err != nil {
		zap.L().Warn("gif extraction failed", zap.String("file", fh.Filename), zap.Error(err))
		switch {
		case errors.Is(err, gifx.ErrUnsupportedInput):
			ResponseError(c, errno.Wrap(errno.KindUnsupportedInput, "Please upload a GIF file up to 20MB", err))
		case errors.Is(err, gifx.ErrNoFramesExtracted):
			ResponseError(c, errno.Wrap(errno.KindNoFramesExtracted, "No frames could be extracted from the GIF", err))
		default:
			ResponseError(c, errno.Wrap(errno.KindInvalidInput, "Failed to decode GIF", err))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"frames": gifx.ToDataURLs(frames)})
}
