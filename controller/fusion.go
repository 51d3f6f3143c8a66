package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prizmora/models"
	"prizmora/pkg/errno"
	"prizmora/pkg/fusion"
)

// GenerateImageHandler 生成融合图片
// @Summary 图片融合生成
// @Description 根据提示词和最多 4 张参考图生成一张图片，主服务失败时自动切换备用服务一次
// @Tags Fusion
// @Accept json
// @Produce json
// @Param request body models.GenerateRequest true "prompt 与 images（URL 或 data URI）"
// @Success 200 {object} models.GenerateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse "两个生成服务都失败"
// @Router /api/generate-image [post]
func (h *Handler) GenerateImageHandler(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("generate-image with invalid param", zap.Error(err))
		ResponseError(c, errno.Wrap(errno.KindInvalidInput, "Invalid request", err))
		return
	}

	gen, err := h.Fusion.Generate(c.Request.Context(), req.Prompt, req.Images, h.observer(req.Session))
	if err != nil {
		ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.GenerateResponse{ImageURL: gen.ImageURL, IsMock: gen.IsMock})
}

// FuseHandler 生成并镜像，一次返回下载地址与分享地址
// @Summary 完整融合流程
// @Tags Fusion
// @Router /api/fuse [post]
func (h *Handler) FuseHandler(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("fuse with invalid param", zap.Error(err))
		ResponseError(c, errno.Wrap(errno.KindInvalidInput, "Invalid request", err))
		return
	}

	res, err := h.Fusion.Fuse(c.Request.Context(), req.Prompt, req.Images, h.observer(req.Session))
	if err != nil {
		ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UploadToCloudinaryHandler 把图片镜像到 Cloudinary
// @Summary 图片镜像
// @Description 未配置 Cloudinary 时直接返回原地址并标记 isDevelopment
// @Tags Fusion
// @Accept json
// @Produce json
// @Param request body models.MirrorRequest true "imageUrl"
// @Success 200 {object} models.MirrorResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/upload-to-cloudinary [post]
func (h *Handler) UploadToCloudinaryHandler(c *gin.Context) {
	var req models.MirrorRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ImageURL) == "" {
		ResponseErrorWithMsg(c, errno.KindInvalidInput, "No image URL provided")
		return
	}

	if h.Mirror == nil || !h.Mirror.Configured() {
		zap.L().Info("cloudinary not configured, returning original url")
		c.JSON(http.StatusOK, models.MirrorResponse{
			Success:       true,
			CloudinaryURL: req.ImageURL,
			Message:       "Cloudinary not configured, using original URL",
			IsDevelopment: true,
		})
		return
	}

	url, err := h.Mirror.Upload(c.Request.Context(), req.ImageURL)
	if err != nil {
		if h.DevMode {
			zap.L().Warn("cloudinary upload failed, using original url in development", zap.Error(err))
			c.JSON(http.StatusOK, models.MirrorResponse{
				Success:       true,
				CloudinaryURL: req.ImageURL,
				Message:       "Using original URL due to Cloudinary error in development",
				Error:         err.Error(),
				IsDevelopment: true,
			})
			return
		}
		ResponseError(c, errno.Wrap(errno.KindUpstreamUnavailable, "Failed to upload to Cloudinary", err))
		return
	}
	c.JSON(http.StatusOK, models.MirrorResponse{Success: true, CloudinaryURL: url})
}

// observer 请求带 session 时把阶段事件推送到 SSE
func (h *Handler) observer(session string) fusion.Observer {
	if session == "" || h.Hub == nil {
		return nil
	}
	return func(ev models.FusionEvent) {
		ev.Session = session
		h.Hub.PublishJSON(session, ev)
	}
}
