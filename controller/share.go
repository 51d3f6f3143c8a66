package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"prizmora/pkg/errno"
	"prizmora/pkg/share"
)

// ShareHandler 生成社交平台分享链接
func (h *Handler) ShareHandler(c *gin.Context) {
	platform := c.Query("platform")
	u, err := share.URL(platform, c.Query("url"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"shareUrl": u})
	case errors.Is(err, share.ErrUnsupportedPlatform) && strings.EqualFold(platform, share.PlatformInstagram):
		ResponseError(c, errno.Wrap(errno.KindInvalidInput, share.InstagramHint, err))
	case errors.Is(err, share.ErrUnsupportedPlatform):
		ResponseError(c, errno.Wrap(errno.KindInvalidInput, "Unsupported share platform", err))
	default:
		ResponseError(c, errno.Wrap(errno.KindInvalidInput, "url is required", err))
	}
}
