package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prizmora/pkg/errno"
)

// ErrorResponse 所有接口统一的失败响应体
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ResponseError 按错误类别返回状态码与 {error, details}
func ResponseError(c *gin.Context, err error) {
	e, ok := errno.As(err)
	if !ok {
		e = errno.Wrap(errno.KindUnknown, "Internal server error", err)
	}
	status := e.HTTPStatus()
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.String("kind", string(e.Kind)), zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Error: e.Message, Details: e.Details})
}

// ResponseErrorWithMsg 直接以给定类别和文案返回
func ResponseErrorWithMsg(c *gin.Context, kind errno.Kind, msg string) {
	ResponseError(c, errno.New(kind, msg))
}
