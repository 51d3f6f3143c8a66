package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"prizmora/pkg/errno"
	"prizmora/pkg/ipfs"
)

// maxUploadSize 单文件上传上限
const maxUploadSize = 32 << 20

// UploadFileHandler multipart file -> {cid}
// @Summary 固定文件到 IPFS
// @Tags IPFS
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "待上传文件"
// @Success 200 {object} map[string]string "cid"
// @Failure 400 {object} ErrorResponse
// @Router /api/ipfs/upload [post]
func (h *Handler) UploadFileHandler(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		ResponseErrorWithMsg(c, errno.KindInvalidInput, "No file provided")
		return
	}
	if fh.Size > maxUploadSize {
		ResponseErrorWithMsg(c, errno.KindInvalidInput, "File too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		ResponseError(c, errno.Wrap(errno.KindInvalidInput, "Failed to read file", err))
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	cid, err := h.Pinner.PinFile(c.Request.Context(), fh.Filename, contentType, f)
	if err != nil {
		ResponseError(c, errno.Wrap(errno.KindUpstreamUnavailable, "Failed to upload file to IPFS", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"cid": cid, "uri": ipfs.URI(cid), "gatewayUrl": ipfs.GatewayURL(h.Gateway, cid)})
}

// UploadJSONHandler JSON 文档 -> {cid}
// @Summary 固定 JSON 到 IPFS
// @Tags IPFS
// @Router /api/ipfs/upload-json [post]
func (h *Handler) UploadJSONHandler(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadSize))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		ResponseErrorWithMsg(c, errno.KindInvalidInput, "No JSON data provided")
		return
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		ResponseError(c, errno.Wrap(errno.KindInvalidInput, "Invalid JSON data", err))
		return
	}
	if doc == nil {
		ResponseErrorWithMsg(c, errno.KindInvalidInput, "No JSON data provided")
		return
	}

	cid, err := h.Pinner.PinJSON(c.Request.Context(), doc)
	if err != nil {
		ResponseError(c, errno.Wrap(errno.KindUpstreamUnavailable, "Failed to upload JSON to IPFS", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"cid": cid, "uri": ipfs.URI(cid), "gatewayUrl": ipfs.GatewayURL(h.Gateway, cid)})
}
