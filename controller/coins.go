package controller

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"prizmora/pkg/errno"
	"prizmora/pkg/zora"
)

// ListCoinsHandler 币列表
// @Summary 查询币列表
// @Tags Coins
// @Produce json
// @Param type query string true "trending | new | user"
// @Param count query int false "每页数量，默认 10"
// @Param after query string false "分页游标"
// @Param address query string false "type=user 时必填"
// @Success 200 {object} models.CoinPage
// @Failure 400 {object} ErrorResponse
// @Failure 501 {object} ErrorResponse "上游不支持该列表"
// @Router /api/coins [get]
func (h *Handler) ListCoinsHandler(c *gin.Context) {
	count := 0
	if s := c.Query("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			ResponseErrorWithMsg(c, errno.KindInvalidInput, "Invalid count parameter")
			return
		}
		count = n
	}

	page, err := h.Coins.List(c.Request.Context(), c.Query("type"), count, c.Query("after"), c.Query("address"))
	if err != nil {
		e, ok := errno.As(err)
		if !ok {
			e = errno.Wrap(errno.KindUnknown, "Failed to fetch coins", err)
		}
		c.JSON(e.HTTPStatus(), gin.H{"error": e.Message, "details": e.Details, "coins": page.Coins, "pageInfo": page.PageInfo})
		return
	}
	c.JSON(http.StatusOK, page)
}

// MintCoinHandler 把融合结果铸造成币
// @Summary 铸币
// @Description 固定图片和元数据到 IPFS 后调用 Zora 工厂合约创建币，不自动重试
// @Tags Coins
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "图片"
// @Param title formData string true "名称"
// @Param symbol formData string true "代号"
// @Param description formData string false "描述"
// @Param creatorAddress formData string false "收益地址"
// @Success 200 {object} models.CoinCreationResult
// @Failure 412 {object} models.CoinCreationResult "钱包未连接"
// @Router /api/coins/mint [post]
func (h *Handler) MintCoinHandler(c *gin.Context) {
	req := zora.MintRequest{
		Title:       c.PostForm("title"),
		Symbol:      c.PostForm("symbol"),
		Description: c.PostForm("description"),
		Creator:     c.PostForm("creatorAddress"),
	}
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > maxUploadSize {
			ResponseErrorWithMsg(c, errno.KindInvalidInput, "File too large")
			return
		}
		f, err := fh.Open()
		if err != nil {
			ResponseError(c, errno.Wrap(errno.KindInvalidInput, "Failed to read file", err))
			return
		}
		req.Content, err = io.ReadAll(f)
		f.Close()
		if err != nil {
			ResponseError(c, errno.Wrap(errno.KindInvalidInput, "Failed to read file", err))
			return
		}
		req.FileName = fh.Filename
		req.ContentType = fh.Header.Get("Content-Type")
		if req.ContentType == "" || req.ContentType == "application/octet-stream" {
			req.ContentType = http.DetectContentType(req.Content)
		}
	}

	res, err := h.Minter.Mint(c.Request.Context(), req)
	if err != nil {
		c.JSON(errno.StatusOf(err), res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CoinReceiptHandler 按交易哈希查询新币地址
// @Summary 查询铸币结果
// @Tags Coins
// @Router /api/coins/receipt/{hash} [get]
func (h *Handler) CoinReceiptHandler(c *gin.Context) {
	addr, err := h.Minter.Lookup(c.Request.Context(), c.Param("hash"))
	if err != nil {
		ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr})
}
