package sse

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 订阅融合进度事件：GET /events?session=<id>
//
// 每个阶段推送一条 data: <FusionEvent JSON>。
func Handler(h *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		topic := c.Query("session")
		if topic == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session is required"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
			return
		}

		msgCh := make(chan []byte, 16)
		if !h.Subscribe(msgCh, topic) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event hub stopped"})
			return
		}
		defer func() {
			h.Unsubscribe(msgCh, topic)
			close(msgCh)
		}()

		c.Status(http.StatusOK)
		// 握手注释，部分代理需要首包保持连接
		fmt.Fprint(c.Writer, ": connected\n\n")
		flusher.Flush()

		notify := c.Request.Context().Done()
		for {
			select {
			case <-notify:
				return
			case msg := <-msgCh:
				fmt.Fprintf(c.Writer, "data: %s\n\n", msg)
				flusher.Flush()
				zap.L().Debug("sse event sent", zap.String("session", topic), zap.Int("bytes", len(msg)))
			}
		}
	}
}
