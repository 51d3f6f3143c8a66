package controller

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"prizmora/pkg/logger"
	"prizmora/pkg/metrics"
	"prizmora/pkg/sse"
)

// RouterConfig 路由层配置
type RouterConfig struct {
	Release      bool
	AllowOrigins []string
	Metrics      *metrics.Metrics
}

// SetupRouter 注册全部路由
func SetupRouter(h *Handler, conf RouterConfig) *gin.Engine {
	if conf.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery(true))

	corsConf := cors.DefaultConfig()
	if len(conf.AllowOrigins) == 0 || (len(conf.AllowOrigins) == 1 && conf.AllowOrigins[0] == "*") {
		corsConf.AllowAllOrigins = true
	} else {
		corsConf.AllowOrigins = conf.AllowOrigins
	}
	corsConf.AllowHeaders = append(corsConf.AllowHeaders, "Authorization", logger.RequestIDHeader)
	corsConf.ExposeHeaders = []string{logger.RequestIDHeader}
	corsConf.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConf))

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	if conf.Metrics != nil {
		r.GET("/metrics", conf.Metrics.Handler())
	}
	if h.Hub != nil {
		r.GET("/events", sse.Handler(h.Hub))
	}

	api := r.Group("/api")
	{
		api.POST("/generate-image", h.GenerateImageHandler)
		api.POST("/fuse", h.FuseHandler)
		api.POST("/upload-to-cloudinary", h.UploadToCloudinaryHandler)

		api.POST("/gif/frames", h.GIFFramesHandler)

		api.POST("/ipfs/upload", h.UploadFileHandler)
		api.POST("/ipfs/upload-json", h.UploadJSONHandler)

		api.GET("/coins", h.ListCoinsHandler)
		api.POST("/coins/mint", h.MintCoinHandler)
		api.GET("/coins/receipt/:hash", h.CoinReceiptHandler)

		api.GET("/share", h.ShareHandler)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "404"})
	})
	return r
}
