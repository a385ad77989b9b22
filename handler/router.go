package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 配置路由; secret 为空时 /api 不做认证
func NewRouter(h *Handler, secret []byte, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "ok",
		})
	})

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	if len(secret) > 0 {
		api.Use(AuthMiddleware(secret))
	}
	{
		api.POST("/edges", h.MergeEdge)
		api.POST("/edges/batch", h.MergeBatch)
	}
	return r
}
