package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"catalog_studio_v1_202610/internal/controller"
	"catalog_studio_v1_202610/internal/middleware"
	"catalog_studio_v1_202610/internal/service"
)

// multipart 内存上限：略大于单张原图上限
const maxMultipartMemory = service.MaxIntakeBytes + 512*1024

// NewEngine 创建 gin 引擎并挂载公共中间件
func NewEngine(logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	return r
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine,
	gatherer prometheus.Gatherer,
	submitLimiter *middleware.SubmitLimiter,
	formCtl *controller.FormController,
	catalogCtl *controller.CatalogController) {
	// 1. 指标
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// 2. API 路由组（全部需要操作员登录）
	api := r.Group("/api", middleware.JWTAuth(), middleware.AuditContext())
	{
		// forms 商品表单
		forms := api.Group("/forms")
		{
			// POST /api/forms
			forms.POST("", formCtl.Open)
			forms.GET("/:form_id", formCtl.Get)
			forms.PATCH("/:form_id", formCtl.UpdateDetails)
			forms.DELETE("/:form_id", formCtl.Close)

			// 变体
			forms.POST("/:form_id/variants", formCtl.AddVariant)
			forms.PATCH("/:form_id/variants/:variant_id", formCtl.UpdateVariant)
			forms.DELETE("/:form_id/variants/:variant_id", formCtl.RemoveVariant)

			// 图片：上传原图即打开裁剪会话
			forms.POST("/:form_id/variants/:variant_id/images", formCtl.UploadImage)
			forms.DELETE("/:form_id/variants/:variant_id/images/:index", formCtl.RemoveImage)
			forms.POST("/:form_id/variants/:variant_id/images/:index/publish", formCtl.PublishImage)
			forms.GET("/:form_id/previews/:handle", formCtl.Preview)

			// 裁剪
			forms.PUT("/:form_id/crop", formCtl.AdjustCrop)
			forms.POST("/:form_id/crop/apply", formCtl.ApplyCrop)
			forms.DELETE("/:form_id/crop", formCtl.CancelCrop)

			// POST /api/forms/:form_id/submit
			forms.POST("/:form_id/submit", middleware.SubmitRateLimit(submitLimiter, formCtl.HasForm), formCtl.Submit)
		}
		// catalog 品牌/分类
		catalog := api.Group("/catalog")
		{
			catalog.GET("/references", catalogCtl.References)
			catalog.POST("/brands", middleware.RequireRole(middleware.RoleAdmin), catalogCtl.CreateBrand)
			catalog.POST("/categories", middleware.RequireRole(middleware.RoleAdmin), catalogCtl.CreateCategory)
		}
	}
}
