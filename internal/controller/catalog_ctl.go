package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog_studio_v1_202610/internal/api/dto"
	"catalog_studio_v1_202610/internal/apperr"
	"catalog_studio_v1_202610/internal/model"
	"catalog_studio_v1_202610/internal/service"
)

// CatalogController 品牌/分类
type CatalogController struct {
	catalogService *service.CatalogService
}

func NewCatalogController(catalogService *service.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

// References 品牌与分类列表
func (ctrl *CatalogController) References(c *gin.Context) {
	refs, err := ctrl.catalogService.References(c.Request.Context())
	if err != nil {
		respondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    refs,
	})
}

// CreateBrand 新增品牌
func (ctrl *CatalogController) CreateBrand(c *gin.Context) {
	ctrl.create(c, ctrl.catalogService.CreateBrand)
}

// CreateCategory 新增分类
func (ctrl *CatalogController) CreateCategory(c *gin.Context) {
	ctrl.create(c, ctrl.catalogService.CreateCategory)
}

func (ctrl *CatalogController) create(c *gin.Context, create func(ctx context.Context, name string) (*model.CatalogRef, error)) {
	var req dto.CreateCatalogEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	ref, err := create(c.Request.Context(), req.Name)
	if err != nil {
		respondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "success",
		"data":    ref,
	})
}

func respondAppError(c *gin.Context, err error) {
	appErr := service.ToAppError(err)
	status := apperr.HTTPStatus(appErr)
	c.JSON(status, gin.H{
		"code":    status,
		"message": apperr.PublicMessage(appErr),
	})
}
