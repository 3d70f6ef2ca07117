package dto

import (
	"github.com/shopspring/decimal"

	"catalog_studio_v1_202610/internal/model"
)

// ==================== 请求 DTO ====================

// OpenFormResponse 打开表单响应
type OpenFormResponse struct {
	Form *FormVO `json:"form"`
}

// UpdateFormRequest 更新商品基础信息（部分更新）
type UpdateFormRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	BrandRef    *string `json:"brand,omitempty"`
	CategoryRef *string `json:"category,omitempty"`
}

// UpdateVariantRequest 更新变体（部分更新）
type UpdateVariantRequest struct {
	Color         *string          `json:"color,omitempty"`
	Quantity      *int             `json:"quantity,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	ClearDiscount bool             `json:"clear_discount,omitempty"`
}

// CropRectRequest 更新裁剪框
type CropRectRequest struct {
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	Width   float64      `json:"width" binding:"gte=0"`
	Height  float64      `json:"height" binding:"gte=0"`
	Display *DisplaySize `json:"display,omitempty"`
}

// DisplaySize 前端显示尺寸
type DisplaySize struct {
	Width  float64 `json:"width" binding:"gt=0"`
	Height float64 `json:"height" binding:"gt=0"`
}

// ==================== 响应 DTO ====================

// FormVO 表单视图
type FormVO struct {
	FormID      string             `json:"form_id"`
	State       string             `json:"state"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	BrandRef    string             `json:"brand"`
	CategoryRef string             `json:"category"`
	Variants    []VariantVO        `json:"variants"`
	CanAdd      bool               `json:"can_add_variant"`
	Crop        *CropVO            `json:"crop,omitempty"`
	Brands      []model.CatalogRef `json:"brands"`
	Categories  []model.CatalogRef `json:"categories"`
}

// VariantVO 变体视图
type VariantVO struct {
	ID            string    `json:"id"`
	Position      int       `json:"position"`
	Color         string    `json:"color"`
	Quantity      int       `json:"quantity"`
	Price         *string   `json:"price,omitempty"`
	DiscountPrice *string   `json:"discount_price,omitempty"`
	Activity      string    `json:"activity"`
	CanAddImage   bool      `json:"can_add_image"`
	Images        []ImageVO `json:"images"`
}

// ImageVO 图片视图
type ImageVO struct {
	Index         int    `json:"index"`
	PreviewHandle string `json:"preview_handle"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Size          int    `json:"size"`
}

// CropVO 裁剪会话视图
type CropVO struct {
	State         string  `json:"state"`
	SourceName    string  `json:"source_name"`
	TargetVariant string  `json:"target_variant"`
	NaturalWidth  int     `json:"natural_width"`
	NaturalHeight int     `json:"natural_height"`
	DisplayWidth  float64 `json:"display_width"`
	DisplayHeight float64 `json:"display_height"`
	Rect          *RectVO `json:"rect,omitempty"`
}

// RectVO 裁剪框
type RectVO struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PublishImageResult 发布到远程存储的结果
type PublishImageResult struct {
	URL string `json:"url"`
}

// CreateCatalogEntryRequest 新增品牌/分类
type CreateCatalogEntryRequest struct {
	Name string `json:"name" binding:"required,max=128"`
}
