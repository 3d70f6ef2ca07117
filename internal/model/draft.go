package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== 业务约束 ====================

const (
	MinVariants = 1
	MaxVariants = 5

	// ImagesPerVariant 每个变体提交时必须恰好 3 张图，录入时同样封顶 3 张
	ImagesPerVariant = 3

	NameMinLen        = 3
	NameMaxLen        = 100
	DescriptionMinLen = 10
	DescriptionMaxLen = 1000
)

// ==================== 草稿模型 ====================

// ProductDraft 表单内编辑中的商品草稿（不落库）
type ProductDraft struct {
	Name        string
	Description string
	BrandRef    string
	CategoryRef string
	Variants    []*Variant
}

// Variant 可购买的变体
type Variant struct {
	ID            string
	Color         string
	Quantity      int
	Price         *decimal.Decimal
	DiscountPrice *decimal.Decimal
	Images        []ImageAsset
}

// ImageAsset 裁剪完成的图片
type ImageAsset struct {
	Blob          []byte
	ContentType   string
	Width         int
	Height        int
	PreviewHandle string
}

// NewVariant 创建空变体
func NewVariant() *Variant {
	return &Variant{ID: uuid.New().String()}
}

// NewProductDraft 表单打开时的初始草稿：一个空变体
func NewProductDraft() *ProductDraft {
	return &ProductDraft{Variants: []*Variant{NewVariant()}}
}

// ==================== 辅助方法 ====================

// IndexOf 按 ID 查找变体位置
func (d *ProductDraft) IndexOf(variantID string) int {
	for i, v := range d.Variants {
		if v.ID == variantID {
			return i
		}
	}
	return -1
}

// VariantByID 按 ID 获取变体
func (d *ProductDraft) VariantByID(variantID string) *Variant {
	if i := d.IndexOf(variantID); i >= 0 {
		return d.Variants[i]
	}
	return nil
}

// Decimal 构造价格指针
func Decimal(value string) *decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil
	}
	return &d
}
