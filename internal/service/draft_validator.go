package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"catalog_studio_v1_202610/internal/model"
)

// ValidateDraft 提交前的跨字段校验，按固定顺序执行，遇到第一条失败即返回
// 返回 nil 表示通过；本函数不修改草稿
func ValidateDraft(draft *model.ProductDraft) *ValidationError {
	// 1. 名称
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "Name is required"}
	}
	if n := utf8.RuneCountInString(name); n < model.NameMinLen || n > model.NameMaxLen {
		return &ValidationError{Field: "name", Message: fmt.Sprintf(
			"Name must be between %d and %d characters", model.NameMinLen, model.NameMaxLen)}
	}

	// 2. 描述
	description := strings.TrimSpace(draft.Description)
	if description == "" {
		return &ValidationError{Field: "description", Message: "Description is required"}
	}
	if n := utf8.RuneCountInString(description); n < model.DescriptionMinLen || n > model.DescriptionMaxLen {
		return &ValidationError{Field: "description", Message: fmt.Sprintf(
			"Description must be between %d and %d characters", model.DescriptionMinLen, model.DescriptionMaxLen)}
	}

	// 3-4. 品牌 / 分类
	if strings.TrimSpace(draft.BrandRef) == "" {
		return &ValidationError{Field: "brand", Message: "Brand is required"}
	}
	if strings.TrimSpace(draft.CategoryRef) == "" {
		return &ValidationError{Field: "category", Message: "Category is required"}
	}

	// 结构兜底：变体数量由 AddVariant/RemoveVariant 保证，经表单构建的草稿不会在这里失败
	if len(draft.Variants) < model.MinVariants {
		return &ValidationError{Field: "variants", Message: "At least one variant is required"}
	}
	if len(draft.Variants) > model.MaxVariants {
		return &ValidationError{Field: "variants", Message: fmt.Sprintf(
			"At most %d variants are allowed", model.MaxVariants)}
	}

	// 5. 逐个变体
	for i, v := range draft.Variants {
		if err := validateVariant(i+1, v); err != nil {
			return err
		}
	}

	// 6. 图片数量二次兜底
	for i, v := range draft.Variants {
		if len(v.Images) < model.ImagesPerVariant {
			return &ValidationError{Field: "images", Variant: i + 1, Message: fmt.Sprintf(
				"Every variant needs %d images (variant %d is incomplete)", model.ImagesPerVariant, i+1)}
		}
	}

	return nil
}

func validateVariant(pos int, v *model.Variant) *ValidationError {
	if strings.TrimSpace(v.Color) == "" {
		return &ValidationError{Field: "color", Variant: pos,
			Message: fmt.Sprintf("Variant %d: color is required", pos)}
	}
	if v.Quantity < 0 {
		return &ValidationError{Field: "quantity", Variant: pos,
			Message: fmt.Sprintf("Variant %d: quantity cannot be negative", pos)}
	}
	if v.Price == nil || !v.Price.IsPositive() {
		return &ValidationError{Field: "price", Variant: pos,
			Message: fmt.Sprintf("Variant %d: price must be greater than 0", pos)}
	}
	if v.DiscountPrice != nil {
		if !v.DiscountPrice.IsPositive() || !v.DiscountPrice.LessThan(*v.Price) {
			return &ValidationError{Field: "discountPrice", Variant: pos,
				Message: fmt.Sprintf("Variant %d: discount price must be greater than 0 and less than price", pos)}
		}
	}
	if len(v.Images) != model.ImagesPerVariant {
		return &ValidationError{Field: "images", Variant: pos,
			Message: fmt.Sprintf("Variant %d: exactly %d images are required", pos, model.ImagesPerVariant)}
	}
	return nil
}
