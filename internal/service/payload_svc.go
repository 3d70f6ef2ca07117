package service

import (
	"encoding/json"
	"fmt"

	"catalog_studio_v1_202610/internal/model"
)

// ==================== 传输结构 ====================

// MetadataField 元数据 part 的字段名
const MetadataField = "data"

// VariantMetadata 变体精简信息（不含图片）
type VariantMetadata struct {
	Color         string       `json:"color"`
	Quantity      int          `json:"quantity"`
	Price         json.Number  `json:"price"`
	DiscountPrice *json.Number `json:"discountPrice,omitempty"`
}

// DraftMetadata JSON 元数据 part
type DraftMetadata struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Brand       string            `json:"brand"`
	Category    string            `json:"category"`
	Variants    []VariantMetadata `json:"variants"`
}

// BinaryPart 图片二进制 part
type BinaryPart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// WirePayload 提交边界接收的 multipart 结构
type WirePayload struct {
	Metadata DraftMetadata
	Parts    []BinaryPart
}

// MetadataJSON 序列化元数据
func (p *WirePayload) MetadataJSON() ([]byte, error) {
	return json.Marshal(p.Metadata)
}

// PartsFor 取指定字段下的全部图片，保持顺序
func (p *WirePayload) PartsFor(field string) []BinaryPart {
	var parts []BinaryPart
	for _, part := range p.Parts {
		if part.Field == field {
			parts = append(parts, part)
		}
	}
	return parts
}

// VariantField 变体图片的字段名
func VariantField(index int) string {
	return fmt.Sprintf("variant%d", index)
}

// ==================== 组装 ====================

// AssemblePayload 纯组装，不做任何校验；只能在 ValidateDraft 通过后调用
func AssemblePayload(draft *model.ProductDraft) *WirePayload {
	payload := &WirePayload{
		Metadata: DraftMetadata{
			Name:        draft.Name,
			Description: draft.Description,
			Brand:       draft.BrandRef,
			Category:    draft.CategoryRef,
			Variants:    make([]VariantMetadata, 0, len(draft.Variants)),
		},
	}

	for i, v := range draft.Variants {
		meta := VariantMetadata{
			Color:    v.Color,
			Quantity: v.Quantity,
		}
		meta.Price = json.Number("0")
		if v.Price != nil {
			meta.Price = json.Number(v.Price.String())
		}
		if v.DiscountPrice != nil {
			n := json.Number(v.DiscountPrice.String())
			meta.DiscountPrice = &n
		}
		payload.Metadata.Variants = append(payload.Metadata.Variants, meta)

		field := VariantField(i)
		for j, img := range v.Images {
			payload.Parts = append(payload.Parts, BinaryPart{
				Field:       field,
				Filename:    fmt.Sprintf("%s_%d.jpg", field, j),
				ContentType: img.ContentType,
				Data:        img.Blob,
			})
		}
	}

	return payload
}
