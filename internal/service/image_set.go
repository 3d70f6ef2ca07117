package service

import (
	"fmt"

	"catalog_studio_v1_202610/internal/model"
)

// PreviewRevoker 图片集只需要撤销能力
type PreviewRevoker interface {
	Revoke(handle string)
}

// VariantImageSet 单个变体的有界图片集合
type VariantImageSet struct {
	variant  *model.Variant
	previews PreviewRevoker
	capacity int
}

// NewVariantImageSet 包装变体的图片序列
func NewVariantImageSet(variant *model.Variant, previews PreviewRevoker) *VariantImageSet {
	return &VariantImageSet{
		variant:  variant,
		previews: previews,
		capacity: model.ImagesPerVariant,
	}
}

// Len 当前数量
func (s *VariantImageSet) Len() int {
	return len(s.variant.Images)
}

// Full 是否已到上限（上限时前端应禁用继续录入）
func (s *VariantImageSet) Full() bool {
	return len(s.variant.Images) >= s.capacity
}

// Append 追加到末尾；已满时不做任何事并返回 false
func (s *VariantImageSet) Append(asset model.ImageAsset) bool {
	if s.Full() {
		return false
	}
	s.variant.Images = append(s.variant.Images, asset)
	return true
}

// RemoveAt 先移除，再撤销句柄
func (s *VariantImageSet) RemoveAt(index int) (model.ImageAsset, error) {
	images := s.variant.Images
	if index < 0 || index >= len(images) {
		return model.ImageAsset{}, fmt.Errorf("%w: index %d", ErrImageNotFound, index)
	}

	removed := images[index]
	next := make([]model.ImageAsset, 0, len(images)-1)
	next = append(next, images[:index]...)
	next = append(next, images[index+1:]...)
	s.variant.Images = next

	s.previews.Revoke(removed.PreviewHandle)
	return removed, nil
}

// Clear 变体被删除时释放全部图片
func (s *VariantImageSet) Clear() {
	for s.Len() > 0 {
		_, _ = s.RemoveAt(s.Len() - 1)
	}
}

// At 读取指定位置
func (s *VariantImageSet) At(index int) (model.ImageAsset, bool) {
	if index < 0 || index >= len(s.variant.Images) {
		return model.ImageAsset{}, false
	}
	return s.variant.Images[index], true
}
