package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_studio_v1_202610/internal/model"
)

func TestValidateDraft_Valid(t *testing.T) {
	for n := model.MinVariants; n <= model.MaxVariants; n++ {
		assert.Nil(t, ValidateDraft(validDraft(n)))
	}
}

func TestValidateDraft_Fields(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(d *model.ProductDraft)
		wantField   string
		wantVariant int
	}{
		{"名称为空", func(d *model.ProductDraft) { d.Name = "   " }, "name", 0},
		{"名称 2 字符", func(d *model.ProductDraft) { d.Name = "ab" }, "name", 0},
		{"名称 101 字符", func(d *model.ProductDraft) { d.Name = strings.Repeat("a", 101) }, "name", 0},
		{"描述为空", func(d *model.ProductDraft) { d.Description = "" }, "description", 0},
		{"描述 9 字符", func(d *model.ProductDraft) { d.Description = strings.Repeat("d", 9) }, "description", 0},
		{"描述 1001 字符", func(d *model.ProductDraft) { d.Description = strings.Repeat("d", 1001) }, "description", 0},
		{"缺少品牌", func(d *model.ProductDraft) { d.BrandRef = "" }, "brand", 0},
		{"缺少分类", func(d *model.ProductDraft) { d.CategoryRef = "" }, "category", 0},
		{"无变体", func(d *model.ProductDraft) { d.Variants = nil }, "variants", 0},
		{"颜色为空", func(d *model.ProductDraft) { d.Variants[1].Color = "" }, "color", 2},
		{"库存为负", func(d *model.ProductDraft) { d.Variants[0].Quantity = -1 }, "quantity", 1},
		{"缺少价格", func(d *model.ProductDraft) { d.Variants[0].Price = nil }, "price", 1},
		{"价格为 0", func(d *model.ProductDraft) { d.Variants[0].Price = model.Decimal("0") }, "price", 1},
		{"折扣等于价格", func(d *model.ProductDraft) { d.Variants[0].DiscountPrice = model.Decimal("25.00") }, "discountPrice", 1},
		{"折扣为 0", func(d *model.ProductDraft) { d.Variants[0].DiscountPrice = model.Decimal("0") }, "discountPrice", 1},
		{"图片不足", func(d *model.ProductDraft) { d.Variants[1].Images = d.Variants[1].Images[:2] }, "images", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft(2)
			tt.mutate(d)

			err := ValidateDraft(d)
			require.NotNil(t, err)
			assert.Equal(t, tt.wantField, err.Field)
			assert.Equal(t, tt.wantVariant, err.Variant)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestValidateDraft_Boundaries(t *testing.T) {
	d := validDraft(1)
	d.Name = "abc"
	d.Description = strings.Repeat("d", 10)
	d.Variants[0].Quantity = 0
	d.Variants[0].DiscountPrice = model.Decimal("24.99")
	assert.Nil(t, ValidateDraft(d))

	d.Name = strings.Repeat("名", 100)
	d.Description = strings.Repeat("描", 1000)
	assert.Nil(t, ValidateDraft(d), "按字符而不是字节计数")
}

func TestValidateDraft_FirstFailureWins(t *testing.T) {
	d := validDraft(2)
	d.Name = ""
	d.Variants[0].Color = ""

	err := ValidateDraft(d)
	require.NotNil(t, err)
	assert.Equal(t, "name", err.Field)
}

func TestValidateDraft_VariantMessageNamesPosition(t *testing.T) {
	d := validDraft(3)
	d.Variants[2].Price = nil

	err := ValidateDraft(d)
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "Variant 3")
}

func TestValidateDraft_DoesNotMutate(t *testing.T) {
	d := validDraft(1)
	d.Name = "  Linen Shirt  "

	assert.Nil(t, ValidateDraft(d))
	assert.Equal(t, "  Linen Shirt  ", d.Name)
}
