package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_studio_v1_202610/internal/model"
)

func TestAssemblePayload_Parts(t *testing.T) {
	d := validDraft(2)
	payload := AssemblePayload(d)

	require.Len(t, payload.Parts, 6)
	for i := range d.Variants {
		parts := payload.PartsFor(VariantField(i))
		require.Len(t, parts, 3)
		for j, part := range parts {
			assert.Equal(t, d.Variants[i].Images[j].Blob, part.Data, "保持录入顺序")
			assert.Equal(t, OutputContentType, part.ContentType)
		}
	}
	assert.Equal(t, "variant1_0.jpg", payload.PartsFor("variant1")[0].Filename)
	assert.Equal(t, "variant1_2.jpg", payload.PartsFor("variant1")[2].Filename)
	assert.Empty(t, payload.PartsFor("variant2"))
}

func TestAssemblePayload_Metadata(t *testing.T) {
	d := validDraft(2)
	d.Variants[0].Price = model.Decimal("19.90")
	d.Variants[1].DiscountPrice = model.Decimal("20")

	raw, err := AssemblePayload(d).MetadataJSON()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Linen Shirt", got["name"])
	assert.Equal(t, "1", got["brand"])
	assert.Equal(t, "2", got["category"])

	variants := got["variants"].([]any)
	require.Len(t, variants, 2)

	first := variants[0].(map[string]any)
	assert.Equal(t, 19.9, first["price"], "价格以数字输出")
	assert.Equal(t, float64(10), first["quantity"])
	_, hasDiscount := first["discountPrice"]
	assert.False(t, hasDiscount, "无折扣时不输出字段")

	second := variants[1].(map[string]any)
	assert.Equal(t, float64(20), second["discountPrice"])
}

func TestAssemblePayload_IndexFollowsCurrentOrder(t *testing.T) {
	d := validDraft(3)
	d.Variants[2].Images[0].Blob = []byte("third")

	// 删除第一个变体后，原第三个变体变为 variant1
	d.Variants = d.Variants[1:]
	payload := AssemblePayload(d)

	assert.Equal(t, []byte("third"), payload.PartsFor("variant1")[0].Data)
	assert.Empty(t, payload.PartsFor("variant2"))
}
