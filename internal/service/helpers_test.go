package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"catalog_studio_v1_202610/internal/model"
)

// ==================== 测试图片 ====================

// pngBytes 生成 w x h 的 PNG，左半红右半蓝，便于检查裁剪区域
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= w/2 {
				c = color.RGBA{B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngSource(t *testing.T, w, h int) SourceImage {
	return SourceImage{Name: "photo.png", ContentType: "image/png", Data: pngBytes(t, w, h)}
}

// ==================== 测试草稿 ====================

func fakeAsset(tag string) model.ImageAsset {
	return model.ImageAsset{
		Blob:          []byte(tag),
		ContentType:   OutputContentType,
		Width:         100,
		Height:        100,
		PreviewHandle: "handle-" + tag,
	}
}

// validDraft 一个能通过校验的草稿，variants 个变体各 3 张图
func validDraft(variants int) *model.ProductDraft {
	d := &model.ProductDraft{
		Name:        "Linen Shirt",
		Description: "A breathable linen shirt.",
		BrandRef:    "1",
		CategoryRef: "2",
	}
	for i := 0; i < variants; i++ {
		v := model.NewVariant()
		v.Color = "Blue"
		v.Quantity = 10
		v.Price = model.Decimal("25.00")
		v.Images = []model.ImageAsset{fakeAsset("a"), fakeAsset("b"), fakeAsset("c")}
		d.Variants = append(d.Variants, v)
	}
	return d
}

// ==================== Mock 实现 ====================

type mockReferenceProvider struct {
	refs *CatalogReferences
	err  error
}

func (m *mockReferenceProvider) References(ctx context.Context) (*CatalogReferences, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.refs != nil {
		return m.refs, nil
	}
	return &CatalogReferences{
		Brands:     []model.CatalogRef{{ID: "1", Name: "Acme"}},
		Categories: []model.CatalogRef{{ID: "2", Name: "Shirts"}},
	}, nil
}

type mockSubmitter struct {
	mu       sync.Mutex
	calls    int
	payloads []*WirePayload
	SubmitFn func(ctx context.Context, payload *WirePayload) error
}

func (m *mockSubmitter) Submit(ctx context.Context, payload *WirePayload) error {
	m.mu.Lock()
	m.calls++
	m.payloads = append(m.payloads, payload)
	m.mu.Unlock()
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, payload)
	}
	return nil
}

func (m *mockSubmitter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockAssetStore struct {
	UploadFn func(ctx context.Context, data []byte, filename string, contentType string) (string, error)
}

func (m *mockAssetStore) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, data, filename, contentType)
	}
	return "https://cdn.example.com/" + filename, nil
}

type recordingRevoker struct {
	revoked []string
}

func (r *recordingRevoker) Revoke(handle string) {
	r.revoked = append(r.revoked, handle)
}
