package service

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ==================== 状态定义 ====================

// CropState 裁剪会话状态
type CropState string

const (
	CropIdle         CropState = "idle"
	CropSourceLoaded CropState = "source_loaded"
	CropAdjusting    CropState = "adjusting"
	CropApplied      CropState = "applied"
	CropCancelled    CropState = "cancelled"
)

const (
	// OutputQuality 输出 JPEG 质量（baseline）
	OutputQuality     = 90
	OutputContentType = "image/jpeg"
)

// ==================== 几何类型 ====================

// Dimensions 像素尺寸（原图）
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DisplaySize 前端显示尺寸（可能被缩放）
type DisplaySize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect 显示坐标系下的裁剪框，宽高比固定 1:1
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SourceImage 刚选中的原图（会话只引用，结束即释放）
type SourceImage struct {
	Name        string
	ContentType string
	Data        []byte
}

// EncodedImage 裁剪输出
type EncodedImage struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// CropSnapshot 会话只读视图
type CropSnapshot struct {
	State         CropState   `json:"state"`
	SourceName    string      `json:"source_name"`
	TargetVariant string      `json:"target_variant"`
	Natural       Dimensions  `json:"natural"`
	Display       DisplaySize `json:"display"`
	Rect          *Rect       `json:"rect,omitempty"`
}

// ==================== 会话 ====================

type cropSession struct {
	source     image.Image
	sourceName string
	natural    Dimensions
	display    DisplaySize
	rect       Rect
	hasRect    bool
	target     string
	state      CropState
}

// CropEngine 同一时刻最多持有一个裁剪会话
type CropEngine struct {
	session     *cropSession
	lastOutcome CropState
	quality     int
	logger      *zap.Logger
}

// NewCropEngine 创建裁剪引擎
func NewCropEngine(logger *zap.Logger) *CropEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CropEngine{
		lastOutcome: CropIdle,
		quality:     OutputQuality,
		logger:      logger.Named("crop"),
	}
}

// State 当前状态（Applied/Cancelled 结束后立即回到 Idle）
func (e *CropEngine) State() CropState {
	if e.session == nil {
		return CropIdle
	}
	return e.session.state
}

// LastOutcome 上一个会话的结束方式
func (e *CropEngine) LastOutcome() CropState {
	return e.lastOutcome
}

// Active 是否有会话
func (e *CropEngine) Active() bool {
	return e.session != nil
}

// Target 当前会话目标变体
func (e *CropEngine) Target() string {
	if e.session == nil {
		return ""
	}
	return e.session.target
}

// Snapshot 当前会话视图，无会话返回 nil
func (e *CropEngine) Snapshot() *CropSnapshot {
	s := e.session
	if s == nil {
		return nil
	}
	snap := &CropSnapshot{
		State:         s.state,
		SourceName:    s.sourceName,
		TargetVariant: s.target,
		Natural:       s.natural,
		Display:       s.display,
	}
	if s.hasRect {
		r := s.rect
		snap.Rect = &r
	}
	return snap
}

// Begin 打开会话并解码原图
func (e *CropEngine) Begin(src SourceImage, targetVariantID string) (*CropSnapshot, error) {
	if e.session != nil {
		e.logger.Error("重复打开裁剪会话",
			zap.String("open_target", e.session.target),
			zap.String("new_target", targetVariantID))
		return nil, ErrCropInvalidState
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(src.Data))
	if err != nil {
		e.logger.Warn("原图无法解码", zap.String("name", src.Name), zap.Error(err))
		return nil, &IntakeError{Reason: "unreadable image"}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &IntakeError{Reason: "unreadable image"}
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		e.logger.Warn("原图像素超限",
			zap.String("name", src.Name),
			zap.Int("width", cfg.Width),
			zap.Int("height", cfg.Height))
		return nil, &IntakeError{Reason: ReasonTooLarge}
	}

	img, _, err := image.Decode(bytes.NewReader(src.Data))
	if err != nil {
		e.logger.Warn("原图无法解码", zap.String("name", src.Name), zap.Error(err))
		return nil, &IntakeError{Reason: "unreadable image"}
	}

	b := img.Bounds()
	natural := Dimensions{Width: b.Dx(), Height: b.Dy()}
	if natural.Width == 0 || natural.Height == 0 {
		return nil, &IntakeError{Reason: "unreadable image"}
	}

	e.session = &cropSession{
		source:     img,
		sourceName: src.Name,
		natural:    natural,
		// 未上报显示尺寸时按 1:1 显示
		display: DisplaySize{Width: float64(natural.Width), Height: float64(natural.Height)},
		target:  targetVariantID,
		state:   CropSourceLoaded,
	}
	e.logger.Debug("裁剪会话已打开",
		zap.String("target", targetVariantID),
		zap.Int("width", natural.Width),
		zap.Int("height", natural.Height))

	return e.Snapshot(), nil
}

// SetDisplaySize 上报当前显示尺寸，已有裁剪框按新边界重新夹紧
func (e *CropEngine) SetDisplaySize(size DisplaySize) error {
	s := e.session
	if s == nil {
		return ErrNoActiveCrop
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil
	}
	s.display = size
	if s.hasRect {
		s.rect = clampSquare(s.rect, s.display)
		s.hasRect = s.rect.Width > 0
	}
	return nil
}

// UpdateRect 替换裁剪框：强制正方形，越界夹紧而不拒绝
func (e *CropEngine) UpdateRect(rect Rect) (Rect, error) {
	s := e.session
	if s == nil {
		return Rect{}, ErrNoActiveCrop
	}
	s.rect = clampSquare(rect, s.display)
	s.hasRect = s.rect.Width > 0
	s.state = CropAdjusting
	return s.rect, nil
}

// Apply 栅格化当前裁剪框并结束会话
func (e *CropEngine) Apply() (*EncodedImage, string, error) {
	s := e.session
	if s == nil || !s.hasRect {
		return nil, "", ErrNoActiveCrop
	}

	region := NativeRegion(s.rect, s.display, s.natural)
	if region.Empty() {
		return nil, "", ErrNoActiveCrop
	}

	// 输出画布尺寸 = 原图坐标系下的裁剪框
	dst := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	origin := s.source.Bounds().Min
	draw.Draw(dst, dst.Bounds(), s.source, origin.Add(region.Min), draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, "", fmt.Errorf("encode crop: %w", err)
	}

	target := s.target
	e.close(CropApplied)

	return &EncodedImage{
		Data:        buf.Bytes(),
		ContentType: OutputContentType,
		Width:       region.Dx(),
		Height:      region.Dy(),
	}, target, nil
}

// Cancel 放弃会话并释放原图，无会话时为空操作
func (e *CropEngine) Cancel() {
	if e.session == nil {
		return
	}
	e.close(CropCancelled)
}

func (e *CropEngine) close(outcome CropState) {
	e.session.state = outcome
	e.session.source = nil
	e.session = nil
	e.lastOutcome = outcome
}

// ==================== 几何换算 ====================

// NativeRegion 显示坐标 -> 原图像素坐标，每个轴按 natural/display 独立换算
func NativeRegion(rect Rect, display DisplaySize, natural Dimensions) image.Rectangle {
	if display.Width <= 0 || display.Height <= 0 {
		display = DisplaySize{Width: float64(natural.Width), Height: float64(natural.Height)}
	}
	scaleX := float64(natural.Width) / display.Width
	scaleY := float64(natural.Height) / display.Height

	x := clampInt(int(math.Round(rect.X*scaleX)), 0, natural.Width)
	y := clampInt(int(math.Round(rect.Y*scaleY)), 0, natural.Height)
	w := clampInt(int(math.Round(rect.Width*scaleX)), 0, natural.Width-x)
	h := clampInt(int(math.Round(rect.Height*scaleY)), 0, natural.Height-y)

	return image.Rect(x, y, x+w, y+h)
}

func clampSquare(r Rect, bounds DisplaySize) Rect {
	side := math.Min(r.Width, r.Height)
	side = math.Max(0, math.Min(side, math.Min(bounds.Width, bounds.Height)))
	if math.IsNaN(side) {
		side = 0
	}
	return Rect{
		X:      clampFloat(r.X, 0, bounds.Width-side),
		Y:      clampFloat(r.Y, 0, bounds.Height-side),
		Width:  side,
		Height: side,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
