package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog_studio_v1_202610/internal/api/dto"
	"catalog_studio_v1_202610/internal/metrics"
	"catalog_studio_v1_202610/internal/model"
)

// ==================== 外部服务依赖 ====================

// ReferenceProvider 品牌/分类引用
type ReferenceProvider interface {
	References(ctx context.Context) (*CatalogReferences, error)
}

// AssetStore 远程图片存储（可选）
type AssetStore interface {
	Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error)
}

// ==================== 表单状态 ====================

// FormState 表单生命周期
type FormState string

const (
	FormEditing    FormState = "editing"
	FormSubmitting FormState = "submitting"
	FormClosed     FormState = "closed"
)

// ==================== 表单服务 ====================

// FormService 管理所有打开的表单实例
type FormService struct {
	mu    sync.RWMutex
	forms map[string]*FormSession

	catalog   ReferenceProvider
	submitter Submitter
	storage   AssetStore
	intake    *IntakeValidator
	logger    *zap.Logger
	now       func() time.Time

	onTeardown []func(formID string)
}

// NewFormService 创建表单服务；storage 为 nil 时不支持发布图片
func NewFormService(
	catalog ReferenceProvider,
	submitter Submitter,
	storage AssetStore,
	logger *zap.Logger,
) *FormService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormService{
		forms:     make(map[string]*FormSession),
		catalog:   catalog,
		submitter: submitter,
		storage:   storage,
		intake:    NewIntakeValidator(),
		logger:    logger.Named("form"),
		now:       time.Now,
	}
}

// OnTeardown 注册表单销毁回调（提交成功、关闭、超时回收都会触发）
func (s *FormService) OnTeardown(fn func(formID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTeardown = append(s.onTeardown, fn)
}

// Open 打开新表单：空草稿 + 一个空变体，引用列表只拉取一次
func (s *FormService) Open(ctx context.Context, operatorID int64) (*FormSession, error) {
	refs, err := s.catalog.References(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog references: %w", err)
	}

	id := uuid.New().String()
	logger := s.logger.With(zap.String("form_id", id))
	form := &FormSession{
		ID:         id,
		OperatorID: operatorID,
		state:      FormEditing,
		draft:      model.NewProductDraft(),
		refs:       refs,
		crop:       NewCropEngine(logger),
		previews:   NewPreviewManager(logger),
		activity:   NewActivityTracker(),
		service:    s,
		logger:     logger,
		lastActive: s.now(),
	}

	s.mu.Lock()
	s.forms[id] = form
	s.mu.Unlock()
	metrics.OpenForms.Inc()

	logger.Info("表单已打开", zap.Int64("operator_id", operatorID))
	return form, nil
}

// Get 获取表单
func (s *FormService) Get(id string) (*FormSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	form, ok := s.forms[id]
	if !ok {
		return nil, ErrFormNotFound
	}
	return form, nil
}

// Close 销毁表单：取消裁剪、撤销全部预览句柄、丢弃草稿
func (s *FormService) Close(id string) error {
	form, err := s.Get(id)
	if err != nil {
		return err
	}
	form.mu.Lock()
	form.teardownLocked()
	form.mu.Unlock()
	return nil
}

// Count 打开中的表单数
func (s *FormService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.forms)
}

// SweepIdle 销毁超过 maxIdle 未操作的表单，返回销毁数量
func (s *FormService) SweepIdle(maxIdle time.Duration) int {
	deadline := s.now().Add(-maxIdle)

	s.mu.RLock()
	var candidates []*FormSession
	for _, form := range s.forms {
		candidates = append(candidates, form)
	}
	s.mu.RUnlock()

	swept := 0
	for _, form := range candidates {
		form.mu.Lock()
		// 提交中的表单不回收
		if form.state == FormEditing && form.lastActive.Before(deadline) {
			form.teardownLocked()
			swept++
		}
		form.mu.Unlock()
	}
	return swept
}

// forget 从注册表移除
func (s *FormService) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[id]; ok {
		delete(s.forms, id)
		metrics.OpenForms.Dec()
	}
	for _, fn := range s.onTeardown {
		fn(id)
	}
}

// ==================== 表单实例 ====================

// FormSession 一个表单实例；所有操作经 mu 串行化，保证同一时刻只有一个动作在改状态
type FormSession struct {
	ID         string
	OperatorID int64

	mu         sync.Mutex
	state      FormState
	draft      *model.ProductDraft
	refs       *CatalogReferences
	crop       *CropEngine
	previews   *PreviewManager
	activity   *ActivityTracker
	service    *FormService
	logger     *zap.Logger
	lastActive time.Time
}

// beginLocked 所有修改操作的前置检查
func (f *FormSession) beginLocked() error {
	switch f.state {
	case FormClosed:
		return ErrFormNotFound
	case FormSubmitting:
		return ErrSubmitInFlight
	}
	f.lastActive = f.service.now()
	return nil
}

func (f *FormSession) variantLocked(variantID string) (*model.Variant, error) {
	v := f.draft.VariantByID(variantID)
	if v == nil {
		return nil, ErrVariantNotFound
	}
	return v, nil
}

// Previews 预览句柄管理器
func (f *FormSession) Previews() *PreviewManager {
	return f.previews
}

// State 当前状态
func (f *FormSession) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// ==================== 基础信息 ====================

// UpdateDetails 部分更新名称/描述/品牌/分类
func (f *FormSession) UpdateDetails(req *dto.UpdateFormRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.beginLocked(); err != nil {
		return err
	}

	if req.Name != nil {
		f.draft.Name = *req.Name
	}
	if req.Description != nil {
		f.draft.Description = *req.Description
	}
	if req.BrandRef != nil {
		f.draft.BrandRef = *req.BrandRef
	}
	if req.CategoryRef != nil {
		f.draft.CategoryRef = *req.CategoryRef
	}
	return nil
}

// ==================== 变体 ====================

// AddVariant 追加空变体，已有 5 个时拒绝
func (f *FormSession) AddVariant() (*dto.VariantVO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.beginLocked(); err != nil {
		return nil, err
	}

	if len(f.draft.Variants) >= model.MaxVariants {
		return nil, ErrVariantLimit
	}

	v := model.NewVariant()
	f.draft.Variants = append(f.draft.Variants, v)
	vo := f.variantVO(len(f.draft.Variants)-1, v)
	return &vo, nil
}

// UpdateVariant 部分更新变体字段
func (f *FormSession) UpdateVariant(variantID string, req *dto.UpdateVariantRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.beginLocked(); err != nil {
		return err
	}

	v, err := f.variantLocked(variantID)
	if err != nil {
		return err
	}

	if req.Color != nil {
		v.Color = *req.Color
	}
	if req.Quantity != nil {
		v.Quantity = *req.Quantity
	}
	if req.Price != nil {
		price := *req.Price
		v.Price = &price
	}
	if req.ClearDiscount {
		v.DiscountPrice = nil
	} else if req.DiscountPrice != nil {
		discount := *req.DiscountPrice
		v.DiscountPrice = &discount
	}
	return nil
}

// RemoveVariant 删除变体并撤销其全部预览句柄；后续变体下标前移
func (f *FormSession) RemoveVariant(variantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.beginLocked(); err != nil {
		return err
	}

	idx := f.draft.IndexOf(variantID)
	if idx < 0 {
		return ErrVariantNotFound
	}
	if f.activity.Busy(variantID) {
		return ErrVariantBusy
	}
	if len(f.draft.Variants) <= model.MinVariants {
		return ErrLastVariant
	}

	v := f.draft.Variants[idx]
	f.draft.Variants = append(f.draft.Variants[:idx:idx], f.draft.Variants[idx+1:]...)
	NewVariantImageSet(v, f.previews).Clear()
	return nil
}

// ==================== 图片录入与裁剪 ====================

// BeginCrop 录入校验通过后为目标变体打开裁剪会话
func (f *FormSession) BeginCrop(variantID string, src SourceImage) (*dto.CropVO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.beginLocked(); err != nil {
		return nil, err
	}

	v, err := f.variantLocked(variantID)
	if err != nil {
		return nil, err
	}

	// 被拒绝的文件不会进入裁剪引擎
	if err := f.service.intake.Check(FileDescriptor{
		Name:        src.Name,
		ContentType: src.ContentType,
		Size:        int64(len(src.Data)),
	}); err != nil {
		f.recordRejection(err)
		return nil, err
	}

	if NewVariantImageSet(v, f.previews).Full() {
		return nil, ErrImageSetFull
	}
	if f.crop.Active() {
		f.logger.Error("裁剪会话已存在，拒绝新的录入",
			zap.String("open_target", f.crop.Target()),
			zap.String("variant_id", variantID))
		return nil, ErrCropInvalidState
	}
	if err := f.activity.Begin(variantID, ActivityCropping); err != nil {
		return nil, err
	}

	snap, err := f.crop.Begin(src, variantID)
	if err != nil {
		f.activity.End(variantID)
		f.recordRejection(err)
		return nil, err
	}
	return cropVO(snap), nil
}

// AdjustCrop 更新显示尺寸（可选）与裁剪框
func (f *FormSession) AdjustCrop(req *dto.CropRectRequest) (*dto.CropVO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.beginLocked(); err != nil {
		return nil, err
	}

	if req.Display != nil {
		if err := f.crop.SetDisplaySize(DisplaySize{Width: req.Display.Width, Height: req.Display.Height}); err != nil {
			return nil, err
		}
	}
	if _, err := f.crop.UpdateRect(Rect{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height}); err != nil {
		return nil, err
	}
	return cropVO(f.crop.Snapshot()), nil
}

// ApplyCrop 栅格化 -> 注册预览 -> 追加到目标变体
func (f *FormSession) ApplyCrop() (*dto.ImageVO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.beginLocked(); err != nil {
		return nil, err
	}

	encoded, target, err := f.crop.Apply()
	if err != nil {
		return nil, err
	}
	f.activity.End(target)
	metrics.CropsApplied.Inc()

	v, err := f.variantLocked(target)
	if err != nil {
		return nil, err
	}

	handle := f.previews.Register(encoded.Data, encoded.ContentType)
	asset := model.ImageAsset{
		Blob:          encoded.Data,
		ContentType:   encoded.ContentType,
		Width:         encoded.Width,
		Height:        encoded.Height,
		PreviewHandle: handle,
	}
	set := NewVariantImageSet(v, f.previews)
	if !set.Append(asset) {
		f.previews.Revoke(handle)
		return nil, ErrImageSetFull
	}

	vo := imageVO(set.Len()-1, asset)
	return &vo, nil
}

// CancelCrop 关闭裁剪会话，无会话时为空操作
func (f *FormSession) CancelCrop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FormClosed {
		return ErrFormNotFound
	}
	f.cancelCropLocked()
	return nil
}

func (f *FormSession) cancelCropLocked() {
	if !f.crop.Active() {
		return
	}
	target := f.crop.Target()
	f.crop.Cancel()
	f.activity.End(target)
	metrics.CropsCancelled.Inc()
}

// RemoveImage 删除图片并撤销句柄
func (f *FormSession) RemoveImage(variantID string, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.beginLocked(); err != nil {
		return err
	}

	v, err := f.variantLocked(variantID)
	if err != nil {
		return err
	}
	if f.activity.State(variantID) == ActivityPublishing {
		return ErrVariantBusy
	}
	_, err = NewVariantImageSet(v, f.previews).RemoveAt(index)
	return err
}

// Preview 读取预览数据
func (f *FormSession) Preview(handle string) ([]byte, string, bool) {
	return f.previews.Lookup(handle)
}

// PublishImage 把定稿图片上传到远程存储，返回持久 URL
func (f *FormSession) PublishImage(ctx context.Context, variantID string, index int) (string, error) {
	f.mu.Lock()
	if err := f.beginLocked(); err != nil {
		f.mu.Unlock()
		return "", err
	}
	if f.service.storage == nil {
		f.mu.Unlock()
		return "", ErrStorageDisabled
	}
	v, err := f.variantLocked(variantID)
	if err != nil {
		f.mu.Unlock()
		return "", err
	}
	asset, ok := NewVariantImageSet(v, f.previews).At(index)
	if !ok {
		f.mu.Unlock()
		return "", ErrImageNotFound
	}
	if err := f.activity.Begin(variantID, ActivityPublishing); err != nil {
		f.mu.Unlock()
		return "", err
	}
	f.mu.Unlock()

	// 上传期间不持锁，同一变体的其它动作由 ActivityTracker 拦截
	filename := fmt.Sprintf("%s_%d.jpg", variantID, index)
	url, uploadErr := f.service.storage.Upload(ctx, asset.Blob, filename, asset.ContentType)

	f.mu.Lock()
	f.activity.End(variantID)
	f.mu.Unlock()

	if uploadErr != nil {
		f.logger.Warn("图片上传失败", zap.String("variant_id", variantID), zap.Error(uploadErr))
		return "", fmt.Errorf("upload image: %w", uploadErr)
	}
	return url, nil
}

// ==================== 提交 ====================

// Submit 校验 -> 组装 -> 提交；校验失败不会组装载荷，提交失败保留草稿以便重试
func (f *FormSession) Submit(ctx context.Context) error {
	f.mu.Lock()
	if err := f.beginLocked(); err != nil {
		f.mu.Unlock()
		return err
	}

	if verr := ValidateDraft(f.draft); verr != nil {
		f.mu.Unlock()
		metrics.Submissions.WithLabelValues("invalid").Inc()
		return verr
	}

	payload := AssemblePayload(f.draft)
	f.state = FormSubmitting
	f.mu.Unlock()

	err := f.service.submitter.Submit(ctx, payload)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.state = FormEditing
		metrics.Submissions.WithLabelValues("failed").Inc()
		f.logger.Warn("提交失败，草稿已保留", zap.Error(err))
		if !errors.Is(err, ErrSubmissionFailed) {
			err = fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
		}
		return err
	}

	metrics.Submissions.WithLabelValues("ok").Inc()
	f.logger.Info("提交成功")
	f.teardownLocked()
	return nil
}

// ==================== 销毁 ====================

func (f *FormSession) teardownLocked() {
	if f.state == FormClosed {
		return
	}
	f.cancelCropLocked()
	f.activity = NewActivityTracker()
	revoked := f.previews.RevokeAll()
	f.draft = nil
	f.state = FormClosed
	f.service.forget(f.ID)

	f.logger.Info("表单已销毁", zap.Int("revoked_previews", revoked))
}

// ==================== 视图 ====================

// View 表单快照
func (f *FormSession) View() (*dto.FormVO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FormClosed {
		return nil, ErrFormNotFound
	}

	vo := &dto.FormVO{
		FormID:      f.ID,
		State:       string(f.state),
		Name:        f.draft.Name,
		Description: f.draft.Description,
		BrandRef:    f.draft.BrandRef,
		CategoryRef: f.draft.CategoryRef,
		Variants:    make([]dto.VariantVO, 0, len(f.draft.Variants)),
		CanAdd:      len(f.draft.Variants) < model.MaxVariants,
		Crop:        cropVO(f.crop.Snapshot()),
		Brands:      f.refs.Brands,
		Categories:  f.refs.Categories,
	}
	for i, v := range f.draft.Variants {
		vo.Variants = append(vo.Variants, f.variantVO(i, v))
	}
	return vo, nil
}

func (f *FormSession) variantVO(index int, v *model.Variant) dto.VariantVO {
	vo := dto.VariantVO{
		ID:          v.ID,
		Position:    index + 1,
		Color:       v.Color,
		Quantity:    v.Quantity,
		Activity:    string(f.activity.State(v.ID)),
		CanAddImage: len(v.Images) < model.ImagesPerVariant && !f.crop.Active(),
		Images:      make([]dto.ImageVO, 0, len(v.Images)),
	}
	if v.Price != nil {
		s := v.Price.String()
		vo.Price = &s
	}
	if v.DiscountPrice != nil {
		s := v.DiscountPrice.String()
		vo.DiscountPrice = &s
	}
	for i, img := range v.Images {
		vo.Images = append(vo.Images, imageVO(i, img))
	}
	return vo
}

func imageVO(index int, asset model.ImageAsset) dto.ImageVO {
	return dto.ImageVO{
		Index:         index,
		PreviewHandle: asset.PreviewHandle,
		Width:         asset.Width,
		Height:        asset.Height,
		Size:          len(asset.Blob),
	}
}

func cropVO(snap *CropSnapshot) *dto.CropVO {
	if snap == nil {
		return nil
	}
	vo := &dto.CropVO{
		State:         string(snap.State),
		SourceName:    snap.SourceName,
		TargetVariant: snap.TargetVariant,
		NaturalWidth:  snap.Natural.Width,
		NaturalHeight: snap.Natural.Height,
		DisplayWidth:  snap.Display.Width,
		DisplayHeight: snap.Display.Height,
	}
	if snap.Rect != nil {
		vo.Rect = &dto.RectVO{X: snap.Rect.X, Y: snap.Rect.Y, Width: snap.Rect.Width, Height: snap.Rect.Height}
	}
	return vo
}

func (f *FormSession) recordRejection(err error) {
	var intakeErr *IntakeError
	if errors.As(err, &intakeErr) {
		metrics.IntakeRejections.WithLabelValues(intakeErr.Reason).Inc()
		f.logger.Info("原图被拒绝", zap.String("reason", intakeErr.Reason))
	}
}
