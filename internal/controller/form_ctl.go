package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catalog_studio_v1_202610/internal/api/dto"
	"catalog_studio_v1_202610/internal/apperr"
	"catalog_studio_v1_202610/internal/middleware"
	"catalog_studio_v1_202610/internal/service"
)

// ==================== 控制器 ====================

// FormController 商品表单控制器
type FormController struct {
	formService *service.FormService
	logger      *zap.Logger
}

func NewFormController(formService *service.FormService, logger *zap.Logger) *FormController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormController{formService: formService, logger: logger.Named("form_ctl")}
}

// ==================== 表单 ====================

// Open 打开新表单
// @Summary 打开商品表单（一个空变体）
// @Tags Form
// @Produce json
// @Success 201 {object} dto.OpenFormResponse
// @Router /api/forms [post]
func (ctrl *FormController) Open(c *gin.Context) {
	form, err := ctrl.formService.Open(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	vo, err := form.View()
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "success",
		"data":    dto.OpenFormResponse{Form: vo},
	})
}

// Get 表单详情
// @Summary 获取表单快照
// @Tags Form
// @Param form_id path string true "表单ID"
// @Success 200 {object} dto.FormVO
// @Router /api/forms/{form_id} [get]
func (ctrl *FormController) Get(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}
	ctrl.respondView(c, form)
}

// UpdateDetails 更新名称/描述/品牌/分类
func (ctrl *FormController) UpdateDetails(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}
	var req dto.UpdateFormRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := form.UpdateDetails(&req); err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.respondView(c, form)
}

// Close 关闭表单并释放全部预览
func (ctrl *FormController) Close(c *gin.Context) {
	if err := ctrl.formService.Close(c.Param("form_id")); err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "表单已关闭",
	})
}

// ==================== 变体 ====================

// AddVariant 新增变体
// @Summary 追加空变体（最多 5 个）
// @Tags Form
// @Param form_id path string true "表单ID"
// @Success 201 {object} dto.VariantVO
// @Router /api/forms/{form_id}/variants [post]
func (ctrl *FormController) AddVariant(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}
	vo, err := form.AddVariant()
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "success",
		"data":    vo,
	})
}

// UpdateVariant 更新变体
func (ctrl *FormController) UpdateVariant(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}
	var req dto.UpdateVariantRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := form.UpdateVariant(c.Param("variant_id"), &req); err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.respondView(c, form)
}

// RemoveVariant 删除变体
func (ctrl *FormController) RemoveVariant(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}
	if err := form.RemoveVariant(c.Param("variant_id")); err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.respondView(c, form)
}

// ==================== 图片 ====================

// UploadImage 录入原图并打开裁剪会话
// @Summary 上传原图（multipart 字段 file，jpeg/png/webp，最大 2 MiB）
// @Tags Form
// @Accept multipart/form-data
// @Param form_id path string true "表单ID"
// @Param variant_id path string true "变体ID"
// @Param file formData file true "原图"
// @Success 201 {object} dto.CropVO
// @Router /api/forms/{form_id}/variants/{variant_id}/images [post]
func (ctrl *FormController) UploadImage(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "缺少上传文件 file",
		})
		return
	}
	file, err := header.Open()
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	defer file.Close()

	// 多读 1 字节，超限文件由录入校验以 "too large" 拒绝
	data, err := io.ReadAll(io.LimitReader(file, service.MaxIntakeBytes+1))
	if err != nil {
		ctrl.fail(c, err)
		return
	}

	src := service.SourceImage{
		Name:        header.Filename,
		ContentType: service.DeclaredType(header.Header.Get("Content-Type"), data),
		Data:        data,
	}
	vo, err := form.BeginCrop(c.Param("variant_id"), src)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "success",
		"data":    vo,
	})
}

// RemoveImage 删除图片
func (ctrl *FormController) RemoveImage(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}
	index, ok := imageIndex(c)
	if !ok {
		return
	}
	if err := form.RemoveImage(c.Param("variant_id"), index); err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.respondView(c, form)
}

// PublishImage 上传到远程存储
func (ctrl *FormController) PublishImage(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}
	index, ok := imageIndex(c)
	if !ok {
		return
	}
	url, err := form.PublishImage(c.Request.Context(), c.Param("variant_id"), index)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    dto.PublishImageResult{URL: url},
	})
}

// Preview 预览图
func (ctrl *FormController) Preview(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}
	blob, contentType, found := form.Preview(c.Param("handle"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": "预览不存在或已释放",
		})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, blob)
}

// ==================== 裁剪 ====================

// AdjustCrop 更新裁剪框
func (ctrl *FormController) AdjustCrop(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}
	var req dto.CropRectRequest
	if !bindJSON(c, &req) {
		return
	}
	vo, err := form.AdjustCrop(&req)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    vo,
	})
}

// ApplyCrop 确认裁剪
func (ctrl *FormController) ApplyCrop(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}
	vo, err := form.ApplyCrop()
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "success",
		"data":    vo,
	})
}

// CancelCrop 取消裁剪
func (ctrl *FormController) CancelCrop(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}
	if err := form.CancelCrop(); err != nil {
		ctrl.fail(c, err)
		return
	}
	ctrl.respondView(c, form)
}

// ==================== 提交 ====================

// Submit 校验并提交
// @Summary 校验草稿并提交到后端，成功后表单关闭
// @Tags Form
// @Param form_id path string true "表单ID"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/forms/{form_id}/submit [post]
func (ctrl *FormController) Submit(c *gin.Context) {
	form, ok := ctrl.form(c)
	if !ok {
		return
	}
	if err := form.Submit(c.Request.Context()); err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "提交成功",
	})
}

// ==================== 辅助函数 ====================

// HasForm 表单是否仍打开（提交限流只跟踪打开的表单）
func (ctrl *FormController) HasForm(formID string) bool {
	_, err := ctrl.formService.Get(formID)
	return err == nil
}

func (ctrl *FormController) form(c *gin.Context) (*service.FormSession, bool) {
	form, err := ctrl.formService.Get(c.Param("form_id"))
	if err != nil {
		ctrl.fail(c, err)
		return nil, false
	}
	return form, true
}

func (ctrl *FormController) respondView(c *gin.Context, form *service.FormSession) {
	vo, err := form.View()
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    vo,
	})
}

// fail 统一错误响应；校验错误附带字段与变体位置
func (ctrl *FormController) fail(c *gin.Context, err error) {
	appErr := service.ToAppError(err)
	status := apperr.HTTPStatus(appErr)
	if status >= http.StatusInternalServerError {
		ctrl.logger.Error("请求失败", zap.String("path", c.FullPath()), zap.Error(err))
	}

	body := gin.H{
		"code":    status,
		"message": apperr.PublicMessage(appErr),
	}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body["data"] = gin.H{
			"field":   verr.Field,
			"variant": verr.Variant,
		}
	}
	c.JSON(status, body)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return false
	}
	return true
}

func imageIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的图片序号",
		})
		return 0, false
	}
	return index, true
}
