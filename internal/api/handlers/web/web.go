package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"photo-recipe/internal/core/image"
	"photo-recipe/internal/core/recipe"
	"photo-recipe/internal/core/session"
	"photo-recipe/internal/infrastructure/config"
	"photo-recipe/internal/pkg/common"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoadTemplates 載入內嵌的頁面模板
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Handler 頁面處理器，每個瀏覽器以 cookie 對應一個 Controller
type Handler struct {
	sessions *session.Manager
	previews *session.PreviewRegistry
	images   *image.Service
	cookie   string
	maxAge   int
}

// NewHandler 創建頁面處理器
func NewHandler(sessions *session.Manager, previews *session.PreviewRegistry, images *image.Service, cfg config.SessionConfig) *Handler {
	return &Handler{
		sessions: sessions,
		previews: previews,
		images:   images,
		cookie:   cfg.CookieName,
		maxAge:   int(cfg.TTL.Seconds()),
	}
}

// controller 取得或建立目前瀏覽器的 Controller 並更新 cookie
func (h *Handler) controller(c *gin.Context) *session.Controller {
	id, _ := c.Cookie(h.cookie)
	id, ctrl := h.sessions.GetOrCreate(id)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie, id, h.maxAge, "/", "", false, true)
	return ctrl
}

// Index 渲染頁面
func (h *Handler) Index(c *gin.Context) {
	view := h.controller(c).View()
	c.HTML(http.StatusOK, "index.html", gin.H{
		"View":      view,
		"NoDetails": recipe.NoDetailsMessage,
		"MaxSizeMB": h.images.MaxSizeBytes() >> 20,
	})
}

// Select 處理檔案選取，空的欄位視為清除
func (h *Handler) Select(c *gin.Context) {
	ctrl := h.controller(c)
	defer c.Redirect(http.StatusSeeOther, "/")

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile):
			ctrl.SelectFile(nil)
		case errors.As(err, &tooLarge):
			ctrl.FailSelection(common.ErrInvalidImageSize.Message)
		default:
			common.LogWarn("failed to read selected file", zap.Error(err))
			ctrl.FailSelection(session.MsgReadFailed)
		}
		return
	}
	defer file.Close()

	data, err := h.images.ReadUpload(file)
	if err != nil {
		if errors.Is(err, common.ErrInvalidImageSize) {
			ctrl.FailSelection(common.ErrInvalidImageSize.Message)
			return
		}
		ctrl.FailSelection(session.MsgReadFailed)
		return
	}

	mimeType, err := h.images.DetectMIME(data)
	if err != nil {
		common.LogDebug("rejected non-image selection",
			zap.String("file_name", header.Filename),
			zap.Error(err),
		)
		ctrl.FailSelection(session.MsgSelectImage)
		return
	}

	ctrl.SelectFile(&session.SelectedFile{
		Name:     header.Filename,
		MIMEType: mimeType,
		Data:     data,
	})
}

// Submit 送出目前選取的檔案，結果記錄在 Controller 中
func (h *Handler) Submit(c *gin.Context) {
	ctrl := h.controller(c)
	if err := ctrl.Submit(c.Request.Context()); err != nil {
		common.LogDebug("submit rejected", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Preview 回傳目前會話選取的圖片
func (h *Handler) Preview(c *gin.Context) {
	token := c.Param("token")

	id, err := c.Cookie(h.cookie)
	if err != nil {
		common.WriteError(c, common.ErrNotFound)
		return
	}
	ctrl, ok := h.sessions.Get(id)
	if !ok || token == "" || ctrl.PreviewToken() != token {
		common.WriteError(c, common.ErrNotFound)
		return
	}

	p, ok := h.previews.Get(token)
	if !ok {
		common.WriteError(c, common.ErrNotFound)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, p.MIMEType, p.Data)
}
