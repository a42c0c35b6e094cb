package recipe

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"photo-recipe/internal/core/image"
	recipeService "photo-recipe/internal/core/recipe"
	"photo-recipe/internal/pkg/common"
)

// SuggestRequest 以 data URI 推薦食譜的請求
type SuggestRequest struct {
	PhotoDataURI string `json:"photo_data_uri" binding:"required"`
}

// SuggestResponse 推薦結果，cards 為可直接顯示的卡片
type SuggestResponse struct {
	Suggestions []recipeService.Suggestion `json:"suggestions"`
	Cards       []recipeService.Card       `json:"cards"`
}

// Handler 食譜推薦處理器
type Handler struct {
	suggestions *recipeService.SuggestionService
	images      *image.Service
}

// NewHandler 創建新的處理器
func NewHandler(suggestions *recipeService.SuggestionService, images *image.Service) *Handler {
	return &Handler{
		suggestions: suggestions,
		images:      images,
	}
}

// HandleSuggest 處理 /recipe/suggest：JSON 帶入 data URI
func (h *Handler) HandleSuggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
		)
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	common.LogInfo("開始處理食譜推薦請求",
		zap.String("request_id", requestid.Get(c)),
		zap.String("image_type", describePhoto(req.PhotoDataURI)),
	)

	photo, err := image.ParseDataURI(req.PhotoDataURI)
	if err != nil {
		common.WriteError(c, common.ErrInvalidImageFormat.Wrap(err))
		return
	}
	if err := h.images.Validate(photo); err != nil {
		common.WriteError(c, err)
		return
	}

	h.suggest(c, photo)
}

// HandlePhotoUpload 處理 /recipe/photo：multipart 欄位 photo
func (h *Handler) HandlePhotoUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			common.WriteError(c, common.NewValidationError("Please select an image file."))
			return
		}
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}
	defer file.Close()

	data, err := h.images.ReadUpload(file)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	photo, err := h.images.Encode(data, header.Header.Get("Content-Type"))
	if err != nil {
		common.WriteError(c, err)
		return
	}

	common.LogInfo("開始處理照片上傳推薦",
		zap.String("request_id", requestid.Get(c)),
		zap.String("file_name", header.Filename),
		zap.Int("size", len(data)),
	)

	h.suggest(c, photo)
}

func (h *Handler) suggest(c *gin.Context, photo image.EncodedImage) {
	result, err := h.suggestions.SuggestRecipesFromPhoto(c.Request.Context(), photo)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuggestResponse{
		Suggestions: result.Suggestions,
		Cards:       recipeService.PresentAll(result),
	})
}
