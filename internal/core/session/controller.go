package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"photo-recipe/internal/core/image"
	"photo-recipe/internal/core/recipe"
	"photo-recipe/internal/pkg/common"
)

// State 上傳流程的狀態
type State string

const (
	StateIdle         State = "idle"
	StateFileSelected State = "file_selected"
	StateSubmitting   State = "submitting"
	StateSuccess      State = "success"
	StateEmptyResult  State = "empty_result"
	StateError        State = "error"
)

// 顯示給使用者的訊息
const (
	MsgSelectImage   = "Please select an image file."
	MsgReadFailed    = "Failed to read the image file. Please try again."
	MsgNoRecipes     = "No recipes found for the ingredients in the photo. Try a different image or rephrase your request!"
	MsgSuggestFailed = "Failed to suggest recipes. Please check the image or try again."
)

// SelectedFile 使用者選取的檔案
type SelectedFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Suggester 食譜推薦請求
type Suggester interface {
	SuggestRecipesFromPhoto(ctx context.Context, photo image.EncodedImage) (*recipe.SuggestionResult, error)
}

// Encoder 將檔案內容編碼為 data URI
type Encoder interface {
	Encode(data []byte, declaredMIME string) (image.EncodedImage, error)
}

// View 目前狀態的快照，供頁面渲染
type View struct {
	State       State
	FileName    string
	PreviewURL  string
	Loading     bool
	Error       string
	Suggestions []recipe.Suggestion
	Cards       []recipe.Card
	Seq         uint64
}

// CanSubmit 有檔案且不在載入中時才能送出
func (v View) CanSubmit() bool {
	return v.FileName != "" && !v.Loading
}

// Controller 單一瀏覽器會話的上傳/送出流程
type Controller struct {
	suggester Suggester
	encoder   Encoder
	previews  *PreviewRegistry

	mu           sync.Mutex
	state        State
	file         *SelectedFile
	previewToken string
	loading      bool
	errMsg       string
	result       *recipe.SuggestionResult
	seq          uint64
	closed       bool
}

// NewController 創建流程控制器
func NewController(suggester Suggester, encoder Encoder, previews *PreviewRegistry) *Controller {
	return &Controller{
		suggester: suggester,
		encoder:   encoder,
		previews:  previews,
		state:     StateIdle,
	}
}

// SelectFile 選取新檔案（nil 表示清除）。結果與錯誤一律重置，舊預覽釋放。
func (c *Controller) SelectFile(file *SelectedFile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.resetLocked()

	if file == nil {
		c.state = StateIdle
		return
	}

	c.file = file
	c.previewToken = c.previews.Acquire(file.Name, file.MIMEType, file.Data)
	c.state = StateFileSelected
}

// FailSelection 選取的檔案無法使用（例如不是圖片）
func (c *Controller) FailSelection(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.resetLocked()
	c.state = StateError
	c.errMsg = message
}

// resetLocked 清除檔案、預覽、結果與錯誤
func (c *Controller) resetLocked() {
	c.previews.Release(c.previewToken)
	c.previewToken = ""
	c.file = nil
	c.result = nil
	c.errMsg = ""
	c.loading = false
}

// Submit 送出目前的檔案並等待結果。
// 沒有檔案時回傳驗證錯誤且狀態不變；其餘結果都記錄在狀態中。
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.file == nil {
		c.errMsg = MsgSelectImage
		c.mu.Unlock()
		return common.NewValidationError(MsgSelectImage)
	}

	c.seq++
	seq := c.seq
	file := c.file
	c.state = StateSubmitting
	c.loading = true
	c.errMsg = ""
	c.result = nil
	c.mu.Unlock()

	photo, err := c.encoder.Encode(file.Data, file.MIMEType)
	if err != nil {
		common.LogWarn("failed to encode selected file",
			zap.String("file_name", file.Name),
			zap.Error(err),
		)
		c.finish(seq, StateError, MsgReadFailed, nil)
		return nil
	}

	result, err := c.suggester.SuggestRecipesFromPhoto(ctx, photo)
	switch {
	case err != nil:
		c.finish(seq, StateError, failureMessage(err), nil)
	case result.Empty():
		c.finish(seq, StateEmptyResult, MsgNoRecipes, result)
	default:
		c.finish(seq, StateSuccess, "", result)
	}
	return nil
}

// finish 套用結果，seq 不是最新時丟棄
func (c *Controller) finish(seq uint64, state State, message string, result *recipe.SuggestionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || seq != c.seq {
		common.LogInfo("discarding stale submission result",
			zap.Uint64("seq", seq),
			zap.Uint64("current_seq", c.seq),
			zap.String("state", string(state)),
		)
		return
	}

	c.state = state
	c.errMsg = message
	c.result = result
	c.loading = false
}

// failureMessage 取出模型失敗的原因，沒有時使用預設訊息
func failureMessage(err error) string {
	msg := err.Error()
	var ce *common.CustomError
	if errors.As(err, &ce) {
		msg = ce.Message
		if ce.Err != nil {
			msg = ce.Err.Error()
		}
	}
	if strings.TrimSpace(msg) == "" {
		return MsgSuggestFailed
	}
	return msg
}

// View 回傳目前狀態的快照
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:   c.state,
		Loading: c.loading,
		Error:   c.errMsg,
		Seq:     c.seq,
	}
	if c.file != nil {
		v.FileName = c.file.Name
	}
	if c.previewToken != "" {
		v.PreviewURL = "/preview/" + c.previewToken
	}
	if c.result != nil {
		v.Suggestions = c.result.Suggestions
		v.Cards = recipe.PresentAll(c.result)
	}
	return v
}

// PreviewToken 目前的預覽句柄
func (c *Controller) PreviewToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previewToken
}

// Close 釋放預覽並丟棄尚未完成的結果
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.seq++
	c.resetLocked()
	c.state = StateIdle
}
