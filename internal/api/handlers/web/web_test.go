package web

import (
	"bytes"
	"context"
	"errors"
	stdimage "image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-recipe/internal/core/image"
	"photo-recipe/internal/core/recipe"
	"photo-recipe/internal/core/session"
	"photo-recipe/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSuggester struct {
	result *recipe.SuggestionResult
	err    error
}

func (s *stubSuggester) SuggestRecipesFromPhoto(ctx context.Context, photo image.EncodedImage) (*recipe.SuggestionResult, error) {
	return s.result, s.err
}

type fixture struct {
	router   *gin.Engine
	previews *session.PreviewRegistry
	cookies  []*http.Cookie
}

func newFixture(t *testing.T, s session.Suggester) *fixture {
	t.Helper()
	images := image.NewService(1 << 20)
	previews := session.NewPreviewRegistry()
	cfg := config.SessionConfig{
		TTL:             time.Minute,
		MaxSize:         10,
		CleanupInterval: time.Minute,
		CookieName:      "sid",
	}
	sessions := session.NewManager(cfg, func() *session.Controller {
		return session.NewController(s, images, previews)
	})
	t.Cleanup(func() { _ = sessions.Close() })

	tmpl, err := LoadTemplates()
	require.NoError(t, err)

	h := NewHandler(sessions, previews, images, cfg)
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.GET("/", h.Index)
	r.POST("/select", h.Select)
	r.POST("/submit", h.Submit)
	r.GET("/preview/:token", h.Preview)

	return &fixture{router: r, previews: previews}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range f.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		f.cookies = cookies
	}
	return w
}

func (f *fixture) page(t *testing.T) string {
	t.Helper()
	w := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func (f *fixture) selectFile(t *testing.T, name string, data []byte) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		fw, err := mw.CreateFormFile("photo", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/select", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := f.do(req)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func (f *fixture) submit(t *testing.T) {
	t.Helper()
	w := f.do(httptest.NewRequest(http.MethodPost, "/submit", nil))
	require.Equal(t, http.StatusSeeOther, w.Code)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, stdimage.NewRGBA(stdimage.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

var previewPath = regexp.MustCompile(`/preview/[0-9a-f-]+`)

func TestIndexInitialState(t *testing.T) {
	f := newFixture(t, &stubSuggester{})

	body := f.page(t)
	assert.Contains(t, body, "PhotoRecipe")
	assert.Contains(t, body, "Click to upload")
	assert.Contains(t, body, "PNG, JPG, GIF up to 1MB")
	assert.Contains(t, body, `accept="image/*"`)
	assert.Regexp(t, `id="submit-button" type="submit" disabled`, body)
	assert.NotContains(t, body, "Selected file:")
	require.NotEmpty(t, f.cookies)
	assert.Equal(t, "sid", f.cookies[0].Name)
}

func TestSelectAndPreview(t *testing.T) {
	f := newFixture(t, &stubSuggester{})
	data := pngBytes(t)

	f.selectFile(t, "fridge.png", data)
	body := f.page(t)
	assert.Contains(t, body, "Selected file: fridge.png")
	assert.NotRegexp(t, `id="submit-button" type="submit" disabled`, body)

	path := previewPath.FindString(body)
	require.NotEmpty(t, path)

	w := f.do(httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, data, w.Body.Bytes())

	// 其他瀏覽器不能讀取
	other := httptest.NewRecorder()
	f.router.ServeHTTP(other, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusNotFound, other.Code)
}

func TestSelectReplacesPreview(t *testing.T) {
	f := newFixture(t, &stubSuggester{})

	f.selectFile(t, "a.png", pngBytes(t))
	first := previewPath.FindString(f.page(t))
	f.selectFile(t, "b.png", pngBytes(t))
	second := previewPath.FindString(f.page(t))

	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, f.previews.Len())
	w := f.do(httptest.NewRequest(http.MethodGet, first, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.selectFile(t, "", nil)
	body := f.page(t)
	assert.NotContains(t, body, "Selected file:")
	assert.Zero(t, f.previews.Len())
}

func TestSelectRejectsNonImage(t *testing.T) {
	f := newFixture(t, &stubSuggester{})

	f.selectFile(t, "notes.txt", []byte("shopping list: eggs"))
	body := f.page(t)
	assert.Contains(t, body, session.MsgSelectImage)
	assert.NotContains(t, body, "Selected file:")
	assert.Zero(t, f.previews.Len())
}

func TestSelectRejectsOversizedFile(t *testing.T) {
	f := newFixture(t, &stubSuggester{})

	f.selectFile(t, "huge.png", make([]byte, 1<<20+1))
	assert.Contains(t, f.page(t), "Image exceeds the size limit")
}

func TestSubmitWithoutFile(t *testing.T) {
	f := newFixture(t, &stubSuggester{})

	f.submit(t)
	assert.Contains(t, f.page(t), session.MsgSelectImage)
}

func TestSubmitRendersCards(t *testing.T) {
	f := newFixture(t, &stubSuggester{result: recipe.NewSuggestionResult([]recipe.Suggestion{
		recipe.Structured(recipe.RecipeDetail{
			Title:        "Shakshuka",
			Ingredients:  []string{"eggs", "tomatoes"},
			Instructions: []string{"Simmer the sauce", "Poach the eggs"},
		}),
		recipe.Structured(recipe.RecipeDetail{}),
		recipe.RawText("Fried Rice: use yesterday's rice"),
	})})

	f.selectFile(t, "fridge.png", pngBytes(t))
	f.submit(t)
	body := f.page(t)

	assert.Contains(t, body, "Suggested Recipes")
	assert.Contains(t, body, "<h3>Shakshuka</h3>")
	assert.Contains(t, body, "<li>Poach the eggs</li>")
	assert.Contains(t, body, "<h3>Suggestion 2</h3>")
	assert.Contains(t, body, recipe.NoDetailsMessage)
	assert.Contains(t, body, "<h3>Fried Rice</h3>")
	assert.Contains(t, body, "Selected file: fridge.png")
	assert.NotContains(t, body, `role="alert"`)
}

func TestSubmitEmptyResult(t *testing.T) {
	f := newFixture(t, &stubSuggester{result: recipe.NewSuggestionResult(nil)})

	f.selectFile(t, "fridge.png", pngBytes(t))
	f.submit(t)
	body := f.page(t)

	assert.Contains(t, body, session.MsgNoRecipes)
	assert.NotContains(t, body, "Suggested Recipes")
}

func TestSubmitFailure(t *testing.T) {
	f := newFixture(t, &stubSuggester{err: errors.New("model quota exceeded")})

	f.selectFile(t, "fridge.png", pngBytes(t))
	f.submit(t)
	body := f.page(t)

	assert.Contains(t, body, "model quota exceeded")
	assert.NotRegexp(t, `id="submit-button" type="submit" disabled`, body)
}
