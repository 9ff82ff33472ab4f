package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktoodev/onesignal-push-permissions/internal/i18n"
	"github.com/ktoodev/onesignal-push-permissions/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderLoginTranslates(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.Render(rr, "pages/login.html", TemplateData{
		Title:   "Masuk",
		Printer: i18n.Printer("id"),
		Flash:   &shared.FlashMessage{Kind: "success", Message: "ok"},
	})
	require.NoError(t, err)
	assert.Contains(t, rr.Body.String(), "<form")
	assert.Contains(t, rr.Body.String(), "Masuk")
	assert.Contains(t, rr.Body.String(), "Kata sandi")
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
}

func TestRenderNilEngine(t *testing.T) {
	var engine *Engine
	assert.Error(t, engine.Render(httptest.NewRecorder(), "pages/login.html", TemplateData{}))
}
