package tableovertwo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRenderFailureShowsErrorPage(t *testing.T) {
	broken := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, "<p>half a page")
		return errors.New("template exploded")
	})
	app := newTestApp(t, WithCustomRoutes(func(a *App) {
		a.Echo.GET("/broken/", func(c echo.Context) error {
			return Render(c, broken)
		})
	}))

	rec := app.do(http.MethodGet, "/broken/", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server error", rec.Body.String())
	assert.Equal(t, echo.MIMETextHTMLCharsetUTF8, rec.Header().Get(echo.HeaderContentType))
}
