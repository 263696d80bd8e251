package tableovertwo

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/AaronRDurant/table-over-two/store"
	"github.com/AaronRDurant/table-over-two/theme"
)

const visitorKey = "visitor"

// sessionStorage keeps preferences in the signed session cookie. Set only
// updates the values; Flush writes the cookie.
type sessionStorage struct {
	c echo.Context
}

func (s sessionStorage) Get(key string) (string, bool, error) {
	sess, err := prefsSession(s.c)
	if err != nil {
		return "", false, err
	}
	v, ok := sess.Values[key].(string)
	return v, ok, nil
}

func (s sessionStorage) Set(key, value string) error {
	sess, err := prefsSession(s.c)
	if err != nil {
		return err
	}
	sess.Values[key] = value
	return nil
}

func (s sessionStorage) Flush() error {
	sess, err := prefsSession(s.c)
	if err != nil {
		return err
	}
	return sess.Save(s.c.Request(), s.c.Response())
}

// visitorStorage keeps preferences in SQLite under a visitor id held in the
// session cookie. The id is only minted on the first write. A visitor's rows
// are read in one query on the first Get.
type visitorStorage struct {
	c      echo.Context
	db     *store.Store
	values map[string]string
}

func (v *visitorStorage) Get(key string) (string, bool, error) {
	if v.values == nil {
		sess, err := prefsSession(v.c)
		if err != nil {
			return "", false, err
		}
		id, _ := sess.Values[visitorKey].(string)
		if id == "" {
			return "", false, nil
		}
		all, err := v.db.All(id)
		if err != nil {
			return "", false, err
		}
		v.values = all
	}
	val, ok := v.values[key]
	return val, ok, nil
}

func (v *visitorStorage) Set(key, value string) error {
	sess, err := prefsSession(v.c)
	if err != nil {
		return err
	}
	id, _ := sess.Values[visitorKey].(string)
	if id == "" {
		id = uuid.NewString()
		sess.Values[visitorKey] = id
		if err := sess.Save(v.c.Request(), v.c.Response()); err != nil {
			return err
		}
	}
	if err := (store.VisitorStorage{Store: v.db, Visitor: id}).Set(key, value); err != nil {
		return err
	}
	if v.values != nil {
		v.values[key] = value
	}
	return nil
}

// prefsSession returns the preference session. A cookie that no longer
// decodes (rotated secret) yields a fresh session rather than an error.
func prefsSession(c echo.Context) (*sessions.Session, error) {
	sess, err := session.Get(sessionName, c)
	if sess != nil {
		return sess, nil
	}
	return nil, err
}

func (a *App) preferenceStorage(c echo.Context) theme.Storage {
	if a.Prefs != nil {
		return &visitorStorage{c: c, db: a.Prefs}
	}
	return sessionStorage{c: c}
}

// handleThemePreference sets the mode named by the "mode" form value, or
// toggles between light and dark when it is absent.
func (a *App) handleThemePreference(c echo.Context) error {
	prefs := theme.FromContext(c.Request().Context())
	var err error
	if raw := c.FormValue("mode"); raw != "" {
		mode, ok := theme.ParseMode(raw)
		if !ok {
			recordPreference("theme", "invalid")
			return echo.NewHTTPError(http.StatusBadRequest, "unknown mode")
		}
		err = prefs.SetMode(mode)
	} else {
		err = prefs.Toggle()
	}
	if err != nil {
		recordPreference("theme", "error")
		return err
	}
	recordPreference("theme", "ok")
	return preferenceDone(c)
}

func (a *App) handleTeamPreference(c echo.Context) error {
	prefs := theme.FromContext(c.Request().Context())
	team := strings.ToLower(strings.TrimSpace(c.FormValue("team")))
	if err := prefs.SetTeam(team); err != nil {
		if errors.Is(err, theme.ErrUnknownTeam) {
			recordPreference("team", "invalid")
			return echo.NewHTTPError(http.StatusBadRequest, "unknown team")
		}
		recordPreference("team", "error")
		return err
	}
	recordPreference("team", "ok")
	return preferenceDone(c)
}

// handleResetPreferences forgets the stored mode and team so the page follows
// the system color scheme again.
func (a *App) handleResetPreferences(c echo.Context) error {
	sess, err := prefsSession(c)
	if err != nil {
		return err
	}
	if id, _ := sess.Values[visitorKey].(string); id != "" && a.Prefs != nil {
		if err := a.Prefs.DeleteVisitor(id); err != nil {
			recordPreference("reset", "error")
			return err
		}
	}
	for _, key := range []string{visitorKey, theme.KeyMode, theme.KeyTeam} {
		delete(sess.Values, key)
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		recordPreference("reset", "error")
		return err
	}
	recordPreference("reset", "ok")
	return preferenceDone(c)
}

// preferenceDone asks htmx to refresh, or redirects plain form posts back to
// the page they came from.
func preferenceDone(c echo.Context) error {
	if c.Request().Header.Get(headerHXRequest) == "true" {
		c.Response().Header().Set(headerHXRefresh, "true")
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, backPath(c.Request().Referer()))
}

// backPath returns the local path of a referer, or "/".
func backPath(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || u.Path == "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	if strings.HasPrefix(u.Path, "/preferences") {
		return "/"
	}
	return u.Path
}
