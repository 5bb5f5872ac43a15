package stravastats

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
)

// NewAuthServer returns a server walking the athlete through the authorization
// flow; every exchanged token is sent on tokens
func NewAuthServer(config *oauth2.Config, state string, tokens chan<- *oauth2.Token) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/auth/login", LoginHandler(config, state))
	e.GET("/auth/callback", AuthCallbackHandler(config, state, tokens))
	return e
}

// LoginHandler redirects to the oauth provider's credential acceptance page
func LoginHandler(config *oauth2.Config, state string) echo.HandlerFunc {
	return func(c echo.Context) error {
		u := config.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "force"))
		return c.Redirect(http.StatusFound, u)
	}
}

// AuthCallbackHandler receives the callback from the oauth provider and exchanges the code for a token
func AuthCallbackHandler(config *oauth2.Config, state string, tokens chan<- *oauth2.Token) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.QueryParam("state") != state {
			return echo.NewHTTPError(http.StatusBadRequest, "State invalid")
		}
		code := c.QueryParam("code")
		if code == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Code not found")
		}
		token, err := config.Exchange(c.Request().Context(), code)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		select {
		case tokens <- token:
		default:
		}
		return c.JSONPretty(http.StatusOK, token, "  ")
	}
}
