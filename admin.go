package showcase

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return validationError("Invalid request body")
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.Config.AdminPassword)) != 1 {
		a.loginLimiter.Record(ip)
		a.Logger.Info("failed admin login", zap.String("ip", ip))
		return &requestError{kind: ErrUnauthorized, msg: "Invalid password"}
	}
	a.loginLimiter.Reset(ip)
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func handleLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func handleCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, checkResponse{Authenticated: IsAdmin(c)})
}

func handleAdminShell(c echo.Context) error {
	return Render(c, adminShell(IsAdmin(c)))
}
