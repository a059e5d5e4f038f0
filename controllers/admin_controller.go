package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/greenleaf-nursery/nursery-api/config"
	"github.com/greenleaf-nursery/nursery-api/middleware"
	"github.com/greenleaf-nursery/nursery-api/services"
)

// AdminProfile is returned by GET /api/v1/admin/me
type AdminProfile struct {
	Subject string                  `json:"sub"`
	Scopes  []string                `json:"scopes"`
	Profile *services.Auth0UserInfo `json:"profile,omitempty"`
}

// GetAdminProfile handles GET /api/v1/admin/me - the caller's token subject and
// scopes, plus their Auth0 profile when Auth0 is the identity provider
func GetAdminProfile(c *gin.Context) {
	subject, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	profile := AdminProfile{Subject: subject, Scopes: []string{}}
	if claims, err := middleware.GetClaims(c); err == nil {
		if custom, ok := claims.CustomClaims.(*middleware.CustomClaims); ok {
			profile.Scopes = strings.Fields(custom.Scope)
		}
	}

	cfg := config.GetConfig()
	if cfg == nil || !cfg.UsesAuth0() {
		respondOK(c, http.StatusOK, profile)
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Access token not found")
		return
	}

	userInfo, err := services.NewAuth0Service(cfg).GetUserInfo(c.Request.Context(), accessToken)
	if err != nil && !errors.Is(err, services.ErrIdentityUnavailable) {
		apiLogger.Printf("userinfo for %s: %v", subject, err)
		respondError(c, http.StatusBadGateway, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}
	profile.Profile = userInfo

	respondOK(c, http.StatusOK, profile)
}

// GetDashboard handles GET /api/v1/admin/dashboard
func GetDashboard(c *gin.Context) {
	stats, err := services.NewDashboardService(dataStore(), lowStockThreshold(), apiLogger).Stats(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load dashboard")
		return
	}

	respondOK(c, http.StatusOK, stats)
}
