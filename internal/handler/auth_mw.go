package handler

import (
	"net/http"
	"os"
	"strings"

	"github.com/BloggingApp/threadly/internal/dto"
	"github.com/BloggingApp/threadly/internal/model"
	"github.com/BloggingApp/threadly/pkg/utils"
	"github.com/gin-gonic/gin"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func (h *Handler) userFromAccessToken(c *gin.Context, accessToken string) (*model.CachedUser, error) {
	claims, err := utils.DecodeJWT(accessToken, []byte(os.Getenv("ACCESS_SECRET")))
	if err != nil {
		return nil, err
	}

	return h.getUserDataFromClaims(c.Request.Context(), claims, accessToken)
}

func (h *Handler) authMiddleware(c *gin.Context) {
	if h.getCachedUserFromRequest(c) != nil {
		c.Next()
		return
	}

	accessToken := bearerToken(c)
	if accessToken == "" {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		c.Abort()
		return
	}

	user, err := h.userFromAccessToken(c, accessToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.NewBasicResponse(false, errNotAuthorized.Error()))
		c.Abort()
		return
	}

	c.Set(cachedUserKey, *user)

	c.Next()
}

// notRequiredAuthMiddleware treats a missing or unresolvable token as an anonymous viewer.
func (h *Handler) notRequiredAuthMiddleware(c *gin.Context) {
	accessToken := bearerToken(c)
	if accessToken == "" {
		c.Next()
		return
	}

	user, err := h.userFromAccessToken(c, accessToken)
	if err != nil {
		c.Next()
		return
	}

	c.Set(cachedUserKey, *user)

	c.Next()
}
