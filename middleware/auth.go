package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/lindawangwe/mama-uncle-stores/apperrors"
	"github.com/lindawangwe/mama-uncle-stores/models"
	"github.com/lindawangwe/mama-uncle-stores/repository"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	UserContextKey    = "user"
	AccessTokenCookie = "accessToken"
)

// TokenParser resolves an access token to a user id.
type TokenParser interface {
	UserID(token string) (string, error)
}

// UserLoader loads the principal for a verified token.
type UserLoader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// AuthMiddleware reads the access token from the accessToken cookie or an
// Authorization bearer header and stores the loaded user on the context.
func AuthMiddleware(tokens TokenParser, users UserLoader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			apperrors.Respond(c, apperrors.Unauthorized("Unauthorized - No access token provided"))
			return
		}

		rawID, err := tokens.UserID(token)
		if err != nil {
			apperrors.Respond(c, apperrors.Unauthorized("Unauthorized - Invalid access token"))
			return
		}
		userID, err := primitive.ObjectIDFromHex(rawID)
		if err != nil {
			apperrors.Respond(c, apperrors.Unauthorized("Unauthorized - Invalid access token"))
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				apperrors.Respond(c, apperrors.Unauthorized("User not found"))
				return
			}
			logger.Error("Failed to load user", zap.String("user_id", rawID), zap.Error(err))
			apperrors.Respond(c, err)
			return
		}

		c.Set(UserContextKey, user)
		c.Next()
	}
}

// AdminOnly rejects principals without the admin role.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin() {
			apperrors.Respond(c, apperrors.Forbidden("Access denied - Admin only"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the principal stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	val, ok := c.Get(UserContextKey)
	if !ok {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok && user != nil
}

func bearerToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
