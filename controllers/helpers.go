package controllers

import (
	"errors"
	"strings"

	"github.com/lindawangwe/mama-uncle-stores/apperrors"
	"github.com/lindawangwe/mama-uncle-stores/middleware"
	"github.com/lindawangwe/mama-uncle-stores/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// principal returns the authenticated user, responding 401 when the route
// was registered without AuthMiddleware.
func principal(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apperrors.Respond(c, apperrors.Unauthorized("Unauthorized - No access token provided"))
		return nil, false
	}
	return user, true
}

// bindJSON decodes the body into req and answers 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apperrors.Respond(c, apperrors.Validation(bindingMessage(err)))
		return false
	}
	return true
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "url":
			msgs = append(msgs, fe.Field()+" must be a valid URL")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
