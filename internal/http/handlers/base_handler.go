// README: Base handler utilities (JSON helpers, error mapping, request validation).
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"ryde/internal/http/middleware"
	"ryde/internal/maps"
	"ryde/internal/modules/identity"
	"ryde/internal/modules/pricing"
	"ryde/internal/modules/ride"
	"ryde/internal/types"
)

// msgInvalidOTP is deliberately the same for wrong, expired and missing codes.
const msgInvalidOTP = "invalid or expired otp"

type errorResponse struct {
	Error string `json:"error"`
}

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("binding engine is not a go-playground validator")
	}
	if err := v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return types.IsValidID(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register objectid validator: %w", err)
	}
	return nil
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps module errors onto HTTP statuses. Unexpected errors are
// logged with the request id and reported without detail.
func writeServiceError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case ride.IsOTPFailure(err):
		writeError(c, http.StatusForbidden, msgInvalidOTP)
	case errors.Is(err, ride.ErrTooManyAttempts):
		writeError(c, http.StatusTooManyRequests, "too many otp attempts")
	case errors.Is(err, ride.ErrInvalidInput),
		errors.Is(err, identity.ErrInvalidInput),
		errors.Is(err, pricing.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, identity.ErrInvalidCredentials.Error())
	case errors.Is(err, ride.ErrUnauthorized), errors.Is(err, identity.ErrUnauthorized):
		writeError(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, ride.ErrForbidden):
		writeError(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, ride.ErrNotFound):
		writeError(c, http.StatusNotFound, ride.ErrNotFound.Error())
	case errors.Is(err, identity.ErrNotFound):
		writeError(c, http.StatusNotFound, identity.ErrNotFound.Error())
	case errors.Is(err, maps.ErrNoResults):
		writeError(c, http.StatusNotFound, maps.ErrNoResults.Error())
	case errors.Is(err, ride.ErrInvalidState):
		writeError(c, http.StatusConflict, ride.ErrInvalidState.Error())
	case errors.Is(err, ride.ErrConflict):
		writeError(c, http.StatusConflict, ride.ErrConflict.Error())
	case errors.Is(err, identity.ErrEmailTaken):
		writeError(c, http.StatusConflict, identity.ErrEmailTaken.Error())
	case errors.Is(err, maps.ErrRoutingUnavailable), errors.Is(err, maps.ErrUpstream):
		writeError(c, http.StatusBadGateway, "routing unavailable")
	default:
		log.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// bindJSON decodes and validates the body, answering 400 itself on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, http.StatusBadRequest, bindingMessage(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, v any) bool {
	if err := c.ShouldBindQuery(v); err != nil {
		writeError(c, http.StatusBadRequest, bindingMessage(err))
		return false
	}
	return true
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return "invalid " + fe.Field() + ": failed " + fe.Tag()
	}
	return "invalid request"
}

type idURI struct {
	ID string `uri:"id" binding:"required,objectid"`
}

// pathID reads the :id route parameter, answering 400 if it is not an object id.
func pathID(c *gin.Context) (types.ID, bool) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		writeError(c, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return types.ID(strings.ToLower(uri.ID)), true
}
