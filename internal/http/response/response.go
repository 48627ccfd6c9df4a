package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
)

// ErrorBody is the wire shape of every API failure.
type ErrorBody struct {
	ErrorKind brand.ErrorKind `json:"errorKind"`
	Message   string          `json:"message"`
}

// RespondError writes err as {errorKind, message}. Errors outside the brand
// taxonomy become a 500 InternalError with a generic message.
func RespondError(c *gin.Context, err error) {
	kind := brand.KindOf(err)
	msg := "internal server error"
	if kind == "" {
		kind = brand.KindInternal
	} else if be := asBrandError(err); be != nil && be.Message != "" && kind != brand.KindInternal {
		msg = be.Message
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(brand.HTTPStatus(kind), ErrorBody{ErrorKind: kind, Message: msg})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func asBrandError(err error) *brand.Error {
	var be *brand.Error
	if !errors.As(err, &be) {
		return nil
	}
	return be
}
