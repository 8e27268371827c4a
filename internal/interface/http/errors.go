package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-management-api/internal/domain/apperror"
	"github.com/oksasatya/user-management-api/pkg/helpers"
	"github.com/oksasatya/user-management-api/pkg/response"
	"github.com/oksasatya/user-management-api/pkg/validation"
)

const codeInternal = "INTERNAL_ERROR"

// writeError maps err onto the HTTP error envelope. Unexpected errors are
// logged and, unless debug is set, reported without detail.
func writeError(c *gin.Context, logger *logrus.Logger, debug bool, err error) {
	if appErr, ok := apperror.As(err); ok {
		switch e := appErr.(type) {
		case *apperror.ValidationError:
			response.Error[any](c, http.StatusUnprocessableEntity, e.Code(), "Validation failed", e.Fields)
		case *apperror.ConflictError:
			response.Error[any](c, http.StatusConflict, e.Code(), e.Error(),
				gin.H{"field": e.Field, "value": e.Value})
		case *apperror.NotFoundError:
			response.Error[any](c, http.StatusNotFound, e.Code(), e.Error(),
				gin.H{"resource": e.Resource, "key": e.Key, "value": e.Value})
		}
		return
	}

	helpers.Entry(c.Request.Context(), logger).
		WithError(err).
		WithFields(logrus.Fields{"method": c.Request.Method, "path": c.FullPath()}).
		Error("unhandled error")

	msg := "An unexpected error occurred"
	if debug {
		msg = err.Error()
	}
	response.Error[any](c, http.StatusInternalServerError, codeInternal, msg, nil)
}

// bindingError turns a gin binding failure into a ValidationError with a
// stable field order.
func bindingError(err error) *apperror.ValidationError {
	details := validation.ToDetails(err)
	fields := make([]string, 0, len(details))
	for f := range details {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	verr := &apperror.ValidationError{}
	for _, f := range fields {
		verr.Add(f, details[f])
	}
	return verr
}
