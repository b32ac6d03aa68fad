// Package controllers adapts HTTP requests to the service layer:
// bind and validate input, resolve the caller's identity, call the
// service, translate the outcome.
package controllers

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rajatverma/kirana/app/services"
	"github.com/rajatverma/kirana/pkg/i18n"
	"github.com/rajatverma/kirana/pkg/logger"
	"github.com/rajatverma/kirana/pkg/middleware"
	"github.com/rajatverma/kirana/pkg/response"
)

// fail renders a service error: the Kind picks the HTTP status, the Key
// is resolved through the request locale, Detail rides along when set.
// Internal failures are logged and sanitized.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		logger.WithCtx(r.Context()).Error("unhandled error", "error", err)
		response.Internal(w)
		return
	}

	msg := i18n.T(r.Context(), svcErr.Key)
	status := http.StatusInternalServerError

	switch svcErr.Kind {
	case services.KindValidation, services.KindConflict:
		status = http.StatusBadRequest
	case services.KindUnauthorized:
		status = http.StatusUnauthorized
	case services.KindForbidden:
		status = http.StatusForbidden
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindInternal:
		logger.WithCtx(r.Context()).Error("internal error", "key", svcErr.Key, "error", svcErr.Unwrap())
		response.Internal(w)
		return
	}

	if len(svcErr.Detail) > 0 {
		response.ErrorDetail(w, status, msg, svcErr.Detail)
		return
	}
	response.Error(w, status, msg)
}

// identity resolves the authenticated caller from the request context.
// Routes behind the auth middleware always have one; a miss means the
// route was wired without it.
func identity(r *http.Request) (services.Identity, bool) {
	id, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		return services.Identity{}, false
	}
	role, _ := middleware.RoleFromCtx(r.Context())

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return services.Identity{}, false
	}
	return services.Identity{ID: oid, Role: role}, true
}
