package httpapi

import (
	"math"
	"net/http"
	"strconv"

	"github.com/PabloPavan/sniply/internal/apperrors"
	"github.com/PabloPavan/sniply/internal/telemetry"
)

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindInvalidInput: http.StatusBadRequest,
	apperrors.KindUnauthorized: http.StatusUnauthorized,
	apperrors.KindForbidden:    http.StatusForbidden,
	apperrors.KindNotFound:     http.StatusNotFound,
	apperrors.KindConflict:     http.StatusConflict,
	apperrors.KindRateLimited:  http.StatusTooManyRequests,
}

var kindMessage = map[apperrors.Kind]string{
	apperrors.KindInvalidInput: "invalid request",
	apperrors.KindUnauthorized: "unauthorized",
	apperrors.KindForbidden:    "forbidden",
	apperrors.KindNotFound:     "not found",
	apperrors.KindConflict:     "conflict",
	apperrors.KindRateLimited:  "too many requests",
}

// writeAppError answers with the status of err's kind and a plain text
// message. Errors outside apperrors count as internal. Server side failures
// are logged with their wrapped cause, which never reaches the client.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(apperrors.KindInternal, "", err)
	}
	status := statusFromKind(appErr.Kind)

	if status >= http.StatusInternalServerError {
		telemetry.LogError(r.Context(), "request failed",
			telemetry.LogString("http.method", r.Method),
			telemetry.LogString("http.target", r.URL.Path),
			telemetry.LogString("error.kind", string(appErr.Kind)),
			telemetry.LogErr(err),
		)
	}
	if appErr.Kind == apperrors.KindRateLimited && appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(appErr.RetryAfter.Seconds()))))
	}
	w.Header().Set("X-Error-Kind", string(appErr.Kind))
	http.Error(w, errorMessage(appErr), status)
}

func statusFromKind(kind apperrors.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func errorMessage(appErr *apperrors.Error) string {
	if appErr.Message != "" {
		return appErr.Message
	}
	if msg, ok := kindMessage[appErr.Kind]; ok {
		return msg
	}
	return "internal error"
}
