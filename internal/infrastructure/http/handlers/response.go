package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
)

// writeErr sends JSON { "error": message, "code": errCode }. If errCode is empty, a default is used from code.
func writeErr(w http.ResponseWriter, code int, errCode string, message string) {
	if errCode == "" {
		errCode = defaultErrCode(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": errCode})
}

func defaultErrCode(httpCode int) string {
	switch httpCode {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusTooManyRequests:
		return ErrCodeRateLimited
	default:
		return ErrCodeInternal
	}
}

// domainErrStatus maps pipeline sentinels to HTTP. ok is false for errors
// that are not part of the API contract.
func domainErrStatus(err error) (status int, code string, ok bool) {
	switch {
	case errors.Is(err, domerrors.ErrUnauthorized):
		return http.StatusUnauthorized, ErrCodeUnauthorized, true
	case errors.Is(err, domerrors.ErrProjectNotFound), errors.Is(err, domerrors.ErrMessageNotFound):
		return http.StatusNotFound, ErrCodeNotFound, true
	case errors.Is(err, domerrors.ErrInvalidPrompt):
		return http.StatusBadRequest, ErrCodeInvalidRequest, true
	case errors.Is(err, domerrors.ErrQuotaExceeded):
		return http.StatusTooManyRequests, ErrCodeQuotaExceeded, true
	case errors.Is(err, domerrors.ErrAdmissionFailed):
		return http.StatusBadRequest, ErrCodeAdmissionFailed, true
	}
	return http.StatusInternalServerError, ErrCodeInternal, false
}

// publicMessage keeps wrapped causes (driver errors etc.) out of responses.
func publicMessage(err error) string {
	if errors.Is(err, domerrors.ErrInvalidPrompt) {
		return err.Error()
	}
	for _, s := range []error{
		domerrors.ErrUnauthorized,
		domerrors.ErrProjectNotFound,
		domerrors.ErrMessageNotFound,
		domerrors.ErrInvalidPrompt,
		domerrors.ErrQuotaExceeded,
		domerrors.ErrAdmissionFailed,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
