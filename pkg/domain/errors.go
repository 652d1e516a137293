package domain

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrProfileAlreadyExists = NewErr("PROFILE_ALREADY_EXISTS", "profile already exists", http.StatusConflict)
	ErrProfileNotFound      = NewErr("PROFILE_NOT_FOUND", "profile not found", http.StatusNotFound)
	ErrPasteNotFound        = NewErr("PASTE_NOT_FOUND", "paste not found", http.StatusNotFound)
	ErrPasteNotAccessible   = NewErr("PASTE_NOT_ACCESSIBLE", "paste not accessible", http.StatusForbidden)
	ErrInvalidExpireDate    = NewErr("INVALID_EXPIRE_DATE", "expire seconds out of allowed range", http.StatusBadRequest)
	ErrShortURLOutOfRange   = NewErr("SHORT_URL_LENGTH_OUT_OF_RANGE", "short code length out of range", http.StatusBadRequest)
	ErrShortURLExists       = NewErr("SHORT_URL_ALREADY_EXISTS", "short code already bound", http.StatusConflict)
	ErrRecordTooLarge       = NewErr("RECORD_TOO_LARGE", "record exceeds maximum encoded size", http.StatusBadRequest)
	ErrInvalidRequest       = NewErr("INVALID_REQUEST", "invalid request", http.StatusBadRequest)
	ErrUnauthorized         = NewErr("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized)
	ErrRateLimitExceeded    = NewErr("RATE_LIMIT_EXCEEDED", "rate limit exceeded", http.StatusTooManyRequests)
	ErrInternalServer       = NewErr("INTERNAL_ERROR", "internal error", http.StatusInternalServerError)
	ErrIDGenerationFailed   = NewErr("ID_GENERATION_FAILED", "id generation failed", http.StatusInternalServerError)
)

type Err struct {
	Code   string `json:"code"`
	Msg    string `json:"message"`
	Status int    `json:"-"`
}

func (e *Err) Error() string { return e.Msg }
func NewErr(code, msg string, status int) *Err {
	return &Err{Code: code, Msg: msg, Status: status}
}

type ErrResp struct {
	Error ErrDetail `json:"error"`
}
type ErrDetail struct {
	Code string `json:"code"`
	Msg  string `json:"message"`
}

func ToResp(err error) ErrResp {
	if e, ok := err.(*Err); ok {
		return ErrResp{Error: ErrDetail{Code: e.Code, Msg: e.Msg}}
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return ErrResp{Error: ErrDetail{Code: e.Code, Msg: e.Msg}}
	}
	return ErrResp{Error: ErrDetail{Code: "INTERNAL_ERROR", Msg: "internal error"}}
}
func Status(err error) int {
	if e, ok := err.(*Err); ok {
		return e.Status
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}
