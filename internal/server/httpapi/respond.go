package httpapi

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/DaH-115/ticketeer/internal/errs"
)

// Client-facing messages. Every failure body is {"error": message}.
const (
	msgLoginRequired   = "로그인이 필요합니다."
	msgMalformedToken  = "유효하지 않은 토큰 형식입니다."
	msgTokenExpired    = "토큰이 만료되었습니다. 다시 로그인해 주세요."
	msgAuthFailed      = "인증에 실패했습니다."
	msgNoPermission    = "권한이 없습니다."
	msgBadRequest      = "잘못된 요청입니다."
	msgContentRequired = "content가 필요합니다."
	msgReviewNotFound  = "리뷰를 찾을 수 없습니다."
	msgCommentNotFound = "댓글을 찾을 수 없습니다."
	msgAlreadyLiked    = "이미 좋아요를 누른 리뷰입니다."
	msgNotLiked        = "좋아요를 누르지 않은 리뷰입니다."
	msgInternal        = "서버 오류가 발생했습니다."
	msgCommentCreated  = "댓글이 작성되었습니다."
	msgProfileNotFound = "사용자를 찾을 수 없습니다."
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeAuthError maps credential verification failures. All map to 401;
// the message distinguishes the failure kind.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, msgLoginRequired)
	case errors.Is(err, errs.ErrMalformedCredential):
		writeError(w, http.StatusUnauthorized, msgMalformedToken)
	case errors.Is(err, errs.ErrCredentialExpired):
		writeError(w, http.StatusUnauthorized, msgTokenExpired)
	default:
		writeError(w, http.StatusUnauthorized, msgAuthFailed)
	}
}
