/* errors.go
 * Contains the classification of handler errors and the single place where a classified error becomes user text.
 * Classification is pure so tests can assert on it without a session
 */

package bot

import (
	"errors"
	"fmt"

	"github.com/vlakddp4/publicbot/api/api"
	"github.com/vlakddp4/publicbot/api/logic"
	"github.com/vlakddp4/publicbot/api/store"
)

// ErrScopeRejected is returned for invocations from any guild other than the configured one
var ErrScopeRejected = errors.New("invocation outside the allowed guild")

// ErrPermissionDenied is returned when an admin command is invoked without the administrator permission
var ErrPermissionDenied = errors.New("administrator permission required")

type errorKind int

const (
	kindNone errorKind = iota
	kindScopeRejected
	kindPermissionDenied
	kindValidationFailed
	kindNotRegistered
	kindPageOutOfRange
	kindImageUnavailable
	kindStorage
	kindUnknown
)

func (k errorKind) String() string {
	switch k {
	case kindNone:
		return "none"
	case kindScopeRejected:
		return "scope_rejected"
	case kindPermissionDenied:
		return "permission_denied"
	case kindValidationFailed:
		return "validation_failed"
	case kindNotRegistered:
		return "not_registered"
	case kindPageOutOfRange:
		return "page_out_of_range"
	case kindImageUnavailable:
		return "image_unavailable"
	case kindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// classify maps an error returned by a handler to its kind
func classify(err error) errorKind {
	var verr *logic.ValidationError
	switch {
	case err == nil:
		return kindNone
	case errors.Is(err, ErrScopeRejected):
		return kindScopeRejected
	case errors.Is(err, ErrPermissionDenied):
		return kindPermissionDenied
	case errors.As(err, &verr):
		return kindValidationFailed
	case errors.Is(err, api.ErrNotRegistered):
		return kindNotRegistered
	case errors.Is(err, logic.ErrPageOutOfRange):
		return kindPageOutOfRange
	case errors.Is(err, api.ErrImageUnavailable):
		return kindImageUnavailable
	case store.IsStorageError(err):
		return kindStorage
	default:
		return kindUnknown
	}
}

// Messages shown to users
const (
	msgScopeRejected    = "이 명령어는 허용된 서버에서만 사용할 수 있습니다."
	msgPermissionDenied = "이 명령어는 관리자만 사용할 수 있습니다."
	msgNotRegistered    = "등록된 내전 참가 정보가 없습니다. 내전에 참가 후 확인해주세요."
	msgImageUnavailable = "프로필 이미지를 불러올 수 없습니다. 잠시 후 다시 시도해주세요."
	msgInvalidPage      = "잘못된 페이지 요청입니다."
	msgRetryLater       = "오류가 발생했습니다. 나중에 다시 시도해주세요."
)

// errorText renders a classified error. Storage and unknown errors never expose their cause
func errorText(kind errorKind, err error) string {
	switch kind {
	case kindScopeRejected:
		return msgScopeRejected
	case kindPermissionDenied:
		return msgPermissionDenied
	case kindValidationFailed:
		var verr *logic.ValidationError
		if errors.As(err, &verr) {
			return verr.Reason
		}
		return msgRetryLater
	case kindNotRegistered:
		return msgNotRegistered
	case kindPageOutOfRange:
		var oor *logic.PageOutOfRangeError
		if errors.As(err, &oor) {
			return fmt.Sprintf("페이지 %d는 유효하지 않습니다. 총 페이지 수: %d", oor.Requested, oor.TotalPages)
		}
		return msgInvalidPage
	case kindImageUnavailable:
		return msgImageUnavailable
	default:
		return msgRetryLater
	}
}
