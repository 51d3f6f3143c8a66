package errno

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别，决定 HTTP 状态码与是否允许降级
type Kind string

const (
	KindInvalidInput          Kind = "InvalidInput"
	KindUnsupportedInput      Kind = "UnsupportedInput"
	KindNoFramesExtracted     Kind = "NoFramesExtracted"
	KindUpstreamUnavailable   Kind = "UpstreamUnavailable"
	KindGenerationFailed      Kind = "GenerationFailed"
	KindGenerationUnavailable Kind = "GenerationUnavailable"
	KindInvalidMetadata       Kind = "InvalidMetadata"
	KindWalletNotConnected    Kind = "WalletNotConnected"
	KindNetworkUnavailable    Kind = "NetworkUnavailable"
	KindUserRejected          Kind = "UserRejected"
	KindInsufficientFunds     Kind = "InsufficientFunds"
	KindNotImplemented        Kind = "NotImplemented"
	KindUnknown               Kind = "Unknown"
)

var kindStatus = map[Kind]int{
	KindInvalidInput:          http.StatusBadRequest,
	KindUnsupportedInput:      http.StatusUnsupportedMediaType,
	KindNoFramesExtracted:     http.StatusUnprocessableEntity,
	KindUpstreamUnavailable:   http.StatusInternalServerError,
	KindGenerationFailed:      http.StatusInternalServerError,
	KindGenerationUnavailable: http.StatusServiceUnavailable,
	KindInvalidMetadata:       http.StatusUnprocessableEntity,
	KindWalletNotConnected:    http.StatusPreconditionFailed,
	KindNetworkUnavailable:    http.StatusServiceUnavailable,
	KindUserRejected:          http.StatusBadRequest,
	KindInsufficientFunds:     http.StatusPaymentRequired,
	KindNotImplemented:        http.StatusNotImplemented,
	KindUnknown:               http.StatusInternalServerError,
}

// Error 带类别的业务错误
//
// Message 面向用户，Details 一般是上游返回的原始错误信息。
// Status 非 0 时覆盖类别默认的 HTTP 状态码（例如透传上游状态码）。
type Error struct {
	Kind    Kind
	Message string
	Details string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus 返回该错误对应的 HTTP 状态码
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New 创建一个不包裹底层错误的业务错误
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap 包裹底层错误，Details 默认取底层错误信息
func Wrap(kind Kind, msg string, err error) *Error {
	e := &Error{Kind: kind, Message: msg, Err: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// WithStatus 覆盖 HTTP 状态码
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// WithDetails 覆盖 Details
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// As 从错误链中取出 *Error
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf 返回错误链中第一个 *Error 的类别，找不到则为 KindUnknown
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// Is 判断错误链中是否包含指定类别
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf 返回错误对应的 HTTP 状态码
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}
