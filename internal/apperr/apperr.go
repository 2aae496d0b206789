// Package apperr описывает ошибки с явным видом (Kind). Обработчики ветвятся по виду,
// а не по конкретному типу исключения.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	AlreadyExists
	InvalidInput
	CryptoUnavailable
)

var kindNames = map[Kind]string{
	Internal:          "internal",
	Unauthenticated:   "unauthenticated",
	Forbidden:         "forbidden",
	NotFound:          "not_found",
	AlreadyExists:     "already_exists",
	InvalidInput:      "invalid_input",
	CryptoUnavailable: "crypto_unavailable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "internal"
}

// Status: HTTP-код для вида ошибки.
func (k Kind) Status() int {
	switch k {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists:
		return http.StatusConflict
	case InvalidInput:
		return http.StatusUnprocessableEntity
	case CryptoUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Opaque: ошибки, детали которых клиенту не показываются.
func (k Kind) Opaque() bool { return k == Internal || k == CryptoUnavailable }

type Error struct {
	Kind Kind
	Msg  string // безопасно для клиента
	Err  error  // причина, только для логов
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает по виду: errors.Is(err, apperr.New(apperr.NotFound, "")) истинно
// для любой NotFound-ошибки.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

func Wrap(kind Kind, err error, msg string) *Error { return &Error{Kind: kind, Msg: msg, Err: err} }

// KindOf возвращает вид ошибки; неразмеченные ошибки считаются Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message: безопасный для клиента текст ошибки.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && !e.Kind.Opaque() {
		return e.Msg
	}
	return "unexpected server error (see logs by reqid)"
}
