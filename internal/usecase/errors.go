package usecase

import (
	"errors"
	"fmt"
)

// ErrorKind は呼び出し側（HTTP層）へ返すエラーの種類。
type ErrorKind string

const (
	KindVariantNotFound   ErrorKind = "VariantNotFound"
	KindInsufficientStock ErrorKind = "InsufficientStock"
	KindInvalidQuantity   ErrorKind = "InvalidQuantity"
	KindItemNotFound      ErrorKind = "ItemNotFound"
	KindCartNotFound      ErrorKind = "CartNotFound"
	KindStoreUnavailable  ErrorKind = "StoreUnavailable"
	KindUnauthorized      ErrorKind = "Unauthorized"

	// カート以外（カタログ・管理）
	KindInvalidInput ErrorKind = "InvalidInput"
	KindNotFound     ErrorKind = "NotFound"
	KindForbidden    ErrorKind = "Forbidden"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// 種類が同じなら errors.Is で一致
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// 呼び出し側がバックオフ付きで再試行してよいのはStoreUnavailableだけ
func (e *Error) Retryable() bool {
	return e.Kind == KindStoreUnavailable
}

var (
	ErrVariantNotFound   = &Error{Kind: KindVariantNotFound, Message: "variant not found"}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock, Message: "stock exceeded"}
	ErrInvalidQuantity   = &Error{Kind: KindInvalidQuantity, Message: "invalid quantity"}
	ErrItemNotFound      = &Error{Kind: KindItemNotFound, Message: "cart item not found"}
	ErrCartNotFound      = &Error{Kind: KindCartNotFound, Message: "cart not found"}
	ErrStoreUnavailable  = &Error{Kind: KindStoreUnavailable, Message: "store unavailable"}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "forbidden"}
)

func newError(kind ErrorKind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func invalidInput(message string) error {
	return newError(KindInvalidInput, message)
}

// ストア由来の想定外エラーは全てStoreUnavailableに包む
func storeUnavailable(err error) error {
	return &Error{Kind: KindStoreUnavailable, Message: "store unavailable", Err: err}
}

// usecase.Errorならそのまま、それ以外はStoreUnavailable
func asUsecaseError(err error) error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	return storeUnavailable(err)
}

func AsError(err error) (*Error, bool) {
	var ue *Error
	ok := errors.As(err, &ue)
	return ue, ok
}
