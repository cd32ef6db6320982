package common

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInsufficientFunds         ErrorKind = "INSUFFICIENT_FUNDS"
	KindInvalidInvoice            ErrorKind = "INVALID_INVOICE"
	KindInvalidNodeURI            ErrorKind = "INVALID_NODE_URI"
	KindNoUsableChannel           ErrorKind = "NO_USABLE_CHANNEL"
	KindMsatOutOfBounds           ErrorKind = "MSAT_OUT_OF_BOUNDS"
	KindAssetAmountExceedsInbound ErrorKind = "ASSET_AMOUNT_EXCEEDS_INBOUND"
	KindNodeUnavailable           ErrorKind = "NODE_UNAVAILABLE"
	KindProxyUnreachable          ErrorKind = "PROXY_UNREACHABLE"
	KindKeyringUnavailable        ErrorKind = "KEYRING_UNAVAILABLE"
	KindNativeAuthRejected        ErrorKind = "NATIVE_AUTH_REJECTED"
	KindFailTransferNotAllowed    ErrorKind = "FAIL_TRANSFER_NOT_ALLOWED"
	KindConfigInvalid             ErrorKind = "CONFIG_INVALID"
	KindChannelBusy               ErrorKind = "CHANNEL_BUSY"
	KindNotFound                  ErrorKind = "NOT_FOUND"
	KindValidation                ErrorKind = "VALIDATION"
	KindWalletLocked              ErrorKind = "WALLET_LOCKED"
	KindUnknown                   ErrorKind = "UNKNOWN"
)

// Error is the typed failure returned by every wallet core operation.
// Key names the translation entry used to render Message.
type Error struct {
	Kind ErrorKind
	Key  string
	Args []interface{}
	Err  error
}

func NewError(kind ErrorKind, key string, args ...interface{}) *Error {
	return &Error{Kind: kind, Key: key, Args: args}
}

// WrapError attaches a kind to an underlying failure. The underlying message
// is kept so UNKNOWN errors still carry it to the outer boundary.
func WrapError(kind ErrorKind, key string, err error) *Error {
	return &Error{Kind: kind, Key: key, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message()
	if e.Err != nil && msg != e.Err.Error() {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message renders the human readable text for the error key. Unknown keys
// fall back to the wrapped error message.
func (e *Error) Message() string {
	if msg, ok := Message(e.Key, e.Args...); ok {
		return msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Key != "" {
		return e.Key
	}
	return string(e.Kind)
}

// Is matches on kind so callers can write errors.Is(err, common.ErrInsufficientFunds).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Key == "" || t.Key == e.Key)
}

var (
	ErrInsufficientFunds      = &Error{Kind: KindInsufficientFunds}
	ErrInvalidInvoice         = &Error{Kind: KindInvalidInvoice}
	ErrInvalidNodeURI         = &Error{Kind: KindInvalidNodeURI}
	ErrNoUsableChannel        = &Error{Kind: KindNoUsableChannel}
	ErrMsatOutOfBounds        = &Error{Kind: KindMsatOutOfBounds}
	ErrNodeUnavailable        = &Error{Kind: KindNodeUnavailable}
	ErrProxyUnreachable       = &Error{Kind: KindProxyUnreachable}
	ErrKeyringUnavailable     = &Error{Kind: KindKeyringUnavailable}
	ErrNativeAuthRejected     = &Error{Kind: KindNativeAuthRejected}
	ErrFailTransferNotAllowed = &Error{Kind: KindFailTransferNotAllowed}
	ErrConfigInvalid          = &Error{Kind: KindConfigInvalid}
	ErrNotFound               = &Error{Kind: KindNotFound}
)

func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTransient reports whether the reconciler should retry after err.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindNodeUnavailable, KindProxyUnreachable:
		return true
	}
	return false
}

// AsError converts any error into a typed one. Untyped errors become
// UNKNOWN and keep their message.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return WrapError(KindUnknown, "", err)
}
