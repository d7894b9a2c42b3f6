package types

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// dexops sentinel errors
var (
	ErrInvalidNetwork    = errorsmod.Register(ModuleName, 1, "invalid network")
	ErrConfigNotFound    = errorsmod.Register(ModuleName, 2, "configuration file not found")
	ErrInvalidConfig     = errorsmod.Register(ModuleName, 3, "invalid configuration")
	ErrMalformedResponse = errorsmod.Register(ModuleName, 4, "malformed contract query response")
	ErrCancelled         = errorsmod.Register(ModuleName, 5, "operation cancelled by the user")
	ErrBroadcast         = errorsmod.Register(ModuleName, 6, "transaction broadcast failed")
	ErrTxFailed          = errorsmod.Register(ModuleName, 7, "transaction failed")
	ErrSigner            = errorsmod.Register(ModuleName, 8, "signer error")
	ErrNoAccounts        = errorsmod.Register(ModuleName, 9, "no accounts found for signer")
	ErrNodeUnavailable   = errorsmod.Register(ModuleName, 10, "node unavailable")
	ErrInvalidArgs       = errorsmod.Register(ModuleName, 11, "invalid arguments")
	ErrAborted           = errorsmod.Register(ModuleName, 12, "deployment aborted by the user")
)

// IsFatal reports whether err belongs to the classes that must stop a run before
// any broadcast is attempted: configuration, response shape, signer and node errors.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrInvalidNetwork),
		errors.Is(err, ErrConfigNotFound),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrSigner),
		errors.Is(err, ErrNoAccounts),
		errors.Is(err, ErrNodeUnavailable),
		errors.Is(err, ErrInvalidArgs):
		return true
	default:
		return false
	}
}

// IsTxError reports whether err came from submitting a transaction. These are logged
// with whatever diagnostic detail is available and never retried.
func IsTxError(err error) bool {
	return errors.Is(err, ErrBroadcast) || errors.Is(err, ErrTxFailed)
}

// ExitCode maps the error returned by a command to the process exit status.
// A declined emergency confirmation is a clean exit; everything else, including an
// aborted deployment, exits 1.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrCancelled) {
		return 0
	}
	return 1
}
