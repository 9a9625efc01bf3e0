package domain

import "errors"

var (
	ErrMalformedHash       = errors.New("malformed hash")
	ErrNoHash              = errors.New("no hash available")
	ErrWrongNetwork        = errors.New("wrong network")
	ErrUserRejected        = errors.New("signature rejected")
	ErrTransport           = errors.New("transport failure")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
	ErrConfirmationFailed  = errors.New("confirmation failed")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrPolicyDenied        = errors.New("policy denied")
	ErrLedgerVersion       = errors.New("unsupported ledger schema version")
	ErrInvalidTransition   = errors.New("invalid workflow transition")
	ErrWorkflowClosed      = errors.New("workflow closed")
)
