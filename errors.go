package workerskv

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is wrapped by every error raised for malformed input before
	// any request is sent.
	ErrValidation = errors.New("validation failed")

	// ErrAccountIDRequired indicates Config.AccountID was empty.
	ErrAccountIDRequired = fmt.Errorf("%w: account id is required", ErrValidation)

	// ErrCredentialsRequired indicates neither an API token nor an email and
	// auth key pair was supplied.
	ErrCredentialsRequired = fmt.Errorf(
		"%w: either an auth token or an email and auth key must be provided",
		ErrValidation,
	)

	// ErrTransport indicates the request could not be completed at the network level.
	ErrTransport = errors.New("transport failure")

	// ErrUnexpectedContentType signals a response whose content type is not
	// JSON, plain text or an octet stream.
	ErrUnexpectedContentType = errors.New("unexpected content type")

	// ErrResponseInvalid means the response body could not be decoded into the
	// shape the operation expects.
	ErrResponseInvalid = errors.New("response is invalid or unexpected")
)
