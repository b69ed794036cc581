package errors

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalid       = errors.New("invalid")
	ErrNotConfigured = errors.New("not configured")

	ErrDocumentNotFound     = errors.New("document not found")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrUploadIncomplete     = errors.New("upload incomplete")
	ErrMissingChunk         = errors.New("missing chunk")
	ErrCorruptChunkSequence = errors.New("corrupt chunk sequence")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrDocumentNotFound)
}
