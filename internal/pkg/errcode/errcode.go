package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrInternal
	ErrPayloadTooLarge
	ErrUploadIncomplete
	ErrMissingChunk
	ErrCorruptChunk
	ErrAIUnavailable
)
