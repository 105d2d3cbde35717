package checklist

import "errors"

var (
	ErrUnknownPhase  = errors.New("unknown checklist phase")
	ErrUnknownItem   = errors.New("unknown checklist item")
	ErrPhotoNotFound = errors.New("photo not found on checklist item")
	ErrEmptyUpload   = errors.New("photo upload is empty")
)
