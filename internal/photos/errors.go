package photos

import "errors"

var (
	ErrNoFile          = errors.New("no selected file")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file is too large")
	ErrNotFound        = errors.New("photo not found")
	ErrForbidden       = errors.New("not authorized to modify this photo")
	ErrInternal        = errors.New("internal error")
)
