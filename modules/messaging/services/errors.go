package services

import "github.com/caiorodrigo10/Operabase-sub001/pkg/serrors"

// Validation failures reject the request before any storage write happens.
var (
	ErrFileTooLarge = serrors.NewError(
		"UPLOAD_FILE_TOO_LARGE",
		"file exceeds the maximum allowed size",
		"split the file or compress it below the configured limit",
	)
	ErrUnsupportedType = serrors.NewError(
		"UPLOAD_UNSUPPORTED_TYPE",
		"file type is not allowed",
		"only images, videos, audio and common document types are accepted",
	)
	ErrEmptyFileName = serrors.NewError(
		"UPLOAD_EMPTY_FILENAME",
		"file name is empty",
		"",
	)
	ErrFileNameTooLong = serrors.NewError(
		"UPLOAD_FILENAME_TOO_LONG",
		"file name is too long",
		"",
	)
)
