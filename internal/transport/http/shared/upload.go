package shared

import (
	"errors"
	"mime/multipart"
	"net/http"
)

const MaxMultipartMemory = 8 << 20

var ErrMissingFile = errors.New("a file is required")

// FormFile parses a multipart request and returns the single file under field.
// The caller closes the returned file.
func FormFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(MaxMultipartMemory); err != nil {
		return nil, nil, err
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, ErrMissingFile
		}
		return nil, nil, err
	}
	return file, header, nil
}
