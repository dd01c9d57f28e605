package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"eventplanner/internal/platform/apperr"
	"eventplanner/internal/platform/storage"
)

// formImage returns the uploaded file in field. The body is capped a little
// above the image limit so the store can report oversized images itself.
func formImage(w http.ResponseWriter, r *http.Request, field string) (multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+(1<<20))
	if err := r.ParseMultipartForm(storage.MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.FieldErrors{field: storage.ErrTooLarge.Error()}
		}
		return nil, apperr.FieldErrors{field: "is required"}
	}
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, apperr.FieldErrors{field: "is required"}
	}
	return file, nil
}

func imageError(field string, err error) error {
	if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) {
		return apperr.FieldErrors{field: err.Error()}
	}
	return err
}
