package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"campus-openings/internal/apperr"
	"campus-openings/internal/storage"

	"github.com/go-playground/form/v4"
)

// Uploads configures multipart handling.
type Uploads struct {
	Dir      string
	MaxBytes int64
}

func (u Uploads) maxBytes() int64 {
	if u.MaxBytes <= 0 {
		return 10 << 20
	}
	return u.MaxBytes
}

// bind decodes the request body into dst. JSON bodies use the json tags;
// urlencoded and multipart forms are matched against the same names.
func bind(w http.ResponseWriter, r *http.Request, dst any, uploads Uploads) error {
	r.Body = http.MaxBytesReader(w, r.Body, uploads.maxBytes())

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(uploads.maxBytes()); err != nil {
			return apperr.Validation("invalid multipart form")
		}
		return bindValues(r.MultipartForm.Value, dst)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return apperr.Validation("invalid form body")
		}
		return bindValues(r.PostForm, dst)
	default:
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return apperr.Validation("invalid request body")
		}
		return nil
	}
}

// formDecoder matches form keys against the json tags, so one input struct
// serves JSON and form clients. It caches struct metadata and is safe for
// concurrent use.
var formDecoder = newFormDecoder()

func newFormDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.SetTagName("json")
	return d
}

// listFields are the []string inputs that clients may send as one comma
// separated value as well as repeated keys.
var listFields = []string{"domain", "skills"}

// bindValues decodes form values into the struct dst points to.
func bindValues(values map[string][]string, dst any) error {
	if err := formDecoder.Decode(dst, splitLists(values)); err != nil {
		var decodeErrs form.DecodeErrors
		if errors.As(err, &decodeErrs) {
			fields := make([]string, 0, len(decodeErrs))
			for name := range decodeErrs {
				fields = append(fields, name)
			}
			sort.Strings(fields)
			return apperr.Validation("invalid field value", fields...)
		}
		return apperr.Validation("invalid form body")
	}
	return nil
}

func splitLists(values map[string][]string) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = v
	}
	for _, name := range listFields {
		raw, ok := out[name]
		if !ok {
			continue
		}
		var items []string
		for _, r := range raw {
			items = append(items, strings.Split(r, ",")...)
		}
		out[name] = items
	}
	return out
}

// stageUpload copies the multipart file under field to the upload dir. It
// returns an empty path when the request carries no such file.
func stageUpload(r *http.Request, field string, uploads Uploads) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Upload("failed to read uploaded file", err)
	}
	defer file.Close()

	path, err := storage.StageFile(uploads.Dir, file, header.Filename)
	if err != nil {
		return "", apperr.Upload("failed to store uploaded file", err)
	}
	return path, nil
}

// cleanupForm removes the temporary files net/http created for large
// multipart parts.
func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
