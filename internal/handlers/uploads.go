package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const maxUploadBytes = 512 << 20

// saveUpload copies the named multipart file to a temp path the media store
// can read. It returns ok=false when the field is absent. The caller owns the
// returned cleanup.
func saveUpload(r *http.Request, field string) (path string, cleanup func(), ok bool, err error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", func() {}, false, nil
		}
		return "", func() {}, false, err
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "vidtube-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", func() {}, false, err
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", func() {}, false, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", func() {}, false, err
	}

	name := tmp.Name()
	return name, func() { os.Remove(name) }, true, nil
}
