package dispatch

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/orbas1/pstore/internal/httpparse"
	"github.com/orbas1/pstore/internal/romfs"
)

// readChunkSize is the size of each chunk the static handler copies from
// the filesystem into the response body, matching the reference
// implementation's fixed 1 KiB read buffer.
const readChunkSize = 1024

func (d *Dispatcher) serveStatic(path string) string {
	if path == "" {
		path = "/"
	}
	if strings.HasSuffix(path, "/") {
		path += "index.html"
	}

	st, err := d.fs.Stat(path)
	if err != nil {
		return notFoundOrError(path, err)
	}
	data, err := d.fs.Open(path)
	if err != nil {
		return notFoundOrError(path, err)
	}

	headers := httpparse.BuildHeaders([]httpparse.Header{
		{Name: "Content-length", Value: strconv.FormatInt(st.Size, 10)},
		{Name: "Content-type", Value: mediaTypeFromFilename(path)},
		{Name: "Connection", Value: "close"},
		{Name: "Date", Value: httpparse.HTTPDate(time.Now())},
		{Name: "Last-Modified", Value: httpparse.HTTPDate(st.Mtime)},
	})

	var body strings.Builder
	body.Grow(len(data))
	for off := 0; off < len(data); off += readChunkSize {
		end := off + readChunkSize
		if end > len(data) {
			end = len(data)
		}
		body.Write(data[off:end])
	}

	return httpparse.BuildStatusLine(httpparse.StatusOK, "") + headers + body.String()
}

func notFoundOrError(path string, err error) string {
	if errors.Is(err, romfs.ErrNotExist) || errors.Is(err, romfs.ErrNotDir) {
		return httpparse.ErrorPage(httpparse.StatusNotFound, path, "Not Found",
			"The requested resource was not found on this server")
	}
	return httpparse.ReportError(err, path)
}
