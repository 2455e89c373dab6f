package dispatch

import (
	"fmt"
	"time"

	"github.com/orbas1/pstore/internal/httpparse"
	"github.com/orbas1/pstore/internal/store"
)

// versionBody and versionModified are computed once: the store's on-disk
// format version doesn't change within a process lifetime, matching the
// reference implementation's function-local statics.
var (
	versionBody     = fmt.Sprintf(`{ "version": "%d.%d" }`, store.VersionMajor, store.VersionMinor)
	versionModified = time.Now()
)

// VersionCommand answers "/cmd/version" with the store's on-disk format
// version as a small JSON object.
func VersionCommand(map[string]string) string {
	headers := httpparse.BuildHeaders([]httpparse.Header{
		{Name: "Connection", Value: "close"},
		{Name: "Content-length", Value: fmt.Sprintf("%d", len(versionBody))},
		{Name: "Content-type", Value: "application/json"},
		{Name: "Date", Value: httpparse.HTTPDate(time.Now())},
		{Name: "Last-Modified", Value: httpparse.HTTPDate(versionModified)},
	})
	return httpparse.BuildStatusLine(httpparse.StatusOK, "") + headers + versionBody
}
