package dispatch

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/orbas1/pstore/internal/httpparse"
	"github.com/orbas1/pstore/internal/romfs"
)

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	mapFS := fstest.MapFS{
		"index.html": {Data: []byte("<html>home</html>")},
		"style.css":  {Data: []byte("body{}")},
	}
	root, err := romfs.Build(mapFS)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	d := New(romfs.New(root), NewMetrics())
	d.RegisterDefaults()
	return d
}

func TestServeVersionCommand(t *testing.T) {
	d := testDispatcher(t)
	resp := d.Serve(httpparse.Request{Target: "/cmd/version"})
	if !strings.Contains(resp, "200 OK") {
		t.Fatalf("missing 200 status: %q", resp)
	}
	if !strings.Contains(resp, "application/json") {
		t.Fatalf("missing content-type: %q", resp)
	}
	if !strings.Contains(resp, `"version"`) {
		t.Fatalf("missing version body: %q", resp)
	}
}

func TestServeUnknownCommandIsBadRequest(t *testing.T) {
	d := testDispatcher(t)
	resp := d.Serve(httpparse.Request{Target: "/cmd/nope"})
	if !strings.Contains(resp, "400 Bad Request") {
		t.Fatalf("expected 400: %q", resp)
	}
}

func TestServeMetricsCommand(t *testing.T) {
	d := testDispatcher(t)
	resp := d.Serve(httpparse.Request{Target: "/cmd/metrics"})
	if !strings.Contains(resp, "200 OK") {
		t.Fatalf("missing 200 status: %q", resp)
	}
	if !strings.Contains(resp, "pstore_http_requests_total") {
		t.Fatalf("missing metric family: %q", resp)
	}
}

func TestServeRootMapsToIndex(t *testing.T) {
	d := testDispatcher(t)
	resp := d.Serve(httpparse.Request{Target: "/"})
	if !strings.Contains(resp, "200 OK") {
		t.Fatalf("missing 200: %q", resp)
	}
	if !strings.Contains(resp, "<html>home</html>") {
		t.Fatalf("missing body: %q", resp)
	}
	if !strings.Contains(resp, "text/html") {
		t.Fatalf("missing content-type: %q", resp)
	}
}

func TestServeStaticFile(t *testing.T) {
	d := testDispatcher(t)
	resp := d.Serve(httpparse.Request{Target: "/style.css"})
	if !strings.Contains(resp, "text/css") {
		t.Fatalf("missing content-type: %q", resp)
	}
	if !strings.Contains(resp, "body{}") {
		t.Fatalf("missing body: %q", resp)
	}
}

func TestServeMissingFileIs404(t *testing.T) {
	d := testDispatcher(t)
	resp := d.Serve(httpparse.Request{Target: "/nope.css"})
	if !strings.Contains(resp, "404 Not Found") {
		t.Fatalf("expected 404: %q", resp)
	}
}

func TestQueryToKVP(t *testing.T) {
	got := QueryToKVP("a=1&b=2&flag")
	want := map[string]string{"a": "1", "b": "2", "flag": ""}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("got[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestQueryToKVPEmpty(t *testing.T) {
	got := QueryToKVP("")
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}

func TestRegisterKeepsSortedOrder(t *testing.T) {
	d := New(nil, nil)
	d.Register("zeta", func(map[string]string) string { return "z" })
	d.Register("alpha", func(map[string]string) string { return "a" })
	d.Register("mid", func(map[string]string) string { return "m" })

	names := make([]string, len(d.commands))
	for i, c := range d.commands {
		names[i] = c.name
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}
