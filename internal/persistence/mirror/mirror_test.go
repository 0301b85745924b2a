package mirror

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type recordedPut struct {
	method string
	path   string
	header http.Header
	body   []byte
}

func recordingServer(t *testing.T) (*httptest.Server, func() []recordedPut) {
	t.Helper()
	var mu sync.Mutex
	var puts []recordedPut
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		puts = append(puts, recordedPut{
			method: r.Method,
			path:   r.URL.Path,
			header: r.Header.Clone(),
			body:   body,
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedPut {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedPut(nil), puts...)
	}
}

func TestMirror_UploadsRelativeKeys(t *testing.T) {
	srv, recorded := recordingServer(t)

	baseDir := t.TempDir()
	local := filepath.Join(baseDir, "worlds", "arrakis_1", "snapshots", "9.snap.zst")
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := []byte("snap-body")
	if err := os.WriteFile(local, body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m, err := New(Config{
		Endpoint:        srv.URL,
		Bucket:          "dunes",
		Prefix:          "prod",
		AccessKeyID:     "AKID",
		SecretAccessKey: "sekrit",
	}, baseDir, nil)
	if err != nil {
		t.Fatalf("new mirror: %v", err)
	}
	m.Enqueue(local)
	m.Close()

	puts := recorded()
	if len(puts) != 1 {
		t.Fatalf("requests = %d, want 1", len(puts))
	}
	p := puts[0]
	if p.method != http.MethodPut {
		t.Fatalf("method = %s", p.method)
	}
	if want := "/dunes/prod/worlds/arrakis_1/snapshots/9.snap.zst"; p.path != want {
		t.Fatalf("path = %s want %s", p.path, want)
	}
	if string(p.body) != string(body) {
		t.Fatalf("body = %q", p.body)
	}

	sum := sha256.Sum256(body)
	if got := p.header.Get("x-amz-content-sha256"); got != hex.EncodeToString(sum[:]) {
		t.Fatalf("payload hash = %s", got)
	}
	auth := p.header.Get("Authorization")
	if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKID/") {
		t.Fatalf("authorization = %s", auth)
	}
	if !strings.Contains(auth, "SignedHeaders=host;x-amz-content-sha256;x-amz-date") {
		t.Fatalf("authorization = %s", auth)
	}
	if p.header.Get("x-amz-date") == "" {
		t.Fatalf("missing x-amz-date")
	}

	st := m.Stats()
	if st.EnqueuedTotal != 1 || st.UploadedTotal != 1 || st.FailedTotal != 0 || st.DroppedTotal != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestMirror_RefusesPathsOutsideBase(t *testing.T) {
	srv, recorded := recordingServer(t)

	baseDir := t.TempDir()
	outside := filepath.Join(t.TempDir(), "escape.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m, err := New(Config{
		Endpoint:        srv.URL,
		Bucket:          "dunes",
		AccessKeyID:     "AKID",
		SecretAccessKey: "sekrit",
	}, baseDir, nil)
	if err != nil {
		t.Fatalf("new mirror: %v", err)
	}
	m.Enqueue(outside)
	m.Close()

	if puts := recorded(); len(puts) != 0 {
		t.Fatalf("unexpected uploads: %+v", puts)
	}
	st := m.Stats()
	if st.FailedTotal != 1 || st.UploadedTotal != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestNewRequiresCoordinates(t *testing.T) {
	if _, err := New(Config{Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"}, ".", nil); err == nil {
		t.Fatalf("missing endpoint accepted")
	}
	if _, err := New(Config{Endpoint: "https://x", Bucket: "b"}, ".", nil); err == nil {
		t.Fatalf("missing credentials accepted")
	}
}

func TestNormalizeObjectKey(t *testing.T) {
	cases := []struct{ in, want string }{
		{"a/b.txt", "a/b.txt"},
		{"/lead/slash", "lead/slash"},
		{`win\style\path`, "win/style/path"},
		{"a/./b", "a/b"},
		{"a/../../b", ""},
		{"../../etc/passwd", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := normalizeObjectKey(c.in); got != c.want {
			t.Fatalf("normalizeObjectKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
