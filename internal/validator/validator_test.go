package validator

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/tunedex/tunedex/internal/models"
)

func testProber() *Prober {
	return New(2*time.Second, "test-agent")
}

func TestProbeHeadOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := testProber().Probe(context.Background(), srv.URL)
	if !res.Reachable {
		t.Fatal("expected reachable")
	}
	if res.Method != models.ProbeHead || res.Confidence != models.ConfidenceDefinite {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestProbeBlockedStatuses(t *testing.T) {
	for _, code := range []int{403, 410, 451, 500, 503} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		res := testProber().Probe(context.Background(), srv.URL)
		srv.Close()
		if res.Reachable {
			t.Errorf("status %d: expected not reachable", code)
		}
	}
}

func TestProbeHeadRejectedGetSniffContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			// Many stream CDNs reject HEAD outright.
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte{0xff, 0xfb, 0x90})
	}))
	defer srv.Close()

	res := testProber().Probe(context.Background(), srv.URL)
	if !res.Reachable {
		t.Fatal("expected GET sniff to accept an audio content type")
	}
	if res.Method != models.ProbeGetSniff {
		t.Errorf("Method = %s, want GET-sniff", res.Method)
	}
}

func TestProbeGetSniffPayloadMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		// Misleading content type; the payload marker must still win.
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("#EXTM3U\n#EXT-X-VERSION:3\n"))
	}))
	defer srv.Close()

	res := testProber().Probe(context.Background(), srv.URL)
	if !res.Reachable {
		t.Fatal("expected payload marker to be sufficient")
	}
}

func TestProbeBothProbesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	res := testProber().Probe(context.Background(), srv.URL)
	if res.Reachable {
		t.Fatal("expected not reachable when both probes are inconclusive")
	}
}

func TestProbeKnownPlatformShortCircuit(t *testing.T) {
	res := testProber().Probe(context.Background(), "https://www.youtube.com/watch?v=abc")
	if !res.Reachable {
		t.Fatal("platform URLs must be accepted without probing")
	}
	if res.Method != models.ProbeKnownPlatform {
		t.Errorf("Method = %s", res.Method)
	}
}

func TestIsDNSFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", &net.DNSError{Err: "no such host", IsNotFound: true}, true},
		{"temporary", &net.DNSError{Err: "server misbehaving", IsTemporary: true}, true},
		{"permanent dns", &net.DNSError{Err: "other"}, false},
		{"wrapped in url.Error", &url.Error{Op: "Head", URL: "http://x", Err: &net.DNSError{IsNotFound: true}}, true},
		{"plain error", errors.New("connection refused"), false},
	}
	for _, c := range cases {
		if got := isDNSFailure(c.err); got != c.want {
			t.Errorf("%s: isDNSFailure = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestBlockedStatus(t *testing.T) {
	blocked := []int{403, 410, 451, 500, 502, 599}
	allowed := []int{200, 204, 301, 404, 405, 429}
	for _, code := range blocked {
		if !blockedStatus(code) {
			t.Errorf("status %d should be blocked", code)
		}
	}
	for _, code := range allowed {
		if blockedStatus(code) {
			t.Errorf("status %d should not be blocked", code)
		}
	}
}
