package vin

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"yard-sniper/models"
	"yard-sniper/utils"
)

func newTestDecoder(url string) *Decoder {
	logger := utils.NewLogger()
	logger.SetOutput(io.Discard)
	return NewDecoder(url, 2*time.Second, logger)
}

func TestDecodeShortInputSkipsNetwork(t *testing.T) {
	var hits int64
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer testServer.Close()

	d := newTestDecoder(testServer.URL)
	for _, in := range []string{"", "SHORT", "1234567890"} {
		if got := d.Decode(context.Background(), in); !got.IsZero() {
			t.Errorf("Decode(%q) = %+v; want zero VinInfo", in, got)
		}
	}
	if hits != 0 {
		t.Errorf("expected no network calls, got %d", hits)
	}
}

func TestDecodeParsesResults(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/decodevinvalues/KNDJN2A2XC7012345") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("format") != "json" {
			http.Error(w, "format", http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{"Count":1,"Results":[{
			"ModelYear":"2012","Make":"KIA","Model":"Sorento",
			"EngineModel":"","DisplacementL":"2.4","EngineCylinders":"4",
			"DriveType":"4WD/4-Wheel Drive/4x4","Extra":"ignored"}]}`)
	}))
	defer testServer.Close()

	got := newTestDecoder(testServer.URL).Decode(context.Background(), "kndjn2a2xc7012345")
	want := models.VinInfo{
		Year:       2012,
		Make:       "KIA",
		Model:      "Sorento",
		Engine:     "2.4L 4cyl",
		Drivetrain: models.DriveAWD,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFailuresYieldZero(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "<html>not json</html>")
		},
		"empty results": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"Results":[]}`)
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			testServer := httptest.NewServer(handler)
			defer testServer.Close()

			got := newTestDecoder(testServer.URL).Decode(context.Background(), "1YVHZ8BH2B5M22295")
			if !got.IsZero() {
				t.Errorf("Decode() = %+v; want zero VinInfo", got)
			}
		})
	}
}

func TestDecodeUnreachable(t *testing.T) {
	got := newTestDecoder("http://127.0.0.1:1").Decode(context.Background(), "1YVHZ8BH2B5M22295")
	if !got.IsZero() {
		t.Errorf("Decode() = %+v; want zero VinInfo", got)
	}
}
