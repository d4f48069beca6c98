package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/xtfkit/internal/convert"
	"github.com/samcharles93/xtfkit/internal/toy"
)

func newTestEcho(t *testing.T) (*echo.Echo, string) {
	t.Helper()
	root := t.TempDir()
	if err := toy.Default().WriteFile(filepath.Join(root, "survey.xtf")); err != nil {
		t.Fatalf("write survey: %v", err)
	}
	server, err := NewServer(Config{Root: root, Amplitudes: true})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	e := echo.New()
	server.Register(e)
	return e, root
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListChannels(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/v1/files/channels?path=survey.xtf", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp ChannelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Format != "xtf" || resp.Packets != 10 || len(resp.Channels) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Channels[1].Name != "SB-HF" || resp.Channels[1].Packets != 5 || resp.Channels[1].Stats.Count != 5*48 {
		t.Fatalf("channel 1: %+v", resp.Channels[1])
	}
}

func TestListPacketsPaging(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/v1/files/channels/0/packets?path=survey.xtf&limit=2&offset=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp PacketsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var pings []uint32
	for _, r := range resp.Records {
		pings = append(pings, r.Ping)
	}
	if diff := cmp.Diff([]uint32{1001, 1002}, pings); diff != "" {
		t.Fatalf("pings (-want +got):\n%s", diff)
	}
	if resp.Next == nil || *resp.Next != 3 {
		t.Fatalf("next: %v", resp.Next)
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/files/channels/0/packets?path=survey.xtf&offset=4", "")
	var last PacketsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &last); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(last.Records) != 1 || last.Next != nil {
		t.Fatalf("last page: %d records next=%v", len(last.Records), last.Next)
	}
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing file", http.MethodGet, "/v1/files/channels?path=nope.xtf", "", http.StatusNotFound},
		{"missing path", http.MethodGet, "/v1/files/channels", "", http.StatusBadRequest},
		{"outside root", http.MethodGet, "/v1/files/channels?path=../etc/passwd", "", http.StatusForbidden},
		{"bad index", http.MethodGet, "/v1/files/channels/x/packets?path=survey.xtf", "", http.StatusBadRequest},
		{"no such channel", http.MethodGet, "/v1/files/channels/7/packets?path=survey.xtf", "", http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/v1/files/channels/0/packets?path=survey.xtf&limit=-1", "", http.StatusBadRequest},
		{"empty selection", http.MethodPost, "/v1/convert",
			`{"input":"survey.xtf","output":"a.sgy","target":"segy","channels":["9"]}`, http.StatusBadRequest},
		{"unsupported encoding", http.MethodPost, "/v1/convert",
			`{"input":"survey.xtf","output":"a.sgy","target":"segy","options":{"sample_format":"float64"}}`, http.StatusBadRequest},
		{"missing input", http.MethodPost, "/v1/convert",
			`{"input":"gone.xtf","output":"a.sgy","target":"segy"}`, http.StatusNotFound},
		{"unknown field", http.MethodPost, "/v1/convert", `{"input":"survey.xtf","bogus":1}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, e, tc.method, tc.path, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status: got %d want %d body=%s", rec.Code, tc.want, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Fatalf("missing error body: %s", rec.Body.String())
			}
		})
	}
}

func TestConvertEndpoint(t *testing.T) {
	t.Parallel()

	e, root := newTestEcho(t)
	body := `{"input":"survey.xtf","output":"line.sgy","target":"segy","channels":["SB-LF"],"options":{"sample_format":"ibm"}}`
	rec := doJSON(t, e, http.MethodPost, "/v1/convert", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var sum convert.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.PacketsWritten != 5 || sum.SampleFormat != "ibm" || sum.RunID == "" {
		t.Fatalf("summary: %+v", sum)
	}
	st, err := os.Stat(filepath.Join(root, "line.sgy"))
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	if st.Size() != sum.BytesWritten {
		t.Fatalf("size %d, summary %d", st.Size(), sum.BytesWritten)
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/convert", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second convert: got %d body=%s", rec.Code, rec.Body.String())
	}
}
