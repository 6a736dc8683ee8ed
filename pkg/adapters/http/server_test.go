package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	plotcalc "github.com/AbhinitBarua/PlottingCalculator"
	"github.com/AbhinitBarua/PlottingCalculator/internal/logging"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/gonumplot"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...plotcalc.Option) (*plotcalc.Service, *StreamManager, http.Handler) {
	t.Helper()
	streams := NewStreamManager(logging.NewNop())
	opts = append(opts, plotcalc.WithSinkFactory(streams.Sink))
	svc, err := plotcalc.New(opts...)
	require.NoError(t, err)

	handler := NewHandler(svc,
		WithStreams(streams),
		WithLogger(logging.NewNop()),
		WithRenderer(gonumplot.NewRenderer(gonumplot.WithSize(160, 120))),
		WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		})),
	)
	return svc, streams, handler
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createSession(t *testing.T, h http.Handler) SessionView {
	t.Helper()
	w := do(t, h, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[SessionView](t, w)
}

func TestHealthInfoMetrics(t *testing.T) {
	_, _, h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = do(t, h, http.MethodGet, "/info", nil)
	info := decode[map[string]string](t, w)
	assert.Equal(t, plotcalc.Version, info["version"])

	w = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, "# metrics", w.Body.String())

	w = do(t, h, http.MethodOptions, "/sessions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCalculate(t *testing.T) {
	_, _, h := newTestServer(t)

	tests := []struct {
		expr string
		want string
	}{
		{"2 + 3 * 4", "14"},
		{"", "Please enter an expression"},
		{"1/0", "Infinity"},
	}
	for _, tt := range tests {
		w := do(t, h, http.MethodPost, "/calculate", CalculateRequest{Expression: tt.expr})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tt.want, decode[CalculateResponse](t, w).Result)
	}

	w := do(t, h, http.MethodPost, "/calculate", CalculateRequest{Expression: "2 +"})
	assert.True(t, strings.HasPrefix(decode[CalculateResponse](t, w).Result, "Error: "))

	req := httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	_, _, h := newTestServer(t)

	sess := createSession(t, h)
	require.Len(t, sess.Functions, 1)
	assert.Equal(t, "f(x) = sin(x)", sess.Functions[0].Label)

	w := do(t, h, http.MethodGet, "/sessions", nil)
	assert.Contains(t, decode[map[string][]string](t, w)["sessions"], sess.SessionID)

	base := "/sessions/" + sess.SessionID

	xMin, xMax := -2.0, 2.0
	w = do(t, h, http.MethodPost, base+"/functions", AddFunctionRequest{Expression: "x^2", XMin: &xMin, XMax: &xMax})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	added := decode[ChangeResponse](t, w)
	require.NotNil(t, added.Function)
	assert.Equal(t, 1, added.Function.Index)
	assert.Equal(t, domain.DefaultPalette[1], added.Function.Color)
	assert.Equal(t, domain.Domain{XMin: -2, XMax: 2}, added.Session.Domain)

	w = do(t, h, http.MethodPut, base+"/domain", domain.Domain{XMin: -1, XMax: 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, base+"/series", nil)
	require.Equal(t, http.StatusOK, w.Code)
	plot := decode[domain.Plot](t, w)
	require.Len(t, plot.Series, 2)
	assert.Equal(t, -1.0, plot.Series[1].Points[0].X)

	w = do(t, h, http.MethodDelete, base+"/functions/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	removed := decode[ChangeResponse](t, w)
	assert.Equal(t, "sin(x)", removed.Function.Expression)
	require.Len(t, removed.Session.Functions, 1)
	assert.Equal(t, 0, removed.Session.Functions[0].Index)
	assert.Equal(t, "x^2", removed.Session.Functions[0].Expression)

	w = do(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorMapping(t *testing.T) {
	_, _, h := newTestServer(t)
	base := "/sessions/" + createSession(t, h).SessionID
	lo := 1.0

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		msg    string
	}{
		{"empty expression", http.MethodPost, base + "/functions", AddFunctionRequest{Expression: " "}, http.StatusBadRequest, "Please enter a function expression"},
		{"bad expression", http.MethodPost, base + "/functions", AddFunctionRequest{Expression: "sin("}, http.StatusBadRequest, "Invalid expression: "},
		{"half domain", http.MethodPost, base + "/functions", AddFunctionRequest{Expression: "x", XMin: &lo}, http.StatusBadRequest, "X Min must be less than X Max"},
		{"inverted domain", http.MethodPut, base + "/domain", domain.Domain{XMin: 3, XMax: 1}, http.StatusBadRequest, "X Min must be less than X Max"},
		{"bad index", http.MethodDelete, base + "/functions/abc", nil, http.StatusBadRequest, "index must be an integer"},
		{"missing index", http.MethodDelete, base + "/functions/7", nil, http.StatusNotFound, "No function at that position"},
		{"missing session", http.MethodGet, "/sessions/nope/series", nil, http.StatusNotFound, "session not found"},
		{"bad format", http.MethodGet, base + "/plot.gif", nil, http.StatusNotFound, "unsupported image format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, decode[ErrorResponse](t, w).Error, tt.msg)
		})
	}
}

func TestPlotImage(t *testing.T) {
	_, _, h := newTestServer(t)
	base := "/sessions/" + createSession(t, h).SessionID

	w := do(t, h, http.MethodGet, base+"/plot.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	_, err := png.Decode(w.Body)
	assert.NoError(t, err)

	w = do(t, h, http.MethodGet, base+"/plot.svg", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<svg")
}

type failingPing struct{ *plotcalc.Service }

func (failingPing) Ping(context.Context) error { return errors.New("store down") }

func TestHealthUnavailable(t *testing.T) {
	svc, err := plotcalc.New()
	require.NoError(t, err)
	h := NewHandler(failingPing{svc}, WithLogger(logging.NewNop()))

	w := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// readEvents collects SSE events until n have arrived or the stream ends.
func readEvents(t *testing.T, body *bufio.Scanner, n int) []Message {
	t.Helper()
	var (
		events []Message
		cur    Message
	)
	for len(events) < n && body.Scan() {
		line := body.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.Data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.Event != "" {
				events = append(events, cur)
			}
			cur = Message{}
		}
	}
	return events
}

func TestSubscribeEvents_Session(t *testing.T) {
	_, streams, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	sess := createSession(t, h)
	base := "/sessions/" + sess.SessionID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+base+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)

	initial := readEvents(t, scanner, 2)
	require.Len(t, initial, 2)
	assert.Equal(t, "ping", initial[0].Event)
	assert.Equal(t, EventDiff, initial[1].Event)
	assert.Contains(t, initial[1].Data, `"expression":"sin(x)"`)

	require.Eventually(t, func() bool { return streams.Subscribers(sess.SessionID) == 1 }, time.Second, 10*time.Millisecond)

	w := do(t, h, http.MethodPost, base+"/functions", AddFunctionRequest{Expression: "cos(x)"})
	require.Equal(t, http.StatusCreated, w.Code)

	updates := readEvents(t, scanner, 2)
	require.Len(t, updates, 2)
	assert.Equal(t, EventPlot, updates[0].Event, "the refresh reaches the sink before the diff is published")
	var plot domain.Plot
	require.NoError(t, json.Unmarshal([]byte(updates[0].Data), &plot))
	assert.Len(t, plot.Series, 2)

	assert.Equal(t, EventDiff, updates[1].Event)
	var diff domain.StateDiff
	require.NoError(t, json.Unmarshal([]byte(updates[1].Data), &diff))
	assert.Len(t, diff.Functions, 2)
	assert.Nil(t, diff.Domain)

	w = do(t, h, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	final := readEvents(t, scanner, 1)
	require.Len(t, final, 1)
	assert.Equal(t, EventDeleted, final[0].Event)
}

func TestSubscribeEvents_WatchFilter(t *testing.T) {
	_, streams, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	sess := createSession(t, h)
	base := "/sessions/" + sess.SessionID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+base+"/events?watch=plot", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)

	initial := readEvents(t, scanner, 1)
	require.Len(t, initial, 1)
	assert.Equal(t, "ping", initial[0].Event)

	require.Eventually(t, func() bool { return streams.Subscribers(sess.SessionID) == 1 }, time.Second, 10*time.Millisecond)

	w := do(t, h, http.MethodPut, base+"/domain", domain.Domain{XMin: 0, XMax: 1})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodPost, base+"/functions", AddFunctionRequest{Expression: "x"})
	require.Equal(t, http.StatusCreated, w.Code)

	events := readEvents(t, scanner, 2)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, EventPlot, e.Event, "diffs are filtered out")
	}
}

func TestSubscribeEvents_UnknownSession(t *testing.T) {
	_, _, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/sessions/nope/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
