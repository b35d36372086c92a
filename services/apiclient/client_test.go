package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pathways/core/career"
	"github.com/trezcool/pathways/core/student"
	"github.com/trezcool/pathways/services/apicache"
)

type logEntry struct {
	level string
	msg   string
	args  []interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *recordingLogger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// countingServer answers with the handler registered for "METHOD /path" and counts the hits per route.
type countingServer struct {
	*httptest.Server
	mu       sync.Mutex
	hits     map[string]int
	handlers map[string]http.HandlerFunc
}

func newCountingServer(t *testing.T, handlers map[string]http.HandlerFunc) *countingServer {
	t.Helper()
	cs := &countingServer{hits: make(map[string]int), handlers: handlers}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		cs.mu.Lock()
		cs.hits[route]++
		h, ok := cs.handlers[route]
		cs.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *countingServer) hitsOf(route string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.hits[route]
}

func jsonHandler(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (fc *fakeClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.now
}

func (fc *fakeClock) Advance(d time.Duration) {
	fc.mu.Lock()
	fc.now = fc.now.Add(d)
	fc.mu.Unlock()
}

func newTestClient(t *testing.T, baseURL string, opts ...apicache.Option) (*Client, *recordingLogger) {
	t.Helper()
	logger := new(recordingLogger)
	c, err := New(Options{
		BaseURL:  baseURL,
		CacheTTL: time.Minute,
		Logger:   logger,
		Cache:    apicache.New(opts...),
	})
	require.NoError(t, err)
	return c, logger
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "valid", opts: Options{BaseURL: "http://localhost:8000/v1/", Logger: new(recordingLogger)}},
		{name: "no base url", opts: Options{Logger: new(recordingLogger)}, wantErr: true},
		{name: "relative base url", opts: Options{BaseURL: "/v1", Logger: new(recordingLogger)}, wantErr: true},
		{name: "no logger", opts: Options{BaseURL: "http://localhost:8000/v1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://localhost:8000/v1", c.baseURL)
			assert.Equal(t, Timeout, c.http.Timeout)
		})
	}
}

func TestClient_cacheHit(t *testing.T) {
	srv := newCountingServer(t, map[string]http.HandlerFunc{
		"GET /v1/students": jsonHandler(http.StatusOK, `[{"id":"1"}]`),
	})
	c, _ := newTestClient(t, srv.URL+"/v1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		students, err := c.ListStudents(ctx, nil, "")
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, "1", students[0].ID)
	}
	assert.Equal(t, 1, srv.hitsOf("GET /v1/students"))

	_, err := c.ListStudents(ctx, nil, "", WithNoCache())
	require.NoError(t, err)
	assert.Equal(t, 2, srv.hitsOf("GET /v1/students"))

	// another query is another key
	_, err = c.ListStudents(ctx, nil, "last_name")
	require.NoError(t, err)
	assert.Equal(t, 3, srv.hitsOf("GET /v1/students"))
}

func TestClient_deduplicate(t *testing.T) {
	release := make(chan struct{})
	srv := newCountingServer(t, map[string]http.HandlerFunc{
		"GET /v1/users/me": func(w http.ResponseWriter, r *http.Request) {
			<-release
			jsonHandler(http.StatusOK, `{"id":"me","username":"ada"}`)(w, r)
		},
	})
	c, _ := newTestClient(t, srv.URL+"/v1")

	const callers = 10
	var wg sync.WaitGroup
	names := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			usr, err := c.Me(context.Background())
			names[i], errs[i] = usr.Username, err
		}(i)
	}

	require.Eventually(t, func() bool { return srv.hitsOf("GET /v1/users/me") == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, srv.hitsOf("GET /v1/users/me"))
	for i := 0; i < callers; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, "ada", names[i])
	}
}

func TestClient_background(t *testing.T) {
	var version int32
	srv := newCountingServer(t, map[string]http.HandlerFunc{
		"GET /v1/users/me": func(w http.ResponseWriter, r *http.Request) {
			v := atomic.AddInt32(&version, 1)
			jsonHandler(http.StatusOK, fmt.Sprintf(`{"username":"v%d"}`, v))(w, r)
		},
	})
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c, _ := newTestClient(t, srv.URL+"/v1", apicache.WithClock(clock.Now))
	ctx := context.Background()

	// nothing cached: fetches like a foreground call
	usr, err := c.Me(ctx, WithBackground())
	require.NoError(t, err)
	assert.Equal(t, "v1", usr.Username)
	c.Wait()
	assert.Equal(t, 1, srv.hitsOf("GET /v1/users/me"))

	clock.Advance(2 * time.Minute)

	// stale: served at once, refreshed behind
	usr, err = c.Me(ctx, WithBackground())
	require.NoError(t, err)
	assert.Equal(t, "v1", usr.Username)
	c.Wait()
	assert.Equal(t, 2, srv.hitsOf("GET /v1/users/me"))

	usr, err = c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", usr.Username)
	assert.Equal(t, 2, srv.hitsOf("GET /v1/users/me"))

	// stale, foreground: fetched
	clock.Advance(2 * time.Minute)
	usr, err = c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v3", usr.Username)
}

func TestClient_invalidation(t *testing.T) {
	srv := newCountingServer(t, map[string]http.HandlerFunc{
		"GET /v1/students":                 jsonHandler(http.StatusOK, `[]`),
		"POST /v1/students":                jsonHandler(http.StatusCreated, `{"id":"s1"}`),
		"GET /v1/students/s1":              jsonHandler(http.StatusOK, `{"id":"s1"}`),
		"GET /v1/students/s1/notes":        jsonHandler(http.StatusOK, `[]`),
		"POST /v1/students/s1/notes":       jsonHandler(http.StatusCreated, `{"id":"n1"}`),
		"GET /v1/students/s1/documents":    jsonHandler(http.StatusOK, `[]`),
		"PUT /v1/students/s1/documents/d1": jsonHandler(http.StatusBadRequest, `{"url":"url must be a valid URL"}`),
		"GET /v1/users/me":                 jsonHandler(http.StatusOK, `{"id":"me"}`),
	})
	c, _ := newTestClient(t, srv.URL+"/v1")
	ctx := context.Background()

	warm := func() {
		_, err := c.ListStudents(ctx, nil, "")
		require.NoError(t, err)
		_, err = c.GetStudent(ctx, "s1")
		require.NoError(t, err)
		_, err = c.Notes().List(ctx, "s1")
		require.NoError(t, err)
		_, err = c.Documents().List(ctx, "s1")
		require.NoError(t, err)
		_, err = c.Me(ctx)
		require.NoError(t, err)
	}
	hits := func() []int {
		return []int{
			srv.hitsOf("GET /v1/students"),
			srv.hitsOf("GET /v1/students/s1"),
			srv.hitsOf("GET /v1/students/s1/notes"),
			srv.hitsOf("GET /v1/students/s1/documents"),
			srv.hitsOf("GET /v1/users/me"),
		}
	}

	warm()
	warm()
	assert.Equal(t, []int{1, 1, 1, 1, 1}, hits())

	// a nested record drops its collection only
	_, err := c.Notes().Create(ctx, "s1", career.NewNote{Content: "hi"})
	require.NoError(t, err)
	warm()
	assert.Equal(t, []int{1, 1, 2, 1, 1}, hits())

	// a failed mutation drops nothing
	url := "https://files.test/cv.pdf"
	_, err = c.Documents().Update(ctx, "s1", "d1", career.UpdateDocument{URL: &url})
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	warm()
	assert.Equal(t, []int{1, 1, 2, 1, 1}, hits())

	// a student drops everything under /students
	_, err = c.CreateStudent(ctx, student.NewStudent{FirstName: "Ada"})
	require.NoError(t, err)
	warm()
	assert.Equal(t, []int{2, 2, 3, 2, 1}, hits())
}

func TestClient_failedGetNotCached(t *testing.T) {
	var calls int32
	srv := newCountingServer(t, map[string]http.HandlerFunc{
		"GET /v1/users/me": func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				jsonHandler(http.StatusInternalServerError, `{"error":"Internal Server Error"}`)(w, r)
				return
			}
			jsonHandler(http.StatusOK, `{"username":"ada"}`)(w, r)
		},
	})
	c, logger := newTestClient(t, srv.URL+"/v1")
	ctx := context.Background()

	_, err := c.Me(ctx)
	assert.True(t, IsKind(err, KindServer))
	assert.Equal(t, 1, logger.count())

	usr, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada", usr.Username)
	assert.Equal(t, 2, srv.hitsOf("GET /v1/users/me"))
}

func TestClient_errors(t *testing.T) {
	srv := newCountingServer(t, map[string]http.HandlerFunc{
		"GET /v1/students/s404":  jsonHandler(http.StatusNotFound, `{"error":"student not found"}`),
		"POST /v1/students":      jsonHandler(http.StatusBadRequest, `{"email":"this field is required"}`),
		"GET /v1/students/bad":   jsonHandler(http.StatusOK, `{"id":`),
		"DELETE /v1/students/s1": jsonHandler(http.StatusForbidden, `{"message":"nope","code":"forbidden","details":{"role":"admin"}}`),
		"GET /v1/students/plain": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		},
		"GET /v1/users/me": func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			jsonHandler(http.StatusOK, `{}`)(w, r)
		},
		"POST /v1/users/password-reset": func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			jsonHandler(http.StatusOK, `{}`)(w, r)
		},
	})
	c, logger := newTestClient(t, srv.URL+"/v1")

	timeoutCtx := func() context.Context {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		t.Cleanup(cancel)
		return ctx
	}

	tests := []struct {
		name        string
		call        func() error
		want        APIError
		wantDetails interface{}
		timeout     bool
	}{
		{
			name: "not found",
			call: func() error { _, err := c.GetStudent(context.Background(), "s404"); return err },
			want: APIError{Kind: KindServer, Status: http.StatusNotFound, Message: "student not found"},
		},
		{
			name:        "field errors",
			call:        func() error { _, err := c.CreateStudent(context.Background(), student.NewStudent{}); return err },
			want:        APIError{Kind: KindServer, Status: http.StatusBadRequest, Message: "Bad Request"},
			wantDetails: map[string]interface{}{"email": "this field is required"},
		},
		{
			name:        "message, code & details",
			call:        func() error { return c.DeleteStudent(context.Background(), "s1") },
			want:        APIError{Kind: KindServer, Status: http.StatusForbidden, Message: "nope", Code: "forbidden"},
			wantDetails: map[string]interface{}{"role": "admin"},
		},
		{
			name: "not json",
			call: func() error { _, err := c.GetStudent(context.Background(), "plain"); return err },
			want: APIError{Kind: KindServer, Status: http.StatusBadGateway, Message: "Bad Gateway"},
		},
		{
			name: "bad response body",
			call: func() error { _, err := c.GetStudent(context.Background(), "bad"); return err },
			want: APIError{Kind: KindRequest, Message: "decoding response body"},
		},
		{
			name: "unencodable body",
			call: func() error { return c.Do(context.Background(), http.MethodPost, "/students", make(chan int), nil) },
			want: APIError{Kind: KindRequest, Message: "encoding request body"},
		},
		{
			name:    "deduplicated GET timeout",
			call:    func() error { _, err := c.Me(timeoutCtx()); return err },
			want:    APIError{Kind: KindNetwork},
			timeout: true,
		},
		{
			name:    "mutation timeout",
			call:    func() error { return c.RequestPasswordReset(timeoutCtx(), "ada@test.cd") },
			want:    APIError{Kind: KindNetwork},
			timeout: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := logger.count()
			err := tt.call()

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.want.Kind, apiErr.Kind)
			assert.Equal(t, tt.want.Status, apiErr.Status)
			if tt.want.Message != "" {
				assert.Equal(t, tt.want.Message, apiErr.Message)
			}
			assert.Equal(t, tt.want.Code, apiErr.Code)
			assert.Equal(t, tt.wantDetails, apiErr.Details)
			assert.Equal(t, tt.timeout, apiErr.Timeout())
			assert.Equal(t, 1, logger.count()-before, "reported once")
		})
	}
	c.Wait()

	t.Run("connection refused", func(t *testing.T) {
		down := httptest.NewServer(http.NotFoundHandler())
		down.Close()
		dc, _ := newTestClient(t, down.URL+"/v1")

		_, err := dc.Me(context.Background())
		assert.True(t, IsKind(err, KindNetwork))
		assert.False(t, IsKind(err, KindServer))
	})
}

func TestInvalidationPattern(t *testing.T) {
	base := "http://api.test/v1"
	key := func(path string) string { return cacheKey(http.MethodGet, base+path, nil) }

	tests := []struct {
		path      string
		matches   []string
		unmatched []string
	}{
		{
			path:      "/students",
			matches:   []string{key("/students"), key("/students?search=ada"), key("/students/s1"), key("/students/s1/notes")},
			unmatched: []string{key("/users/me"), key("/studentsx"), cacheKey(http.MethodPost, base+"/students", nil)},
		},
		{
			path:      "/students/s1",
			matches:   []string{key("/students"), key("/students/s2/notes")},
			unmatched: []string{key("/users/me")},
		},
		{
			path:      "/students/s1/notes/n1",
			matches:   []string{key("/students/s1/notes"), key("/students/s1/notes/n1")},
			unmatched: []string{key("/students"), key("/students/s1"), key("/students/s1/documents"), key("/students/s2/notes")},
		},
		{
			path:      "/users/password-reset?x=1",
			matches:   []string{key("/users/me")},
			unmatched: []string{key("/students")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			pattern := invalidationPattern(base, tt.path)
			for _, k := range tt.matches {
				assert.True(t, pattern.MatchString(k), k)
			}
			for _, k := range tt.unmatched {
				assert.False(t, pattern.MatchString(k), k)
			}
		})
	}
}

func TestClient_inFlightReadNotCached(t *testing.T) {
	t.Run("new session", func(t *testing.T) {
		release := make(chan struct{})
		srv := newCountingServer(t, map[string]http.HandlerFunc{
			"GET /v1/users/me": func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") == "Bearer alice" {
					<-release
					jsonHandler(http.StatusOK, `{"username":"alice"}`)(w, r)
					return
				}
				jsonHandler(http.StatusOK, `{"username":"bob"}`)(w, r)
			},
		})
		c, _ := newTestClient(t, srv.URL+"/v1")
		c.SetToken("alice")

		done := make(chan string)
		go func() {
			usr, _ := c.Me(context.Background())
			done <- usr.Username
		}()
		require.Eventually(t, func() bool { return srv.hitsOf("GET /v1/users/me") == 1 }, time.Second, time.Millisecond)

		c.SetToken("bob")
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		usr, err := c.Me(ctx)
		require.NoError(t, err, "does not join the previous session's request")
		assert.Equal(t, "bob", usr.Username)

		close(release)
		assert.Equal(t, "alice", <-done)

		usr, err = c.Me(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "bob", usr.Username)
		assert.Equal(t, 2, srv.hitsOf("GET /v1/users/me"))
	})

	t.Run("mutation", func(t *testing.T) {
		release := make(chan struct{})
		var calls int32
		srv := newCountingServer(t, map[string]http.HandlerFunc{
			"GET /v1/students": func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&calls, 1) == 1 {
					<-release
					jsonHandler(http.StatusOK, `[]`)(w, r)
					return
				}
				jsonHandler(http.StatusOK, `[{"id":"s1"}]`)(w, r)
			},
			"POST /v1/students": jsonHandler(http.StatusCreated, `{"id":"s1"}`),
		})
		c, _ := newTestClient(t, srv.URL+"/v1")
		ctx := context.Background()

		done := make(chan int)
		go func() {
			students, _ := c.ListStudents(ctx, nil, "")
			done <- len(students)
		}()
		require.Eventually(t, func() bool { return srv.hitsOf("GET /v1/students") == 1 }, time.Second, time.Millisecond)

		_, err := c.CreateStudent(ctx, student.NewStudent{FirstName: "Ada"})
		require.NoError(t, err)
		close(release)
		assert.Equal(t, 0, <-done)

		students, err := c.ListStudents(ctx, nil, "")
		require.NoError(t, err)
		assert.Len(t, students, 1)
		assert.Equal(t, 2, srv.hitsOf("GET /v1/students"))
	})
}

func TestClient_StudentOverview_reportsOnce(t *testing.T) {
	release := make(chan struct{})
	wait := func(w http.ResponseWriter, r *http.Request) {
		<-release
		jsonHandler(http.StatusOK, `[]`)(w, r)
	}
	srv := newCountingServer(t, map[string]http.HandlerFunc{
		"GET /v1/students/s1":                      jsonHandler(http.StatusInternalServerError, `{"error":"boom"}`),
		"GET /v1/students/s1/notes":                wait,
		"GET /v1/students/s1/consultations":        wait,
		"GET /v1/students/s1/applications":         wait,
		"GET /v1/students/s1/workshops":            wait,
		"GET /v1/students/s1/mock-interviews":      wait,
		"GET /v1/students/s1/documents":            wait,
		"GET /v1/students/s1/employer-connections": wait,
	})
	c, logger := newTestClient(t, srv.URL+"/v1")

	_, err := c.StudentOverview(context.Background(), "s1")
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	close(release)
	assert.Equal(t, 1, logger.count())
}
