package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/insightx/server/internal/core/errx"
	"github.com/insightx/server/internal/insight/model"
	"github.com/insightx/server/internal/session"
)

type stubRunner struct {
	resp *model.PipelineResponse
	err  error
	last model.AskInput
}

func (s *stubRunner) Ask(_ context.Context, in model.AskInput) (*model.PipelineResponse, error) {
	s.last = in
	if s.err != nil {
		return nil, s.err
	}
	out := *s.resp
	out.Question = strings.TrimSpace(in.Question)
	return &out, nil
}

type stubSessions struct {
	mu       sync.Mutex
	messages map[string][]session.Message
	titles   map[string]string
	created  []*session.Session
	deleted  bool
}

func newStubSessions() *stubSessions {
	return &stubSessions{
		messages: map[string][]session.Message{},
		titles:   map[string]string{},
	}
}

func (s *stubSessions) Create(_ context.Context, title string) (*session.Session, error) {
	if title == "" {
		title = session.DefaultTitle
	}
	sess := &session.Session{ID: session.NewSessionID(), Title: title}
	s.mu.Lock()
	s.created = append(s.created, sess)
	s.mu.Unlock()
	return sess, nil
}

func (s *stubSessions) List(_ context.Context, _ int) ([]*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*session.Session(nil), s.created...), nil
}

func (s *stubSessions) Delete(_ context.Context, _ string) (bool, error) {
	return s.deleted, nil
}

func (s *stubSessions) AddMessage(_ context.Context, id string, msg session.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[id] = append(s.messages[id], msg)
	return nil
}

func (s *stubSessions) Messages(_ context.Context, id string) ([]session.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]session.Message(nil), s.messages[id]...), nil
}

func (s *stubSessions) MessageCount(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages[id]), nil
}

func (s *stubSessions) AutoTitle(_ context.Context, id, q string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles[id] = session.TitleFromQuestion(q)
	return nil
}

type stubMedia struct {
	transcription string
	extracted     string
	question      string
	err           error
}

func (s *stubMedia) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return s.transcription, s.err
}

func (s *stubMedia) ExtractText(_ context.Context, _ []byte, _ string) (string, error) {
	return s.extracted, s.err
}

func (s *stubMedia) FormulateQuestion(_ context.Context, _, _ string) (string, error) {
	return s.question, s.err
}

func okResponse() *model.PipelineResponse {
	return &model.PipelineResponse{
		SQL:               "SELECT 1",
		Data:              []model.Row{{"1": float64(1)}},
		Answer:            "done",
		FollowUpQuestions: []string{"A?", "B?", "C?"},
	}
}

func newTestServer(runner *stubRunner, sessions *stubSessions, mediaStub *stubMedia) *Server {
	if runner == nil {
		runner = &stubRunner{resp: okResponse()}
	}
	if sessions == nil {
		sessions = newStubSessions()
	}
	if mediaStub == nil {
		mediaStub = &stubMedia{}
	}
	return New(Config{BodyLimitMB: 4}, runner, sessions, mediaStub)
}

func doJSON(t *testing.T, s *Server, method, target string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			// list endpoints return arrays; callers decode those themselves
			decoded = nil
		}
	}
	return resp, decoded
}

func TestHealth(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	resp, body := doJSON(t, s, http.MethodGet, "/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" || body["service"] != ServiceName {
		t.Fatalf("body = %v", body)
	}
}

func TestAskReturnsPipelineResponse(t *testing.T) {
	runner := &stubRunner{resp: okResponse()}
	s := newTestServer(runner, nil, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/api/ask", askRequest{Question: "how many?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["answer"] != "done" || body["sql"] != "SELECT 1" {
		t.Fatalf("body = %v", body)
	}
	if runner.last.Question != "how many?" {
		t.Fatalf("runner got question %q", runner.last.Question)
	}
	if _, present := body["transcription"]; present {
		t.Fatal("adapter fields must be omitted on the text path")
	}
}

func TestAskEmptyQuestionIs400Detail(t *testing.T) {
	runner := &stubRunner{err: errx.Validation(errx.EmptyQuestionMessage)}
	s := newTestServer(runner, nil, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/api/ask", askRequest{Question: ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["detail"] != errx.EmptyQuestionMessage {
		t.Fatalf("body = %v", body)
	}
}

func TestAskPersistsToSession(t *testing.T) {
	sessions := newStubSessions()
	s := newTestServer(&stubRunner{resp: okResponse()}, sessions, nil)

	resp, _ := doJSON(t, s, http.MethodPost, "/api/ask", askRequest{Question: "q1", SessionID: "abc123def456"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	// persistence is async
	deadline := time.Now().Add(2 * time.Second)
	for {
		sessions.mu.Lock()
		n := len(sessions.messages["abc123def456"])
		sessions.mu.Unlock()
		if n == 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	msgs, _ := sessions.Messages(context.Background(), "abc123def456")
	if len(msgs) != 2 {
		t.Fatalf("stored %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "q1" {
		t.Fatalf("user message = %+v", msgs[0])
	}
	if msgs[1].Role != "assistant" || msgs[1].SQLText != "SELECT 1" {
		t.Fatalf("assistant message = %+v", msgs[1])
	}
	sessions.mu.Lock()
	title := sessions.titles["abc123def456"]
	sessions.mu.Unlock()
	if title != "q1" {
		t.Fatalf("auto title = %q", title)
	}
}

func multipartBody(t *testing.T, field, filename, contentType string, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	hdr["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte("fake-bytes"))
	for k, v := range extra {
		w.WriteField(k, v)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestTranscribe(t *testing.T) {
	s := newTestServer(nil, nil, &stubMedia{transcription: "show totals"})
	body, ct := multipartBody(t, "audio", "clip.webm", "audio/webm", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
	req.Header.Set("Content-Type", ct)

	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out map[string]string
	json.NewDecoder(resp.Body).Decode(&out)
	if out["transcription"] != "show totals" {
		t.Fatalf("body = %v", out)
	}
}

func TestTranscribeRejectsUnsupportedType(t *testing.T) {
	s := newTestServer(nil, nil, &stubMedia{transcription: "x"})
	body, ct := multipartBody(t, "audio", "doc.pdf", "application/pdf", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
	req.Header.Set("Content-Type", ct)

	resp, _ := s.App().Test(req, -1)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestVoiceAskEnrichesResponse(t *testing.T) {
	runner := &stubRunner{resp: okResponse()}
	s := newTestServer(runner, nil, &stubMedia{transcription: "total volume"})
	body, ct := multipartBody(t, "audio", "clip.webm", "audio/webm", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/voice-ask", body)
	req.Header.Set("Content-Type", ct)

	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	if out["transcription"] != "total volume" {
		t.Fatalf("body = %v", out)
	}
	if runner.last.Question != "total volume" {
		t.Fatalf("runner got %q", runner.last.Question)
	}
}

func TestVoiceAskEmptyTranscriptionIs400(t *testing.T) {
	s := newTestServer(nil, nil, &stubMedia{transcription: ""})
	body, ct := multipartBody(t, "audio", "clip.webm", "audio/webm", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/voice-ask", body)
	req.Header.Set("Content-Type", ct)

	resp, _ := s.App().Test(req, -1)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestOCRAskEnrichesResponse(t *testing.T) {
	runner := &stubRunner{resp: okResponse()}
	s := newTestServer(runner, nil, &stubMedia{
		extracted: "Bank, Volume\nSBI, 500",
		question:  "Which bank has the highest volume?",
	})
	body, ct := multipartBody(t, "image", "chart.png", "image/png", map[string]string{"text": "focus on banks"})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr-ask", body)
	req.Header.Set("Content-Type", ct)

	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	if out["ocr_text"] != "Bank, Volume\nSBI, 500" {
		t.Fatalf("ocr_text = %v", out["ocr_text"])
	}
	if out["original_question"] != "Which bank has the highest volume?" {
		t.Fatalf("original_question = %v", out["original_question"])
	}
}

func TestOCRAskUnreadableImageIs400(t *testing.T) {
	s := newTestServer(nil, nil, &stubMedia{extracted: "ab"})
	body, ct := multipartBody(t, "image", "chart.png", "image/png", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ocr-ask", body)
	req.Header.Set("Content-Type", ct)

	resp, _ := s.App().Test(req, -1)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestOCRAskRejectsUnsupportedImageType(t *testing.T) {
	s := newTestServer(nil, nil, &stubMedia{extracted: "plenty of text here"})
	body, ct := multipartBody(t, "image", "anim.gif", "image/gif", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ocr-ask", body)
	req.Header.Set("Content-Type", ct)

	resp, _ := s.App().Test(req, -1)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	sessions := newStubSessions()
	sessions.deleted = true
	s := newTestServer(nil, sessions, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/api/sessions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if body["title"] != session.DefaultTitle {
		t.Fatalf("create body = %v", body)
	}

	resp, _ = doJSON(t, s, http.MethodGet, "/api/sessions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}

	resp, body = doJSON(t, s, http.MethodDelete, "/api/sessions/abc", nil)
	if resp.StatusCode != http.StatusOK || body["ok"] != true {
		t.Fatalf("delete status = %d body = %v", resp.StatusCode, body)
	}

	sessions.deleted = false
	resp, body = doJSON(t, s, http.MethodDelete, "/api/sessions/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete missing status = %d", resp.StatusCode)
	}
	if body["detail"] != "Session not found" {
		t.Fatalf("delete missing body = %v", body)
	}
}

func TestPipelineFailureIs500Detail(t *testing.T) {
	runner := &stubRunner{err: errx.Internal(errors.New("model down"))}
	s := newTestServer(runner, nil, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/api/ask", askRequest{Question: "q"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["detail"] == nil {
		t.Fatalf("body = %v", body)
	}
}
