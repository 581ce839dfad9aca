// Package remotetest provides an in-process fake of the GitHub contents API.
package remotetest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/debemdeboas/zenblog/internal/model"
)

type storedFile struct {
	sha     string
	content []byte
}

// Server answers /user and /repos/{owner}/{repo}/contents/{path} for one
// accepted bearer token. Files are kept in memory.
type Server struct {
	*httptest.Server

	token string
	user  model.GitHubUser

	mu          sync.Mutex
	files       map[string]storedFile
	seq         int
	readStatus  int
	writeStatus int
	beforeWrite func(r *http.Request)
	requests    []string
	messages    []string
}

// NewServer starts a fake that accepts token and answers /user with user.
// The server is closed when the test ends.
func NewServer(t testing.TB, token string, user model.GitHubUser) *Server {
	t.Helper()
	s := &Server{
		token: token,
		user:  user,
		files: make(map[string]storedFile),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Server.Close)
	return s
}

func key(repo string, id model.PostID) string {
	return repo + "/contents/posts/" + string(id) + ".json"
}

// Post returns the mirrored copy of id and its sha.
func (s *Server) Post(repo string, id model.PostID) (*model.Post, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[key(repo, id)]
	if !ok {
		return nil, "", false
	}
	var post model.Post
	if err := json.Unmarshal(f.content, &post); err != nil {
		return nil, f.sha, true
	}
	return &post, f.sha, true
}

// SetPost stores post as if another client had pushed it.
func (s *Server) SetPost(repo string, post model.Post) string {
	data, _ := json.MarshalIndent(post, "", "  ")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store(key(repo, post.ID), data)
}

func (s *Server) store(k string, content []byte) string {
	s.seq++
	sha := fmt.Sprintf("sha-%d", s.seq)
	s.files[k] = storedFile{sha: sha, content: content}
	return sha
}

// FailReads makes every contents GET answer status. Zero restores normal reads.
func (s *Server) FailReads(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readStatus = status
}

// FailWrites makes every PUT and DELETE answer status. Zero restores normal writes.
func (s *Server) FailWrites(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeStatus = status
}

// BeforeWrite runs fn at the start of every PUT, before any state is touched.
func (s *Server) BeforeWrite(fn func(r *http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeWrite = fn
}

// Requests lists "METHOD path" for every request served.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Count returns how many requests used method.
func (s *Server) Count(method string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.HasPrefix(r, method+" ") {
			n++
		}
	}
	return n
}

// Messages lists the commit messages of accepted writes.
func (s *Server) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	hook := s.beforeWrite
	s.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+s.token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}

	if r.URL.Path == "/user" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, s.user)
		return
	}

	k, ok := strings.CutPrefix(r.URL.Path, "/repos/")
	if !ok || !strings.Contains(k, "/contents/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	if r.Method == http.MethodPut && hook != nil {
		hook(r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		s.get(w, k)
	case http.MethodPut:
		s.put(w, r, k)
	case http.MethodDelete:
		s.delete(w, r, k)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) get(w http.ResponseWriter, k string) {
	if s.readStatus != 0 {
		writeJSON(w, s.readStatus, map[string]string{"message": "read failure"})
		return
	}
	f, ok := s.files[k]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"sha":      f.sha,
		"encoding": "base64",
		"content":  wrap(base64.StdEncoding.EncodeToString(f.content), 60),
	})
}

func (s *Server) put(w http.ResponseWriter, r *http.Request, k string) {
	if s.writeStatus != 0 {
		writeJSON(w, s.writeStatus, map[string]string{"message": "write failure"})
		return
	}

	var body struct {
		Message string `json:"message"`
		Content string `json:"content"`
		SHA     string `json:"sha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	content, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "content is not valid Base64"})
		return
	}

	existing, exists := s.files[k]
	switch {
	case exists && body.SHA == "":
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": `"sha" wasn't supplied.`})
		return
	case exists && body.SHA != existing.sha:
		writeJSON(w, http.StatusConflict, map[string]string{"message": "sha does not match"})
		return
	}

	sha := s.store(k, content)
	s.messages = append(s.messages, body.Message)

	status := http.StatusCreated
	if exists {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{"content": map[string]string{"sha": sha}})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request, k string) {
	if s.writeStatus != 0 {
		writeJSON(w, s.writeStatus, map[string]string{"message": "write failure"})
		return
	}

	var body struct {
		Message string `json:"message"`
		SHA     string `json:"sha"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	existing, exists := s.files[k]
	switch {
	case !exists:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	case body.SHA != existing.sha:
		writeJSON(w, http.StatusConflict, map[string]string{"message": "sha does not match"})
		return
	}

	delete(s.files, k)
	s.messages = append(s.messages, body.Message)
	writeJSON(w, http.StatusOK, map[string]any{"commit": map[string]string{"message": body.Message}})
}

func wrap(s string, width int) string {
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteByte('\n')
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}
