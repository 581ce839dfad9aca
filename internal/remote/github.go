package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/debemdeboas/zenblog/internal/model"
	"golang.org/x/oauth2"
)

const (
	DefaultGitHubAPI = "https://api.github.com"
	defaultUserAgent = "zenblog/0.1"
	requestTimeout   = 15 * time.Second
)

// GitHub mirrors posts as JSON files through the repository contents API.
type GitHub struct {
	baseURL   *url.URL
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
}

var (
	_ Mirror        = (*GitHub)(nil)
	_ Authenticator = (*GitHub)(nil)
)

type Option func(*GitHub)

func WithUserAgent(ua string) Option {
	return func(g *GitHub) { g.userAgent = ua }
}

func WithTimeout(d time.Duration) Option {
	return func(g *GitHub) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithTransport replaces the transport under the bearer token layer.
func WithTransport(rt http.RoundTripper) Option {
	return func(g *GitHub) { g.transport = rt }
}

// NewGitHub builds a client for the API rooted at apiBase. An empty apiBase
// means the public GitHub API.
func NewGitHub(apiBase string, opts ...Option) (*GitHub, error) {
	if strings.TrimSpace(apiBase) == "" {
		apiBase = DefaultGitHubAPI
	}
	base, err := url.Parse(strings.TrimRight(apiBase, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse github api url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("github api url %q must be absolute", apiBase)
	}

	g := &GitHub{
		baseURL:   base,
		userAgent: defaultUserAgent,
		timeout:   requestTimeout,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GitHub) client(token string) *http.Client {
	return &http.Client{
		Timeout: g.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   g.transport,
		},
	}
}

func contentsPath(repo string, id model.PostID) string {
	return "/repos/" + strings.Trim(repo, "/") + "/contents/" + filePath(id)
}

type contentFile struct {
	SHA     string `json:"sha"`
	Content string `json:"content"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

type deleteRequest struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
}

// do sends the request and decodes a successful response into dest. The
// status code is returned for every response that arrived; err is only set
// when none did or the body could not be decoded.
func (g *GitHub) do(ctx context.Context, token, method, path string, body, dest any) (int, error) {
	reqURL := *g.baseURL
	reqURL.Path = g.baseURL.Path + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", g.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client(token).Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %w", model.ErrRemoteUnavailable, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if dest == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func (g *GitHub) Authenticate(ctx context.Context, token string) (*model.GitHubUser, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty token", model.ErrAuth)
	}

	var user model.GitHubUser
	status, err := g.do(ctx, token, http.MethodGet, "/user", nil, &user)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrAuth, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: /user returned status %d", model.ErrAuth, status)
	}

	remoteLogger.Info().Str("login", user.Login).Msg("Authenticated with GitHub")
	return &user, nil
}

func (g *GitHub) Fetch(ctx context.Context, target Target, id model.PostID) (*File, error) {
	path := contentsPath(target.Repository, id)

	var payload contentFile
	status, err := g.do(ctx, target.Token, http.MethodGet, path, nil, &payload)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, nil
	case status != http.StatusOK:
		return nil, &StatusError{Op: "GET " + path, StatusCode: status}
	}

	file := &File{Token: VersionToken(payload.SHA)}

	post, err := decodeContent(payload.Content)
	if err != nil {
		remoteLogger.Warn().Err(err).Str("post_id", string(id)).Msg("Remote file is not a post")
		return file, nil
	}
	file.Post = post
	return file, nil
}

func (g *GitHub) Write(ctx context.Context, target Target, post model.Post, token VersionToken) (bool, error) {
	content, err := encodeContent(post)
	if err != nil {
		return false, err
	}

	req := putRequest{
		Message: fmt.Sprintf("Sync post: %s (v%d)", post.Title, post.Version),
		Content: content,
		SHA:     string(token),
	}
	status, err := g.do(ctx, target.Token, http.MethodPut, contentsPath(target.Repository, post.ID), req, nil)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		remoteLogger.Warn().Str("post_id", string(post.ID)).Int("status", status).Msg("GitHub rejected post write")
		return false, nil
	}
	return true, nil
}

func (g *GitHub) Remove(ctx context.Context, target Target, id model.PostID, token VersionToken) (bool, error) {
	req := deleteRequest{
		Message: fmt.Sprintf("Delete post: %s", id),
		SHA:     string(token),
	}
	status, err := g.do(ctx, target.Token, http.MethodDelete, contentsPath(target.Repository, id), req, nil)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		remoteLogger.Warn().Str("post_id", string(id)).Int("status", status).Msg("GitHub rejected post delete")
		return false, nil
	}
	return true, nil
}

// encodeContent renders the post the way it is stored in the repository:
// indented JSON, base64 encoded.
func encodeContent(post model.Post) (string, error) {
	data, err := json.MarshalIndent(post, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode post: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// GitHub wraps base64 content at 60 columns.
func decodeContent(content string) (*model.Post, error) {
	cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(content)
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	var post model.Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	return &post, nil
}
