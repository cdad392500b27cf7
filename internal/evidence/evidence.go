// Package evidence stores and retrieves the photo payloads referenced by entry
// items. References carry their backend as a scheme: db:<key> for the local
// database, s3://bucket/key for object storage and http(s):// for remote URLs.
package evidence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/vidall28/trocasequebras/internal/model"
)

var (
	// ErrNotFound is returned when a reference resolves to nothing.
	ErrNotFound = errors.New("evidence not found")

	// ErrTooLarge is returned when a payload exceeds the configured limit.
	ErrTooLarge = errors.New("evidence payload too large")

	// ErrHostNotAllowed is returned for remote refs outside the allow-list.
	ErrHostNotAllowed = errors.New("evidence host not allowed")

	// ErrUnknownScheme is returned for refs no backend is registered for.
	ErrUnknownScheme = errors.New("no evidence backend for ref")
)

// AllowedMIME lists the accepted photo formats, detected from the payload.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Store persists new payloads. Owns reports whether ref points into this
// store, which is what item photos must do.
type Store interface {
	Put(ctx context.Context, data []byte, mime string) (*model.Evidence, error)
	Owns(ref string) bool
}

// Getter loads a payload and its MIME type by reference.
type Getter interface {
	Get(ctx context.Context, ref string) ([]byte, string, error)
}

// Read consumes at most maxBytes from r and checks that the payload is a
// supported photo format. The detected MIME type is returned; client headers
// are not trusted.
func Read(r io.Reader, maxBytes int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading photo: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", model.Invalid("photo", fmt.Sprintf("larger than %d bytes", maxBytes))
	}
	if len(data) == 0 {
		return nil, "", model.Invalid("photo", "empty upload")
	}

	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, "", model.Invalid("photo", fmt.Sprintf("unsupported format %s", detected))
	}
	return data, detected, nil
}

// Router dispatches references to the backend registered for their scheme.
type Router struct {
	backends map[string]Getter
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{backends: make(map[string]Getter)}
}

// Handle registers g for scheme ("db", "s3", "http", ...).
func (r *Router) Handle(scheme string, g Getter) {
	r.backends[scheme] = g
}

// Get resolves ref through its backend.
func (r *Router) Get(ctx context.Context, ref string) ([]byte, string, error) {
	scheme, _, ok := strings.Cut(ref, ":")
	if !ok || scheme == "" {
		return nil, "", fmt.Errorf("evidence ref %q has no scheme", ref)
	}
	g, ok := r.backends[strings.ToLower(scheme)]
	if !ok {
		return nil, "", fmt.Errorf("%w: scheme %q", ErrUnknownScheme, scheme)
	}
	return g.Get(ctx, ref)
}

// Fetch returns only the payload of ref.
func (r *Router) Fetch(ctx context.Context, ref string) ([]byte, error) {
	data, _, err := r.Get(ctx, ref)
	return data, err
}

// HandleRemote registers an HTTPGetter for http and https refs restricted to
// hosts. With no hosts remote refs stay unresolvable.
func (r *Router) HandleRemote(client *http.Client, hosts []string, maxBytes int64) {
	if len(hosts) == 0 {
		return
	}
	g := &HTTPGetter{Client: client, MaxBytes: maxBytes, AllowedHosts: hosts}
	r.Handle("http", g)
	r.Handle("https", g)
}

// HTTPGetter downloads remote evidence from allow-listed hosts. Hosts match
// either host:port or the bare host name.
type HTTPGetter struct {
	Client       *http.Client
	MaxBytes     int64
	AllowedHosts []string
}

func (h *HTTPGetter) allowed(u *url.URL) bool {
	return slices.Contains(h.AllowedHosts, u.Host) || slices.Contains(h.AllowedHosts, u.Hostname())
}

func (h *HTTPGetter) Get(ctx context.Context, ref string) ([]byte, string, error) {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, "", fmt.Errorf("malformed remote evidence ref: %q", ref)
	}
	if !h.allowed(u) {
		return nil, "", fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building evidence request: %w", err)
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("downloading evidence: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, "", fmt.Errorf("downloading evidence: unexpected status %s", resp.Status)
	}

	var buf bytes.Buffer
	body := io.Reader(resp.Body)
	if h.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, h.MaxBytes+1)
	}
	if _, err := buf.ReadFrom(body); err != nil {
		return nil, "", fmt.Errorf("reading evidence body: %w", err)
	}
	if h.MaxBytes > 0 && int64(buf.Len()) > h.MaxBytes {
		return nil, "", fmt.Errorf("%w: more than %d bytes from %s", ErrTooLarge, h.MaxBytes, u.Host)
	}
	return buf.Bytes(), http.DetectContentType(buf.Bytes()), nil
}
