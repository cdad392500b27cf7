package evidence

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidall28/trocasequebras/internal/db"
	"github.com/vidall28/trocasequebras/internal/model"
)

var (
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0}, 32)...)
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
)

func TestRead(t *testing.T) {
	data, mime, err := Read(bytes.NewReader(jpegBytes), 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, jpegBytes, data)

	_, mime, err = Read(bytes.NewReader(pngBytes), 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	var ve *model.ValidationError
	_, _, err = Read(bytes.NewReader([]byte("plain text, not a photo")), 1024)
	assert.ErrorAs(t, err, &ve)

	_, _, err = Read(bytes.NewReader(jpegBytes), 8)
	assert.ErrorAs(t, err, &ve)

	_, _, err = Read(bytes.NewReader(nil), 8)
	assert.ErrorAs(t, err, &ve)
}

func TestDBStoreRoundTrip(t *testing.T) {
	s := &DBStore{DB: db.NewTestDB(t)}
	ctx := context.Background()

	ev, err := s.Put(ctx, jpegBytes, "image/jpeg")
	require.NoError(t, err)
	assert.Regexp(t, `^db:[0-9a-f-]{36}$`, ev.Ref)
	assert.EqualValues(t, len(jpegBytes), ev.Size)

	data, mime, err := s.Get(ctx, ev.Ref)
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)
	assert.Equal(t, "image/jpeg", mime)

	_, _, err = s.Get(ctx, "db:missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.Get(ctx, "s3://b/k")
	assert.Error(t, err)
}

func TestRouter(t *testing.T) {
	s := &DBStore{DB: db.NewTestDB(t)}
	ctx := context.Background()
	ev, err := s.Put(ctx, pngBytes, "image/png")
	require.NoError(t, err)

	r := NewRouter()
	r.Handle(DBScheme, s)

	data, err := r.Fetch(ctx, ev.Ref)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	_, err = r.Fetch(ctx, "s3://bucket/key")
	assert.ErrorContains(t, err, "no evidence backend")
	_, err = r.Fetch(ctx, "no-scheme")
	assert.ErrorContains(t, err, "no scheme")
}

func TestHTTPGetter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.jpg":
			// The declared type is ignored in favour of the payload.
			w.Header().Set("Content-Type", "text/html")
			w.Write(jpegBytes)
		case "/big.jpg":
			w.Write(bytes.Repeat([]byte{0xFF}, 100))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	host := strings.TrimPrefix(srv.URL, "http://")

	r := NewRouter()
	r.HandleRemote(srv.Client(), []string{host}, 64)

	data, mime, err := r.Get(context.Background(), srv.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)
	assert.Equal(t, "image/jpeg", mime)

	_, _, err = r.Get(context.Background(), srv.URL+"/gone.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	data, _, err = r.Get(context.Background(), srv.URL+"/big.jpg")
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Nil(t, data)
}

func TestHTTPGetterAllowList(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	r := NewRouter()
	r.HandleRemote(srv.Client(), []string{"photos.example.com"}, 1024)
	_, _, err := r.Get(context.Background(), srv.URL+"/photo.jpg")
	assert.ErrorIs(t, err, ErrHostNotAllowed)
	assert.Zero(t, hits)

	// Without hosts remote refs are not routed at all.
	empty := NewRouter()
	empty.HandleRemote(srv.Client(), nil, 1024)
	_, _, err = empty.Get(context.Background(), srv.URL+"/photo.jpg")
	assert.ErrorIs(t, err, ErrUnknownScheme)
	assert.Zero(t, hits)
}

func TestStoresOwnRefs(t *testing.T) {
	d := &DBStore{}
	assert.True(t, d.Owns("db:abc"))
	assert.False(t, d.Owns("db:"))
	assert.False(t, d.Owns("http://10.0.0.1/admin"))
	assert.False(t, d.Owns("s3://bucket/key"))

	s := &S3Store{bucket: "evidence"}
	assert.True(t, s.Owns("s3://evidence/evidence/2026/03/a.jpg"))
	assert.False(t, s.Owns("s3://other/evidence/2026/03/a.jpg"))
	assert.False(t, s.Owns("db:abc"))
}

func TestParseS3Ref(t *testing.T) {
	bucket, key, err := ParseS3Ref("s3://evidence/evidence/2026/03/abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, "evidence", bucket)
	assert.Equal(t, "evidence/2026/03/abc.jpg", key)

	for _, bad := range []string{"db:abc", "s3://bucket", "s3:///key"} {
		_, _, err := ParseS3Ref(bad)
		assert.Error(t, err, bad)
	}
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "evidence/2026/03/x.jpg", ObjectKey(at, "x", "image/jpeg"))
	assert.Equal(t, "evidence/2026/03/x.png", ObjectKey(at, "x", "image/png"))
	assert.Equal(t, "evidence/2026/03/x.webp", ObjectKey(at, "x", "image/webp"))
}
