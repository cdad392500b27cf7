package evidence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vidall28/trocasequebras/internal/model"
	"github.com/vidall28/trocasequebras/internal/store"
)

// DBScheme prefixes references to payloads kept in the local database.
const DBScheme = "db"

// DBStore keeps payloads as blobs in the local database.
type DBStore struct {
	DB *sql.DB
}

func (s *DBStore) Put(ctx context.Context, data []byte, mime string) (*model.Evidence, error) {
	key := uuid.NewString()
	if err := store.PutEvidence(ctx, s.DB, key, data, mime); err != nil {
		return nil, err
	}
	return &model.Evidence{Ref: DBScheme + ":" + key, MIME: mime, Size: int64(len(data))}, nil
}

func (s *DBStore) Owns(ref string) bool {
	key, ok := strings.CutPrefix(ref, DBScheme+":")
	return ok && key != ""
}

func (s *DBStore) Get(ctx context.Context, ref string) ([]byte, string, error) {
	key, ok := strings.CutPrefix(ref, DBScheme+":")
	if !ok {
		return nil, "", fmt.Errorf("not a database evidence ref: %q", ref)
	}
	data, mime, err := store.GetEvidence(ctx, s.DB, key)
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		return nil, "", ErrNotFound
	}
	return data, mime, nil
}
