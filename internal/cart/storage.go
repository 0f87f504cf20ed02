package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/happyfeet/storefront/internal/models"
)

// Storage is a key/value slot for the serialized cart. Load returns nil data
// and no error when nothing has been stored yet.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

type MemoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string][]byte{}}
}

func (m *MemoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *MemoryStorage) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

// GormStorage keeps one browser session's slots in the cart_snapshots table.
type GormStorage struct {
	DB        *gorm.DB
	SessionID uuid.UUID
}

func (g GormStorage) Load(ctx context.Context, key string) ([]byte, error) {
	var snap models.CartSnapshot
	err := g.DB.WithContext(ctx).
		Where("session_id = ? AND slot = ?", g.SessionID, key).
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}
	return []byte(snap.Data), nil
}

func (g GormStorage) Save(ctx context.Context, key string, data []byte) error {
	snap := models.CartSnapshot{SessionID: g.SessionID, Slot: key, Data: string(data)}
	err := g.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "slot"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&snap).Error
	if err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}
