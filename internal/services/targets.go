package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Conceptual-Machines/battito/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrTargetNotFound = errors.New("target not found")

// TargetStore keeps the named routes targets are played on.
type TargetStore interface {
	List(ctx context.Context) ([]models.Target, error)
	Get(ctx context.Context, name string) (*models.Target, error)
	// Put creates or replaces the route with the same name.
	Put(ctx context.Context, target *models.Target) error
	Delete(ctx context.Context, name string) error
}

type GormTargetStore struct {
	db *gorm.DB
}

func NewGormTargetStore(db *gorm.DB) *GormTargetStore {
	return &GormTargetStore{db: db}
}

func (s *GormTargetStore) List(ctx context.Context) ([]models.Target, error) {
	var targets []models.Target
	if err := s.db.WithContext(ctx).Order("name").Find(&targets).Error; err != nil {
		return nil, err
	}
	return targets, nil
}

func (s *GormTargetStore) Get(ctx context.Context, name string) (*models.Target, error) {
	var target models.Target
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTargetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (s *GormTargetStore) Put(ctx context.Context, target *models.Target) error {
	if err := target.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"host", "port", "address", "subdivision", "updated_at"}),
	}).Create(target).Error
}

func (s *GormTargetStore) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Target{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTargetNotFound
	}
	return nil
}

// MemoryTargetStore is used when no database is configured, and by the REPL.
type MemoryTargetStore struct {
	mu      sync.RWMutex
	targets map[string]models.Target
	nextID  uint
}

func NewMemoryTargetStore() *MemoryTargetStore {
	return &MemoryTargetStore{targets: map[string]models.Target{}}
}

func (s *MemoryTargetStore) List(_ context.Context) ([]models.Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Target, 0, len(s.targets))
	for _, t := range s.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryTargetStore) Get(_ context.Context, name string) (*models.Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.targets[name]
	if !ok {
		return nil, ErrTargetNotFound
	}
	return &t, nil
}

func (s *MemoryTargetStore) Put(_ context.Context, target *models.Target) error {
	if err := target.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.targets[target.Name]; ok {
		target.ID = existing.ID
		target.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		target.ID = s.nextID
		target.CreatedAt = now
	}
	target.UpdatedAt = now
	s.targets[target.Name] = *target
	return nil
}

func (s *MemoryTargetStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.targets[name]; !ok {
		return ErrTargetNotFound
	}
	delete(s.targets, name)
	return nil
}
