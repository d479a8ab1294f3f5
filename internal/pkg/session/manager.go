// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inboker-service/internal/domain/profile"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const principalTTL = 5 * time.Minute

// ProfileStore loads the application profile for an identity, creating it
// on first sight.
type ProfileStore interface {
	EnsureProfile(ctx context.Context, id uuid.UUID, email, fullName string) (*profile.Profile, error)
}

// Manager resolves principals, caching the profile role in redis so every
// request does not hit postgres.
type Manager struct {
	client   *redis.Client
	profiles ProfileStore
	logger   *zap.Logger
}

func NewManager(client *redis.Client, profiles ProfileStore, logger *zap.Logger) *Manager {
	return &Manager{
		client:   client,
		profiles: profiles,
		logger:   logger,
	}
}

// Resolve returns the principal for a verified identity.
func (m *Manager) Resolve(ctx context.Context, userID uuid.UUID, email, fullName string) (*Principal, error) {
	key := m.principalKey(userID)

	data, err := m.client.Get(ctx, key).Bytes()
	if err == nil {
		var p Principal
		if err := json.Unmarshal(data, &p); err == nil && p.Role.Valid() {
			return &p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		m.logger.Warn("redis error, falling back to database", zap.Error(err))
	}

	prof, err := m.profiles.EnsureProfile(ctx, userID, email, fullName)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	p := &Principal{
		UserID:   prof.ID,
		Email:    prof.Email,
		FullName: prof.DisplayName(),
		Role:     prof.Role,
	}
	if p.Email == "" {
		p.Email = email
	}

	if data, err := json.Marshal(p); err == nil {
		if err := m.client.Set(ctx, key, data, principalTTL).Err(); err != nil {
			m.logger.Warn("failed to cache principal", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	return p, nil
}

// Invalidate drops the cached principal after a role or profile change.
func (m *Manager) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return m.client.Del(ctx, m.principalKey(userID)).Err()
}

func (m *Manager) principalKey(userID uuid.UUID) string {
	return fmt.Sprintf("profile:role:%s", userID)
}
