package services

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"
)

// configCacheTTL bounds how long a config value may be served from memory.
// Dashboard clients poll frequently; this keeps them off the database.
const configCacheTTL = 30 * time.Second

// ConfigStore manages the api_configs key/value table with a read-through cache
type ConfigStore struct {
	database *sql.DB

	mu        sync.RWMutex
	cache     map[string]string
	cacheTime map[string]time.Time
	now       func() time.Time
}

// NewConfigStore creates a new config store
func NewConfigStore(database *sql.DB) *ConfigStore {
	return &ConfigStore{
		database:  database,
		cache:     make(map[string]string),
		cacheTime: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Get returns the trimmed value for an active key, or "" when unset.
// Values are cached for configCacheTTL.
func (cs *ConfigStore) Get(key string) string {
	cs.mu.RLock()
	if at, ok := cs.cacheTime[key]; ok && cs.now().Sub(at) < configCacheTTL {
		value := cs.cache[key]
		cs.mu.RUnlock()
		return value
	}
	cs.mu.RUnlock()

	var value sql.NullString
	err := cs.database.QueryRow(
		`SELECT config_value FROM api_configs WHERE config_key = ? AND is_active = 1`, key,
	).Scan(&value)

	result := ""
	if err == nil && value.Valid {
		result = strings.TrimSpace(value.String)
	}

	cs.mu.Lock()
	cs.cache[key] = result
	cs.cacheTime[key] = cs.now()
	cs.mu.Unlock()

	return result
}

// Set upserts a key and refreshes the cache immediately
func (cs *ConfigStore) Set(key, value, updatedBy string) error {
	_, err := cs.database.Exec(`
		INSERT INTO api_configs (config_key, config_value, is_active, updated_at, updated_by)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(config_key) DO UPDATE SET
			config_value = excluded.config_value,
			updated_at = excluded.updated_at,
			updated_by = excluded.updated_by`,
		key, value, cs.now(), updatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}

	cs.mu.Lock()
	cs.cache[key] = strings.TrimSpace(value)
	cs.cacheTime[key] = cs.now()
	cs.mu.Unlock()

	return nil
}

// SetAll sets multiple keys, failing on the first error
func (cs *ConfigStore) SetAll(values map[string]string, updatedBy string) error {
	for key, value := range values {
		if err := cs.Set(key, value, updatedBy); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate drops a key from the cache so the next Get hits the database
func (cs *ConfigStore) Invalidate(key string) {
	cs.mu.Lock()
	delete(cs.cache, key)
	delete(cs.cacheTime, key)
	cs.mu.Unlock()
}
