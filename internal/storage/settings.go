package storage

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Settings keys.
const (
	KeyAPIKey      = "gemini_api_key"
	KeyAutoExtract = "auto_extract_enabled"
	KeyAutoUpload  = "auto_upload_enabled"
)

const settingsBlob = "settings.json"

// Settings is the scoped key-value persistence surface for the API key and
// feature flags, persisted as a single JSON blob through the storage
// backend. In-memory pipeline state (cache, accumulation) never goes through
// here.
type Settings struct {
	backend StorageInterface

	mu     sync.Mutex
	values map[string]string
	loaded bool
}

func NewSettings(backend StorageInterface) *Settings {
	return &Settings{
		backend: backend,
		values:  make(map[string]string),
	}
}

// Get returns the values for the requested keys; missing keys are absent
// from the result rather than errors.
func (s *Settings) Get(keys []string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := s.values[key]; ok {
			out[key] = value
		}
	}
	return out, nil
}

// Set stores the given key-value pairs and persists the blob.
func (s *Settings) Set(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	for key, value := range values {
		s.values[key] = value
	}
	return s.persist()
}

// Remove deletes the given keys and persists the blob.
func (s *Settings) Remove(keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	for _, key := range keys {
		delete(s.values, key)
	}
	return s.persist()
}

// GetBool reads a boolean flag, defaulting when unset or unparseable.
func (s *Settings) GetBool(key string, defaultValue bool) bool {
	values, err := s.Get([]string{key})
	if err != nil {
		return defaultValue
	}
	switch values[key] {
	case "true":
		return true
	case "false":
		return false
	default:
		return defaultValue
	}
}

// load pulls the settings blob on first access. A missing blob is an empty
// settings set, not an error.
func (s *Settings) load() error {
	if s.loaded {
		return nil
	}

	data, err := s.backend.Retrieve(settingsBlob)
	if err != nil {
		s.loaded = true
		return nil
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		return fmt.Errorf("corrupt settings blob: %w", err)
	}
	s.loaded = true
	return nil
}

func (s *Settings) persist() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.backend.Store(settingsBlob, data); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}
