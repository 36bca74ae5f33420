package settings

import "sync"

// Holder shares the active settings between the pollers and the API
type Holder struct {
	mu   sync.RWMutex
	path string
	s    Settings
}

// NewHolder wraps s; a non-empty path makes Update persist changes
func NewHolder(path string, s Settings) *Holder {
	return &Holder{path: path, s: s}
}

// Get returns a copy of the active settings
func (h *Holder) Get() Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.s
}

// Path returns the file backing the holder
func (h *Holder) Path() string { return h.path }

// Update validates s, saves it when the holder is file backed and then makes
// it active. On error the active settings are left unchanged.
func (h *Holder) Update(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.path != "" {
		if err := Save(h.path, s); err != nil {
			return err
		}
	}
	h.s = s
	return nil
}
