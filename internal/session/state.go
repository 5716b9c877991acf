package session

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

// Cookie is a persisted session cookie.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Persisted is what survives between runs.
type Persisted struct {
	Server        string   `json:"server,omitempty"`
	Cookies       []Cookie `json:"cookies,omitempty"`
	LastErrorTime *float64 `json:"last_error_time,omitempty"`
	LastSource    string   `json:"last_source,omitempty"`
}

// State holds persisted session data with thread-safe access.
type State struct {
	mu       sync.RWMutex
	current  Persisted
	filePath string // Path to state file, empty for no persistence
}

// NewState creates a State and restores it from filePath if the file
// exists. A restore failure is returned together with a usable empty
// State.
func NewState(filePath string) (*State, error) {
	s := &State{
		filePath: filePath,
	}

	if filePath != "" {
		if err := s.restore(); err != nil && !os.IsNotExist(err) {
			return s, err
		}
	}

	return s, nil
}

// Get returns a copy of the current state.
func (s *State) Get() Persisted {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.current
	p.Cookies = append([]Cookie(nil), s.current.Cookies...)
	if s.current.LastErrorTime != nil {
		t := *s.current.LastErrorTime
		p.LastErrorTime = &t
	}
	return p
}

// CookiesFor returns the stored cookies if they belong to server.
func (s *State) CookiesFor(server string) []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current.Server != server {
		return nil
	}
	cookies := make([]*http.Cookie, 0, len(s.current.Cookies))
	for _, c := range s.current.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies
}

// SetCookies replaces the stored cookies for server. Switching servers
// forgets the previous server's error baseline.
func (s *State) SetCookies(server string, cookies []*http.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Server != server {
		s.current.LastErrorTime = nil
	}
	s.current.Server = server
	s.current.Cookies = s.current.Cookies[:0]
	for _, c := range cookies {
		s.current.Cookies = append(s.current.Cookies, Cookie{Name: c.Name, Value: c.Value})
	}
	return s.persist()
}

// SetLastErrorTime records the time of the last surfaced server error.
func (s *State) SetLastErrorTime(t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.LastErrorTime = &t
	return s.persist()
}

// SetLastSource records the last successfully loaded source.
func (s *State) SetLastSource(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.LastSource = source
	return s.persist()
}

// Reset clears the state, logging the user out.
func (s *State) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Persisted{}
	return s.persist()
}

// persist saves the current state to disk.
// Must be called with lock held.
func (s *State) persist() error {
	if s.filePath == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}

	// Cookies are credentials, keep the file private.
	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.filePath)
}

// restore loads state from disk.
func (s *State) restore() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var p Persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = p
	return nil
}
