package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
)

// fakePlayer is a minimal mpv remote server.
type fakePlayer struct {
	mu       sync.Mutex
	snap     mpvremote.Snapshot
	commands []string
	// loadAfter is how many status polls an open takes to complete.
	loadAfter   int
	pendingOpen string
	polls       int
	rejectAll   int // status code for every command, 0 to accept
}

func newFakePlayer(t *testing.T) (*fakePlayer, *httptest.Server) {
	t.Helper()
	p := &fakePlayer{snap: mpvremote.Snapshot{Paused: true}, loadAfter: 2}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", p.status)
	mux.HandleFunc("/command", p.command)
	server := httptest.NewServer(mux)
	return p, server
}

func (p *fakePlayer) status(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	if p.pendingOpen != "" {
		p.polls++
		if p.polls >= p.loadAfter {
			name := p.pendingOpen[strings.LastIndex(p.pendingOpen, "/")+1:]
			p.snap = mpvremote.Snapshot{Loaded: true, Name: name, Duration: 125, Paused: true, Error: p.snap.Error}
			p.pendingOpen = ""
		}
	}
	snap := p.snap
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (p *fakePlayer) command(w http.ResponseWriter, r *http.Request) {
	cmd := r.FormValue("command")

	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = append(p.commands, cmd)

	if p.rejectAll != 0 {
		w.WriteHeader(p.rejectAll)
		return
	}

	switch {
	case strings.HasPrefix(cmd, `open "`):
		p.pendingOpen = strings.TrimSuffix(strings.TrimPrefix(cmd, `open "`), `" --pause`)
		p.polls = 0
	case cmd == "pause 0":
		p.snap.Paused = false
	case cmd == "pause 1":
		p.snap.Paused = true
	}
}

func (p *fakePlayer) set(fn func(p *fakePlayer)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

func (p *fakePlayer) sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.commands...)
}
