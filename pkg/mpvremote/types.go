package mpvremote

// Snapshot is the player state reported by the status endpoint.
type Snapshot struct {
	Loaded   bool        `json:"loaded"`
	Name     string      `json:"name"`
	URL      string      `json:"url,omitempty"`
	Duration float64     `json:"duration"` // seconds
	Time     float64     `json:"time"`     // seconds
	Paused   bool        `json:"paused"`
	Running  bool        `json:"running,omitempty"`
	Error    ServerError `json:"error"`
}

// ServerError is the last error the player reported.
//
// The server keeps echoing the same record until a later command
// succeeds, so Time is what distinguishes a new error from a repeat.
type ServerError struct {
	Code    int     `json:"code"`
	Message string  `json:"message"`
	Time    float64 `json:"time"`
}

// IsZero reports whether the record carries no error.
func (e ServerError) IsZero() bool {
	return e.Code == 0
}

// DisplayName returns the media name, or "Untitled" when the server
// reports a blank one.
func (s *Snapshot) DisplayName() string {
	for _, r := range s.Name {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return s.Name
		}
	}
	return "Untitled"
}

// FileType is the kind of a browse entry.
type FileType string

const (
	FileDirectory FileType = "directory"
	FileVideo     FileType = "video"
	FileAudio     FileType = "audio"
)

// FileEntry is a single item of a directory listing.
type FileEntry struct {
	Name string   `json:"name"`
	Type FileType `json:"type"`
}

// Listing is the response of the browse endpoint.
type Listing struct {
	Path  string      `json:"-"`
	Files []FileEntry `json:"files"`
}

// Upload is the response of the upload endpoint.
type Upload struct {
	URL string `json:"url"`
}
