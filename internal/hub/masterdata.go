package hub

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// MasterData serves the static hub reference document (speaker mapping table,
// hub location, session rules) consumed by the agent prompts. The document is
// read from disk once per process; a built-in skeleton is used when no file
// is configured so the prompts always have the expected section markers.
type MasterData struct {
	path string

	once    sync.Once
	content string
	loadErr error
}

// NewMasterData creates a master data provider backed by the given file path.
// An empty path selects the built-in skeleton document.
func NewMasterData(path string) *MasterData {
	return &MasterData{path: path}
}

// Fetch returns the master data document, loading it on first use.
func (m *MasterData) Fetch() (string, error) {
	m.once.Do(func() {
		if m.path == "" {
			slog.Debug("hub.MasterData: no file configured, using built-in skeleton")
			m.content = defaultMasterData
			return
		}
		data, err := os.ReadFile(m.path)
		if err != nil {
			m.loadErr = fmt.Errorf("failed to read hub master data from %s: %w", m.path, err)
			slog.Error("hub.MasterData: load failed", "error", err, "path", m.path)
			return
		}
		m.content = string(data)
		slog.Info("hub.MasterData: loaded", "path", m.path, "bytes", len(data))
	})
	return m.content, m.loadErr
}

const defaultMasterData = `# Innovation Hub Master Data

#Innovation Hub Location:
(not configured - set TAB_HUB_MASTER_FILE to the hub master data document)

##SpeakerMappingTable
| Speaker | Role | Topics |
|---------|------|--------|
| TBD     | Technical Architect | (speaker mapping table not configured) |
`
