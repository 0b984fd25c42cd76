package transport

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/envelope-sync/models"
)

// ManifestVersion is the layout version written into every manifest.
const ManifestVersion = 1

const (
	manifestPath = "manifest"
	chunksRoot   = "chunks/"
)

// Manifest is the metadata document of a remote dataset. It tells readers
// which chunk generation is committed and how many chunks each collection
// has there. An empty Generation means nothing has been committed yet.
type Manifest struct {
	Version      int                       `json:"version"`
	Generation   string                    `json:"generation,omitempty"`
	LastModified time.Time                 `json:"lastModified"`
	UpdatedBy    string                    `json:"updatedBy"`
	SavedAt      time.Time                 `json:"savedAt"`
	ChunkSize    int                       `json:"chunkSize"`
	Chunks       map[models.Collection]int `json:"chunks"`
	Counts       models.Counts             `json:"counts"`
	Metadata     models.Metadata           `json:"metadata"`

	// Pending is set while an upload is writing chunks of a new generation.
	// It stays behind when that upload fails.
	Pending *Upload `json:"pending,omitempty"`
}

// Upload describes an upload that has started but not committed.
type Upload struct {
	Generation string    `json:"generation"`
	UpdatedBy  string    `json:"updatedBy"`
	StartedAt  time.Time `json:"startedAt"`
}

// Committed reports whether the manifest points at a complete dataset.
func (m *Manifest) Committed() bool {
	return m != nil && m.Generation != ""
}

func generationPrefix(generation string) string {
	return chunksRoot + generation + "/"
}

func chunkPath(generation string, c models.Collection, index int) string {
	return generationPrefix(generation) + string(c) + "/" + strconv.Itoa(index)
}

func (m *Manifest) validate() error {
	if m.Version < 1 || m.Version > ManifestVersion {
		return fmt.Errorf("invalid manifest: unsupported version %d", m.Version)
	}
	if strings.Contains(m.Generation, "/") {
		return fmt.Errorf("invalid manifest: bad generation %q", m.Generation)
	}
	for c, n := range m.Chunks {
		if !c.Valid() {
			return fmt.Errorf("invalid manifest: unknown collection %q", c)
		}
		if n < 0 {
			return fmt.Errorf("invalid manifest: negative chunk count for %s", c)
		}
	}
	for c, n := range m.Counts {
		if !c.Valid() || n < 0 {
			return fmt.Errorf("invalid manifest: bad count %d for %q", n, c)
		}
	}
	return nil
}
