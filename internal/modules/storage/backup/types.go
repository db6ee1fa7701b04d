package backup

import (
	"context"
	"time"

	"github.com/daily-reflections/core/internal/models"
)

const (
	archiveRoot         = "reflections"
	archiveManifestFile = archiveRoot + "/manifest.json"
	archiveDBDir        = archiveRoot + "/db"
	archiveFormat       = "reflections-jsonl"
	archiveVersion      = 1

	defaultS3PathTemplate = "backups/{Y}/{m}/{filename}"
	defaultKeepLocal      = 14
	entryBatchSize        = 200
)

// EntrySource streams every diary entry.
type EntrySource interface {
	ForEach(ctx context.Context, batchSize int, fn func(models.DiaryEntryModel) error) error
}

// Uploader stores a finished archive off-host.
type Uploader interface {
	Upload(ctx context.Context, key string, payload []byte, contentType string) (string, error)
}

type manifest struct {
	Format    string         `json:"format"`
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	Tables    map[string]int `json:"tables"`
}

// Artifact describes a written archive.
type Artifact struct {
	Filename  string         `json:"filename"`
	Path      string         `json:"path"`
	Size      int64          `json:"size"`
	Tables    map[string]int `json:"tables"`
	RemoteURL string         `json:"remoteUrl,omitempty"`
}

// Item is a local archive listing row.
type Item struct {
	Filename string `json:"filename"`
	Size     string `json:"size"`
}
