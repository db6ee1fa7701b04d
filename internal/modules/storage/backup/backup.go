package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/daily-reflections/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service writes journal archives: a zip with one JSON-lines file per
// table and a manifest. Archives are kept on disk and, when an uploader
// is set, copied to object storage.
type Service struct {
	db       *gorm.DB
	entries  EntrySource
	dir      string
	uploader Uploader
	template string
	keep     int
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithUploader copies every archive off-host using the object key template.
func WithUploader(u Uploader, template string) Option {
	return func(s *Service) {
		s.uploader = u
		s.template = template
	}
}

// WithKeep bounds the number of local archives.
func WithKeep(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.keep = n
		}
	}
}

func NewService(db *gorm.DB, entries EntrySource, dir string, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		db:      db,
		entries: entries,
		dir:     dir,
		keep:    defaultKeepLocal,
		logger:  logger.Named("backup"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run writes a new archive. A failed upload still leaves the local archive
// in place and is reported alongside it.
func (s *Service) Run(ctx context.Context) (*Artifact, error) {
	now := s.now().UTC()
	payload, tables, err := s.buildArchive(ctx, now)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	filename := fmt.Sprintf("backup-%s.zip", now.Format("2006-01-02T15-04-05"))
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}
	artifact := &Artifact{Filename: filename, Path: path, Size: int64(len(payload)), Tables: tables}
	s.logger.Info("backup written", zap.String("file", filename), zap.String("size", formatSize(artifact.Size)))

	if removed := s.prune(); removed > 0 {
		s.logger.Info("old backups removed", zap.Int("count", removed))
	}

	if s.uploader != nil {
		key := renderObjectKey(s.template, filename, now)
		url, err := s.uploader.Upload(ctx, key, payload, "application/zip")
		if err != nil {
			s.logger.Warn("backup upload failed", zap.String("key", key), zap.Error(err))
			return artifact, err
		}
		artifact.RemoteURL = url
		s.logger.Info("backup uploaded", zap.String("key", key))
	}
	return artifact, nil
}

func (s *Service) buildArchive(ctx context.Context, now time.Time) ([]byte, map[string]int, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	tables := make(map[string]int, 2)

	users, err := s.dumpTable(ctx, zw, "users")
	if err != nil {
		return nil, nil, err
	}
	tables["users"] = users

	entries, err := s.dumpEntries(ctx, zw)
	if err != nil {
		return nil, nil, err
	}
	tables["diary_entries"] = entries

	mw, err := zw.Create(archiveManifestFile)
	if err != nil {
		return nil, nil, err
	}
	if err := json.NewEncoder(mw).Encode(manifest{
		Format:    archiveFormat,
		Version:   archiveVersion,
		CreatedAt: now,
		Tables:    tables,
	}); err != nil {
		return nil, nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), tables, nil
}

// dumpTable copies raw rows so columns hidden from the API, like password
// hashes, survive a restore.
func (s *Service) dumpTable(ctx context.Context, zw *zip.Writer, table string) (int, error) {
	var rows []map[string]interface{}
	if err := s.db.WithContext(ctx).Table(table).Order("created_at").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("dump %s: %w", table, err)
	}
	w, err := zw.Create(archiveDBDir + "/" + table + ".jsonl")
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	for _, row := range rows {
		for k, v := range row {
			row[k] = normalizeValue(v)
		}
		if err := enc.Encode(row); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func (s *Service) dumpEntries(ctx context.Context, zw *zip.Writer) (int, error) {
	w, err := zw.Create(archiveDBDir + "/diary_entries.jsonl")
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	count := 0
	err = s.entries.ForEach(ctx, entryBatchSize, func(e models.DiaryEntryModel) error {
		count++
		return enc.Encode(e)
	})
	if err != nil {
		return 0, fmt.Errorf("dump diary_entries: %w", err)
	}
	return count, nil
}

func (s *Service) prune() int {
	names := s.archives()
	if len(names) <= s.keep {
		return 0
	}
	removed := 0
	for _, name := range names[:len(names)-s.keep] {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			s.logger.Warn("remove old backup", zap.String("file", name), zap.Error(err))
			continue
		}
		removed++
	}
	return removed
}

// archives returns local archive names, oldest first.
func (s *Service) archives() []string {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "backup-") || !strings.HasSuffix(e.Name(), ".zip") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// List returns local archives, newest first.
func (s *Service) List() []Item {
	names := s.archives()
	items := make([]Item, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		info, err := os.Stat(filepath.Join(s.dir, names[i]))
		if err != nil {
			continue
		}
		items = append(items, Item{Filename: names[i], Size: formatSize(info.Size())})
	}
	return items
}

// ReadManifest opens an archive and returns its table counts.
func ReadManifest(r io.ReaderAt, size int64) (map[string]int, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if f.Name != archiveManifestFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		var m manifest
		if err := json.NewDecoder(rc).Decode(&m); err != nil {
			return nil, err
		}
		if m.Format != archiveFormat {
			return nil, fmt.Errorf("unexpected archive format %q", m.Format)
		}
		return m.Tables, nil
	}
	return nil, fmt.Errorf("archive has no %s", archiveManifestFile)
}
