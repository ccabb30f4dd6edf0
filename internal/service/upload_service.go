package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dmoraru/personas/internal/filestore"
	"github.com/dmoraru/personas/internal/model"
	appErr "github.com/dmoraru/personas/internal/pkg/errors"
	"github.com/dmoraru/personas/internal/repo"
)

// allowedExtensions gates uploads per collection type; anything else is
// rejected before it touches disk.
var allowedExtensions = map[model.CollectionType]map[string]bool{
	model.CollectionWorks:   {".txt": true, ".md": true},
	model.CollectionQuotes:  {".jsonl": true},
	model.CollectionProfile: {".txt": true, ".md": true, ".pdf": true},
}

type UploadService struct {
	store    filestore.Store
	mirror   filestore.Store
	sources  *repo.DataSourceRepo
	personas *repo.PersonaRepo
}

func NewUploadService(store filestore.Store, mirror filestore.Store, sources *repo.DataSourceRepo, personas *repo.PersonaRepo) *UploadService {
	return &UploadService{store: store, mirror: mirror, sources: sources, personas: personas}
}

// Upload stores one raw source file in the persona's data tree and records
// it. The mirror copy is best effort; the local tree is what ingestion
// reads.
func (s *UploadService) Upload(ctx context.Context, personaID string, ctype model.CollectionType, fileName string, r filestore.ReadSeekCloser, size int64) (*model.DataSource, error) {
	if _, err := s.personas.Get(ctx, personaID); err != nil {
		return nil, err
	}
	fileName = filepath.Base(fileName)
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: file name is required", appErr.ErrInvalid)
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ctype][ext] {
		return nil, fmt.Errorf("%w: extension %q not allowed for %s uploads", appErr.ErrInvalid, ext, ctype)
	}

	key := path.Join(personaID, string(ctype), fileName)
	if err := s.store.Save(ctx, key, r, size); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	if s.mirror != nil {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			logutil.GetLogger(ctx).Warn("rewind for mirror failed", zap.String("key", key), zap.Error(err))
		} else if err := s.mirror.Save(ctx, key, r, size); err != nil {
			logutil.GetLogger(ctx).Warn("mirror upload failed", zap.String("key", key), zap.Error(err))
		}
	}

	ds := &model.DataSource{
		ID:             newID(),
		PersonaID:      personaID,
		CollectionType: ctype,
		FileName:       fileName,
		FilePath:       key,
		FileSizeBytes:  size,
		Ctime:          time.Now().UnixMilli(),
	}
	if err := s.sources.Create(ctx, ds); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("upload accepted",
		zap.String("persona", personaID),
		zap.String("collection", string(ctype)),
		zap.String("file", fileName),
		zap.Int64("size", size),
	)
	return ds, nil
}

func (s *UploadService) List(ctx context.Context, personaID string, collectionType string) ([]*model.DataSource, error) {
	if _, err := s.personas.Get(ctx, personaID); err != nil {
		return nil, err
	}
	return s.sources.List(ctx, personaID, collectionType)
}
