package books

import (
	"mime/multipart"

	"github.com/pustokbooks/pustok/pkg/filestore"
	"github.com/pustokbooks/pustok/pkg/models"
	"github.com/robinjoseph08/golib/logger"
)

// imageFolder is the folder under the uploads root where book images live.
const imageFolder = "books"

// imageStager maps uploaded poster, hover-poster, and gallery payloads onto
// image records. New files are written to the store before the database
// commit; references they supersede are remembered and deleted only after
// the aggregate write succeeds, so a crash between write and delete leaves
// an orphaned file but never a record pointing at a deleted one.
type imageStager struct {
	store          *filestore.Store
	staged         []string
	pendingDeletes []string
}

func newImageStager(store *filestore.Store) *imageStager {
	return &imageStager{store: store}
}

// stageNew writes the upload and returns a fresh image record referencing
// it. isMain follows the tri-state convention of models.Image.
func (s *imageStager) stageNew(fh *multipart.FileHeader, isMain *bool) (*models.Image, error) {
	name, err := s.store.Save(imageFolder, fh)
	if err != nil {
		return nil, err
	}
	s.staged = append(s.staged, name)
	return &models.Image{URL: name, IsMain: isMain}, nil
}

// stageReplacement writes the upload, points img at the new reference, and
// queues the superseded reference for post-commit deletion.
func (s *imageStager) stageReplacement(img *models.Image, fh *multipart.FileHeader) error {
	name, err := s.store.Save(imageFolder, fh)
	if err != nil {
		return err
	}
	s.staged = append(s.staged, name)
	s.pendingDeletes = append(s.pendingDeletes, img.URL)
	img.URL = name
	return nil
}

// queueDelete marks an already-stored reference for post-commit deletion.
func (s *imageStager) queueDelete(name string) {
	s.pendingDeletes = append(s.pendingDeletes, name)
}

// cleanupStale deletes every superseded file reference. Call it only after
// the aggregate write has committed. Failures are logged and swallowed: the
// primary operation already succeeded and must not be failed retroactively.
func (s *imageStager) cleanupStale(log logger.Logger) {
	for _, name := range s.pendingDeletes {
		if err := s.store.Delete(imageFolder, name); err != nil {
			log.Warn("failed to delete stale image file", logger.Data{"url": name, "error": err.Error()})
		}
	}
	s.pendingDeletes = nil
}

// discardStaged deletes every file written during this staging session. Call
// it when the aggregate write fails, so a rejected request leaves no files
// behind. Failures are logged and swallowed.
func (s *imageStager) discardStaged(log logger.Logger) {
	for _, name := range s.staged {
		if err := s.store.Delete(imageFolder, name); err != nil {
			log.Warn("failed to delete staged image file", logger.Data{"url": name, "error": err.Error()})
		}
	}
	s.staged = nil
}
