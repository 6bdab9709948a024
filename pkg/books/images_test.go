package books

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pustokbooks/pustok/pkg/filestore"
	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngFileHeader builds a multipart file header carrying a small valid PNG.
func pngFileHeader(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	require.NoError(t, png.Encode(fw, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	headers := req.MultipartForm.File["file"]
	require.Len(t, headers, 1)
	return headers[0]
}

func TestImageStager_StageNew(t *testing.T) {
	t.Parallel()
	store := filestore.New(t.TempDir())
	stager := newImageStager(store)

	img, err := stager.stageNew(pngFileHeader(t, "poster.png"), boolPtr(true))
	require.NoError(t, err)
	require.NotNil(t, img)
	require.NotNil(t, img.IsMain)
	assert.True(t, *img.IsMain)

	// The file exists before any database write happens.
	_, err = os.Stat(store.Path(imageFolder, img.URL))
	require.NoError(t, err)
}

func TestImageStager_ReplacementDefersOldFileDeletion(t *testing.T) {
	t.Parallel()
	store := filestore.New(t.TempDir())
	log := logger.New()

	stager := newImageStager(store)
	img, err := stager.stageNew(pngFileHeader(t, "old.png"), boolPtr(true))
	require.NoError(t, err)
	oldURL := img.URL

	err = stager.stageReplacement(img, pngFileHeader(t, "new.png"))
	require.NoError(t, err)
	assert.NotEqual(t, oldURL, img.URL)

	// The superseded file survives until the aggregate write commits.
	_, err = os.Stat(store.Path(imageFolder, oldURL))
	require.NoError(t, err)
	_, err = os.Stat(store.Path(imageFolder, img.URL))
	require.NoError(t, err)

	stager.cleanupStale(log)

	_, err = os.Stat(store.Path(imageFolder, oldURL))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(store.Path(imageFolder, img.URL))
	assert.NoError(t, err)
}

func TestImageStager_DiscardStagedRemovesNewFiles(t *testing.T) {
	t.Parallel()
	store := filestore.New(t.TempDir())
	log := logger.New()

	stager := newImageStager(store)
	img1, err := stager.stageNew(pngFileHeader(t, "a.png"), nil)
	require.NoError(t, err)
	img2, err := stager.stageNew(pngFileHeader(t, "b.png"), nil)
	require.NoError(t, err)

	stager.discardStaged(log)

	_, err = os.Stat(store.Path(imageFolder, img1.URL))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(store.Path(imageFolder, img2.URL))
	assert.True(t, os.IsNotExist(err))
}

func TestImageStager_CleanupStaleSwallowsMissingFiles(t *testing.T) {
	t.Parallel()
	store := filestore.New(t.TempDir())
	log := logger.New()

	stager := newImageStager(store)
	stager.queueDelete("does-not-exist.png")

	// Must not panic or error; deletion is best-effort.
	stager.cleanupStale(log)
}
