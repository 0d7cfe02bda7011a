package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	stdimage "image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	staticcfg "github.com/vioaki/prompt-manager/config"
	dbconfig "github.com/vioaki/prompt-manager/config/db"
	"github.com/vioaki/prompt-manager/database/models"
	"github.com/vioaki/prompt-manager/database/repo/settings"
	"github.com/vioaki/prompt-manager/internal/apperr"
	"github.com/vioaki/prompt-manager/storage"
)

// fakeBackend 记录每次写入，可在第 N 次写入时注入失败
type fakeBackend struct {
	puts    []*storage.Object
	failAt  int
	deletes []string
}

func (f *fakeBackend) Put(ctx context.Context, obj *storage.Object) (*storage.PutResult, error) {
	if f.failAt > 0 && len(f.puts)+1 == f.failAt {
		return nil, apperr.New(apperr.KindStorage, "injected failure")
	}
	f.puts = append(f.puts, obj)
	locator := fmt.Sprintf("/static/uploads/obj%d.png", len(f.puts))
	return &storage.PutResult{Locator: locator, ThumbLocator: locator + "_thumb.jpg"}, nil
}

func (f *fakeBackend) Delete(ctx context.Context, locator string) error {
	f.deletes = append(f.deletes, locator)
	return nil
}

func (f *fakeBackend) Owns(locator string) bool { return true }
func (f *fakeBackend) Name() string             { return "fake" }

func newTestSettings(t *testing.T) *dbconfig.Manager {
	t.Helper()
	dsn := fmt.Sprintf("file:ingest_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SystemSetting{}))
	static := &staticcfg.Config{MaxRefImages: 3, ImgMaxDimension: 1600, ImgQuality: 85, EnableImgCompress: true}
	return dbconfig.NewManager(settings.NewRepository(db), static)
}

func pngFile(t *testing.T, name string) *File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, stdimage.NewRGBA(stdimage.Rect(0, 0, 4, 4))))
	return &File{Name: name, Data: buf.Bytes()}
}

func TestIngestMainRequired(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewIngestService(backend, newTestSettings(t), 50)

	_, err := svc.Ingest(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Empty(t, backend.puts)
}

func TestIngestTooManyReferences(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewIngestService(backend, newTestSettings(t), 50)

	refs := []*File{pngFile(t, "r1"), pngFile(t, "r2"), pngFile(t, "r3"), pngFile(t, "r4")}
	_, err := svc.Ingest(context.Background(), pngFile(t, "main"), refs)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Empty(t, backend.puts, "nothing may be stored when the count check fails")
}

func TestIngestRejectsNonImageBeforeAnyWrite(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewIngestService(backend, newTestSettings(t), 50)

	refs := []*File{{Name: "bad.txt", Data: []byte("not an image at all")}}
	_, err := svc.Ingest(context.Background(), pngFile(t, "main"), refs)
	require.Error(t, err)
	assert.True(t, apperr.IsDecode(err))
	assert.Empty(t, backend.puts, "validation of all files precedes the first write")
}

func TestIngestRejectsOversizedFile(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewIngestService(backend, newTestSettings(t), 50)
	svc.maxSizeBytes = 10

	_, err := svc.Ingest(context.Background(), pngFile(t, "main"), nil)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestIngestOrderAndResult(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewIngestService(backend, newTestSettings(t), 50)

	res, err := svc.Ingest(context.Background(), pngFile(t, "main"), []*File{pngFile(t, "r1"), pngFile(t, "r2")})
	require.NoError(t, err)

	assert.Equal(t, "/static/uploads/obj1.png", res.Locator)
	assert.Equal(t, "/static/uploads/obj1.png_thumb.jpg", res.ThumbLocator)
	assert.Equal(t, []string{"/static/uploads/obj2.png", "/static/uploads/obj3.png"}, res.RefLocators)
	assert.Len(t, backend.puts, 3)
}

func TestIngestNoRollbackOnMidFailure(t *testing.T) {
	backend := &fakeBackend{failAt: 3}
	svc := NewIngestService(backend, newTestSettings(t), 50)

	_, err := svc.Ingest(context.Background(), pngFile(t, "main"), []*File{pngFile(t, "r1"), pngFile(t, "r2")})
	require.Error(t, err)
	assert.True(t, apperr.IsStorage(err))

	var kindErr *apperr.Error
	assert.True(t, errors.As(err, &kindErr))

	// 前两个文件已写入且不会被回收
	assert.Len(t, backend.puts, 2)
	assert.Empty(t, backend.deletes)
}
