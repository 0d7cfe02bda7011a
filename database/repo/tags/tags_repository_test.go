package tags

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vioaki/prompt-manager/database/models"
)

func setupRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:tags_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Image{}, &models.ReferenceImage{}, &models.Tag{}))

	return NewRepository(db), db
}

func TestNormalizeNames(t *testing.T) {
	got := NormalizeNames([]string{" cats ", "", "dogs", "cats", "  "})
	assert.Equal(t, []string{"cats", "dogs"}, got)
}

func TestFindOrCreateWithTxReusesExisting(t *testing.T) {
	repo, db := setupRepo(t)

	first, err := repo.FindOrCreateWithTx(db, []string{"cats", "dogs"})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := repo.FindOrCreateWithTx(db, []string{"dogs ", "birds"})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, first[1].ID, second[0].ID, "existing tag reused, not duplicated")

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestPurgeOrphans(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()

	img := &models.Image{Title: "a", FilePath: "/static/uploads/a.png", Status: models.StatusApproved, Category: models.CategoryGallery}
	require.NoError(t, db.Create(img).Error)

	linked := &models.Tag{Name: "linked"}
	orphan := &models.Tag{Name: "orphan"}
	require.NoError(t, db.Create(linked).Error)
	require.NoError(t, db.Create(orphan).Error)
	require.NoError(t, db.Model(img).Association("Tags").Append(linked))

	purged, err := repo.PurgeOrphans(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	_, err = repo.GetByName(ctx, "orphan")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.GetByName(ctx, "linked")
	assert.NoError(t, err)
}

func TestListVisibleFiltersByStatusAndSensitivity(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()

	approved := &models.Image{Title: "a", FilePath: "/static/uploads/a.png", Status: models.StatusApproved, Category: models.CategoryGallery}
	pending := &models.Image{Title: "p", FilePath: "/static/uploads/p.png", Status: models.StatusPending, Category: models.CategoryGallery}
	require.NoError(t, db.Create(approved).Error)
	require.NoError(t, db.Create(pending).Error)

	plain := &models.Tag{Name: "plain"}
	nsfw := &models.Tag{Name: "nsfw", IsSensitive: true}
	hidden := &models.Tag{Name: "hidden"}
	require.NoError(t, db.Create(plain).Error)
	require.NoError(t, db.Create(nsfw).Error)
	require.NoError(t, db.Create(hidden).Error)
	require.NoError(t, db.Model(approved).Association("Tags").Append(plain, nsfw))
	require.NoError(t, db.Model(pending).Association("Tags").Append(hidden))

	// 匿名访客：只看到已发布作品的非敏感标签
	visible, err := repo.ListVisible(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "plain", visible[0].Name)

	// 开启敏感内容后可见
	visible, err = repo.ListVisible(ctx, "", true)
	require.NoError(t, err)
	assert.Len(t, visible, 2)
}

func TestSetSensitiveMissing(t *testing.T) {
	repo, _ := setupRepo(t)

	err := repo.SetSensitive(context.Background(), 404, true)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
