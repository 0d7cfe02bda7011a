package tag

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
	"github.com/vioaki/prompt-manager/database/repo/tags"
	"github.com/vioaki/prompt-manager/internal/apperr"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:tag_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Image{}, &models.ReferenceImage{}, &models.Tag{}))

	return NewService(db, tags.NewRepository(db)), db
}

func createAsset(t *testing.T, db *gorm.DB, title string, tagRows ...*models.Tag) *models.Image {
	t.Helper()
	img := &models.Image{
		Title:    title,
		FilePath: "/static/uploads/" + title + ".png",
		Status:   models.StatusApproved,
		Category: models.CategoryGallery,
	}
	require.NoError(t, db.Create(img).Error)
	require.NoError(t, db.Model(img).Association("Tags").Replace(tagRows))
	return img
}

func createTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

func tagNamesOf(t *testing.T, db *gorm.DB, img *models.Image) []string {
	t.Helper()
	var loaded models.Image
	require.NoError(t, db.Preload("Tags").First(&loaded, img.ID).Error)
	names := make([]string, 0, len(loaded.Tags))
	for _, tag := range loaded.Tags {
		names = append(names, tag.Name)
	}
	return names
}

func TestRenameSimple(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	tag := createTag(t, db, "landskape")
	createAsset(t, db, "a", tag)

	merged, err := svc.Rename(ctx, tag.ID, "landscape")
	require.NoError(t, err)
	assert.False(t, merged)

	var renamed models.Tag
	require.NoError(t, db.First(&renamed, tag.ID).Error)
	assert.Equal(t, "landscape", renamed.Name)
}

func TestRenameMergesIntoExistingTag(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	loser := createTag(t, db, "sun-set")
	winner := createTag(t, db, "sunset")

	// 一个作品只有落败标签，一个两者都有
	only := createAsset(t, db, "only-loser", loser)
	both := createAsset(t, db, "both", loser, winner)

	merged, err := svc.Rename(ctx, loser.ID, "sunset")
	require.NoError(t, err)
	assert.True(t, merged)

	// 落败标签消失
	var gone models.Tag
	err = db.First(&gone, loser.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// 关联迁移为并集且无重复
	assert.Equal(t, []string{"sunset"}, tagNamesOf(t, db, only))
	assert.Equal(t, []string{"sunset"}, tagNamesOf(t, db, both))

	var linkCount int64
	require.NoError(t, db.Table("image_tags").Where("tag_id = ?", winner.ID).Count(&linkCount).Error)
	assert.EqualValues(t, 2, linkCount)
}

func TestRenameValidation(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	tag := createTag(t, db, "keep")

	_, err := svc.Rename(ctx, tag.ID, "   ")
	assert.True(t, apperr.IsValidation(err))

	merged, err := svc.Rename(ctx, tag.ID, "keep")
	require.NoError(t, err)
	assert.False(t, merged)

	_, err = svc.Rename(ctx, 9999, "anything")
	assert.True(t, apperr.IsNotFound(err))
}

func TestSetSensitiveAndVisibility(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	safe := createTag(t, db, "cats")
	spicy := createTag(t, db, "nsfw")
	createAsset(t, db, "a", safe)
	createAsset(t, db, "b", spicy)

	require.NoError(t, svc.SetSensitive(ctx, spicy.ID, true))

	visible, err := svc.ListVisible(ctx, models.CategoryGallery, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "cats", visible[0].Name)

	all, err := svc.ListVisible(ctx, models.CategoryGallery, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.True(t, apperr.IsNotFound(svc.SetSensitive(ctx, 9999, true)))
}
