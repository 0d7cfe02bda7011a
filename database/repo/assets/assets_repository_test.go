package assets

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

	dsn := fmt.Sprintf("file:assets_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Image{}, &models.ReferenceImage{}, &models.Tag{}))

	return NewRepository(db), db
}

func seedAsset(t *testing.T, repo *Repository, title, status, category string) *models.Image {
	t.Helper()
	img := &models.Image{
		Title:    title,
		FilePath: "/static/uploads/" + title + ".png",
		Status:   status,
		Category: category,
	}
	require.NoError(t, repo.db.Create(img).Error)
	return img
}

func TestIncrementViewsRecomputesHeatAtomically(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	img := seedAsset(t, repo, "a", models.StatusApproved, models.CategoryGallery)

	require.NoError(t, repo.IncrementViews(ctx, img.ID))
	require.NoError(t, repo.IncrementCopies(ctx, img.ID))
	require.NoError(t, repo.IncrementViews(ctx, img.ID))

	got, err := repo.GetByID(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ViewsCount)
	assert.Equal(t, 1, got.CopiesCount)
	assert.Equal(t, models.ComputeHeat(got.ViewsCount, got.CopiesCount), got.HeatScore)
}

func TestIncrementOnMissingRow(t *testing.T) {
	repo, _ := setupRepo(t)

	err := repo.IncrementViews(context.Background(), 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMaxRefPositionWithTx(t *testing.T) {
	repo, db := setupRepo(t)

	img := seedAsset(t, repo, "a", models.StatusApproved, models.CategoryGallery)

	pos, err := repo.MaxRefPositionWithTx(db, img.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, pos, "no refs means -1")

	require.NoError(t, repo.AddRefsWithTx(db, []models.ReferenceImage{
		{ImageID: img.ID, FilePath: "/static/uploads/r0.png", Position: 0},
		{ImageID: img.ID, FilePath: "/static/uploads/r3.png", Position: 3},
	}))

	pos, err = repo.MaxRefPositionWithTx(db, img.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, pos)
}

func TestDeleteRefsWithTxIgnoresForeignRows(t *testing.T) {
	repo, db := setupRepo(t)

	mine := seedAsset(t, repo, "mine", models.StatusApproved, models.CategoryGallery)
	other := seedAsset(t, repo, "other", models.StatusApproved, models.CategoryGallery)

	require.NoError(t, repo.AddRefsWithTx(db, []models.ReferenceImage{
		{ImageID: mine.ID, FilePath: "/static/uploads/m.png", Position: 0},
		{ImageID: other.ID, FilePath: "/static/uploads/o.png", Position: 0},
	}))

	var foreign models.ReferenceImage
	require.NoError(t, db.Where("image_id = ?", other.ID).First(&foreign).Error)

	// 传入别人的参考图 id，不得误删
	removed, err := repo.DeleteRefsWithTx(db, mine.ID, []uint{foreign.ID})
	require.NoError(t, err)
	assert.Empty(t, removed)

	var count int64
	require.NoError(t, db.Model(&models.ReferenceImage{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestDeleteWithTxClearsTagLinks(t *testing.T) {
	repo, db := setupRepo(t)

	img := seedAsset(t, repo, "a", models.StatusApproved, models.CategoryGallery)
	tag := &models.Tag{Name: "cats"}
	require.NoError(t, db.Create(tag).Error)
	require.NoError(t, db.Model(img).Association("Tags").Append(tag))
	require.NoError(t, repo.AddRefsWithTx(db, []models.ReferenceImage{
		{ImageID: img.ID, FilePath: "/static/uploads/r.png", Position: 0},
	}))

	require.NoError(t, repo.DeleteWithTx(db, img))

	var linkCount int64
	require.NoError(t, db.Table("image_tags").Count(&linkCount).Error)
	assert.Zero(t, linkCount)

	var refCount int64
	require.NoError(t, db.Model(&models.ReferenceImage{}).Count(&refCount).Error)
	assert.Zero(t, refCount)

	// 标签行本身保留，孤儿清理是上层的职责
	var tagCount int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tagCount).Error)
	assert.EqualValues(t, 1, tagCount)
}

func TestUpdateStatusIdempotent(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	img := seedAsset(t, repo, "a", models.StatusPending, models.CategoryGallery)

	changed, err := repo.UpdateStatus(ctx, img.ID, models.StatusApproved)
	require.NoError(t, err)
	assert.True(t, changed)

	// sqlite 对相同值的 UPDATE 仍报告行受影响，这里只关心不报错且状态不变
	_, err = repo.UpdateStatus(ctx, img.ID, models.StatusApproved)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestApproveAll(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	seedAsset(t, repo, "p1", models.StatusPending, models.CategoryGallery)
	seedAsset(t, repo, "p2", models.StatusPending, models.CategoryTemplate)
	seedAsset(t, repo, "done", models.StatusApproved, models.CategoryGallery)

	count, err := repo.ApproveAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	pending, err := repo.CountByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestListFilters(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()

	g1 := seedAsset(t, repo, "blue cat", models.StatusApproved, models.CategoryGallery)
	g2 := seedAsset(t, repo, "red dog", models.StatusApproved, models.CategoryGallery)
	seedAsset(t, repo, "pending thing", models.StatusPending, models.CategoryGallery)
	seedAsset(t, repo, "a template", models.StatusApproved, models.CategoryTemplate)

	tag := &models.Tag{Name: "cats"}
	require.NoError(t, db.Create(tag).Error)
	require.NoError(t, db.Model(g1).Association("Tags").Append(tag))

	// 状态 + 分类
	items, total, err := repo.List(ctx, ListOptions{
		Status: models.StatusApproved, Category: models.CategoryGallery, Page: 1, PerPage: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	// 标签过滤
	items, total, err = repo.List(ctx, ListOptions{
		Status: models.StatusApproved, Tag: "cats", Page: 1, PerPage: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, g1.ID, items[0].ID)

	// 关键字匹配标题
	items, total, err = repo.List(ctx, ListOptions{
		Status: models.StatusApproved, Query: "dog", Page: 1, PerPage: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, g2.ID, items[0].ID)

	// 敏感标签过滤
	require.NoError(t, db.Model(tag).Update("is_sensitive", true).Error)
	_, total, err = repo.List(ctx, ListOptions{
		Status: models.StatusApproved, Category: models.CategoryGallery,
		ExcludeSensitive: true, Page: 1, PerPage: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestListSortByHot(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()

	cold := seedAsset(t, repo, "cold", models.StatusApproved, models.CategoryGallery)
	hot := seedAsset(t, repo, "hot", models.StatusApproved, models.CategoryGallery)
	require.NoError(t, db.Model(hot).Update("heat_score", 42).Error)

	items, _, err := repo.List(ctx, ListOptions{
		Status: models.StatusApproved, Sort: SortByHot, Page: 1, PerPage: 10,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, hot.ID, items[0].ID)
	assert.Equal(t, cold.ID, items[1].ID)
}
