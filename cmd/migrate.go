package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vioaki/prompt-manager/database/models"
)

// migrateCmd 数据库迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long:  `Migrate data from one database to another (e.g., SQLite to PostgreSQL).`,
}

// migrateRunCmd 执行迁移命令
var migrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run database migration",
	Long: `Run database migration from source to target database.

Examples:
  # Migrate from SQLite to PostgreSQL
  prompt-manager migrate run --from-sqlite ./data/gallery.db --to-postgres "host=localhost user=postgres password=secret dbname=prompts port=5432"

  # Migrate with overwrite strategy (replace existing data)
  prompt-manager migrate run --from-sqlite ./data/gallery.db --to-postgres "..." --on-conflict=overwrite`,
	Run: func(cmd *cobra.Command, args []string) {
		fromType, _ := cmd.Flags().GetString("from-type")
		toType, _ := cmd.Flags().GetString("to-type")
		fromDSN, _ := cmd.Flags().GetString("from-dsn")
		toDSN, _ := cmd.Flags().GetString("to-dsn")
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		skipConfirm, _ := cmd.Flags().GetBool("yes")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		if err := runMigration(fromType, toType, fromDSN, toDSN, fromSQLite, toPostgres, skipConfirm, batchSize, onConflict); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateRunCmd)

	migrateRunCmd.Flags().String("from-type", "", "Source database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("to-type", "", "Target database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("from-dsn", "", "Source database DSN/connection string")
	migrateRunCmd.Flags().String("to-dsn", "", "Target database DSN/connection string")
	migrateRunCmd.Flags().String("from-sqlite", "", "Source SQLite file path (shortcut)")
	migrateRunCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string (shortcut)")
	migrateRunCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	migrateRunCmd.Flags().Int("batch-size", 100, "Batch size for data migration")
	migrateRunCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite, error")
}

// migrateStats 迁移统计
type migrateStats struct {
	assets      int
	refs        int
	tags        int
	links       int
	settings    int
	skipped     int
	overwritten int
	errors      []string
}

// runMigration 执行数据库迁移
func runMigration(fromType, toType, fromDSN, toDSN, fromSQLite, toPostgres string, skipConfirm bool, batchSize int, onConflict string) error {
	if onConflict != "skip" && onConflict != "overwrite" && onConflict != "error" {
		return fmt.Errorf("invalid on-conflict strategy: %s (must be skip, overwrite, or error)", onConflict)
	}

	// 处理快捷方式参数
	if fromSQLite != "" {
		fromType = "sqlite"
		fromDSN = fromSQLite
	}
	if toPostgres != "" {
		toType = "postgres"
		toDSN = toPostgres
	}

	if fromType == "" || toType == "" {
		return fmt.Errorf("both --from-type and --to-type are required")
	}
	if fromDSN == "" || toDSN == "" {
		return fmt.Errorf("both --from-dsn and --to-dsn (or shortcuts) are required")
	}
	if fromType == toType && fromDSN == toDSN {
		return fmt.Errorf("source and target databases are the same")
	}

	log.Printf("Migrating from %s to %s", fromType, toType)
	log.Printf("Source: %s", maskDSN(fromDSN))
	log.Printf("Target: %s", maskDSN(toDSN))
	log.Printf("Conflict strategy: %s", onConflict)

	sourceDB, err := openDatabase(fromType, fromDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	sqlDB, _ := sourceDB.DB()
	defer sqlDB.Close()

	targetDB, err := openDatabase(toType, toDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	sqlDB2, _ := targetDB.DB()
	defer sqlDB2.Close()

	if !skipConfirm {
		fmt.Println("\nWarning: This will migrate all data from source to target database.")
		fmt.Printf("Conflict resolution strategy: %s\n", onConflict)
		fmt.Print("Do you want to continue? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Migration cancelled.")
			return nil
		}
	}

	stats := &migrateStats{}

	log.Println("Migrating database schema...")
	if err := targetDB.AutoMigrate(
		&models.Image{}, &models.ReferenceImage{}, &models.Tag{}, &models.SystemSetting{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	ctx := context.Background()

	log.Println("Migrating tags...")
	if err := migrateTags(ctx, sourceDB, targetDB, stats, onConflict); err != nil && onConflict == "error" {
		return err
	}

	log.Println("Migrating assets...")
	if err := migrateAssets(ctx, sourceDB, targetDB, stats, batchSize, onConflict); err != nil && onConflict == "error" {
		return err
	}

	log.Println("Migrating reference images...")
	if err := migrateRefs(ctx, sourceDB, targetDB, stats, batchSize, onConflict); err != nil && onConflict == "error" {
		return err
	}

	log.Println("Migrating tag links...")
	if err := migrateTagLinks(ctx, sourceDB, targetDB, stats, onConflict); err != nil && onConflict == "error" {
		return err
	}

	log.Println("Migrating settings...")
	if err := migrateSettings(ctx, sourceDB, targetDB, stats, onConflict); err != nil && onConflict == "error" {
		return err
	}

	printMigrateStats(stats)

	if len(stats.errors) > 0 {
		return fmt.Errorf("migration completed with %d errors", len(stats.errors))
	}

	log.Println("Migration completed successfully!")
	return nil
}

// openDatabase 打开数据库连接
func openDatabase(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// upsertByID 按主键处理冲突，返回是否写入
func upsertByID(ctx context.Context, targetDB *gorm.DB, model interface{}, id uint, record interface{}, stats *migrateStats, onConflict string) (bool, error) {
	var count int64
	if err := targetDB.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}

	if count == 0 {
		return true, targetDB.WithContext(ctx).Create(record).Error
	}

	switch onConflict {
	case "overwrite":
		if err := targetDB.WithContext(ctx).Where("id = ?", id).Delete(model).Error; err != nil {
			return false, err
		}
		stats.overwritten++
		return true, targetDB.WithContext(ctx).Create(record).Error
	case "error":
		return false, fmt.Errorf("record already exists: id=%d", id)
	default:
		stats.skipped++
		return false, nil
	}
}

func migrateTags(ctx context.Context, sourceDB, targetDB *gorm.DB, stats *migrateStats, onConflict string) error {
	var tags []models.Tag
	if err := sourceDB.WithContext(ctx).Find(&tags).Error; err != nil {
		return err
	}

	for _, tag := range tags {
		tag.Images = nil
		written, err := upsertByID(ctx, targetDB, &models.Tag{}, tag.ID, &tag, stats, onConflict)
		if err != nil {
			stats.errors = append(stats.errors, fmt.Sprintf("failed to migrate tag %d: %v", tag.ID, err))
			if onConflict == "error" {
				return err
			}
			continue
		}
		if written {
			stats.tags++
		}
	}

	log.Printf("Migrated %d tags", stats.tags)
	return nil
}

func migrateAssets(ctx context.Context, sourceDB, targetDB *gorm.DB, stats *migrateStats, batchSize int, onConflict string) error {
	var offset int
	for {
		var images []models.Image
		if err := sourceDB.WithContext(ctx).Limit(batchSize).Offset(offset).Find(&images).Error; err != nil {
			return err
		}
		if len(images) == 0 {
			break
		}

		for _, image := range images {
			// 清除关联，避免外键约束问题
			image.Tags = nil
			image.Refs = nil

			written, err := upsertByID(ctx, targetDB, &models.Image{}, image.ID, &image, stats, onConflict)
			if err != nil {
				stats.errors = append(stats.errors, fmt.Sprintf("failed to migrate asset %d: %v", image.ID, err))
				if onConflict == "error" {
					return err
				}
				continue
			}
			if written {
				stats.assets++
			}
		}

		offset += batchSize
	}

	log.Printf("Migrated %d assets", stats.assets)
	return nil
}

func migrateRefs(ctx context.Context, sourceDB, targetDB *gorm.DB, stats *migrateStats, batchSize int, onConflict string) error {
	var offset int
	for {
		var refs []models.ReferenceImage
		if err := sourceDB.WithContext(ctx).Limit(batchSize).Offset(offset).Find(&refs).Error; err != nil {
			return err
		}
		if len(refs) == 0 {
			break
		}

		for _, ref := range refs {
			written, err := upsertByID(ctx, targetDB, &models.ReferenceImage{}, ref.ID, &ref, stats, onConflict)
			if err != nil {
				stats.errors = append(stats.errors, fmt.Sprintf("failed to migrate reference image %d: %v", ref.ID, err))
				if onConflict == "error" {
					return err
				}
				continue
			}
			if written {
				stats.refs++
			}
		}

		offset += batchSize
	}

	log.Printf("Migrated %d reference images", stats.refs)
	return nil
}

func migrateTagLinks(ctx context.Context, sourceDB, targetDB *gorm.DB, stats *migrateStats, onConflict string) error {
	type imageTag struct {
		ImageID uint
		TagID   uint
	}

	var links []imageTag
	if err := sourceDB.WithContext(ctx).Raw("SELECT image_id, tag_id FROM image_tags").Scan(&links).Error; err != nil {
		// 表可能不存在
		return nil
	}

	for _, link := range links {
		var count int64
		targetDB.WithContext(ctx).Raw(
			"SELECT COUNT(*) FROM image_tags WHERE image_id = ? AND tag_id = ?",
			link.ImageID, link.TagID,
		).Scan(&count)
		if count > 0 {
			if onConflict == "error" {
				return fmt.Errorf("tag link already exists: image_id=%d, tag_id=%d", link.ImageID, link.TagID)
			}
			continue
		}

		if err := targetDB.WithContext(ctx).Exec(
			"INSERT INTO image_tags (image_id, tag_id) VALUES (?, ?)",
			link.ImageID, link.TagID,
		).Error; err != nil {
			stats.errors = append(stats.errors, fmt.Sprintf(
				"failed to migrate tag link (image=%d, tag=%d): %v", link.ImageID, link.TagID, err))
			continue
		}
		stats.links++
	}

	log.Printf("Migrated %d tag links", stats.links)
	return nil
}

func migrateSettings(ctx context.Context, sourceDB, targetDB *gorm.DB, stats *migrateStats, onConflict string) error {
	var rows []models.SystemSetting
	if err := sourceDB.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil // settings 表可能不存在，不报错
	}

	for _, row := range rows {
		var count int64
		if err := targetDB.WithContext(ctx).Model(&models.SystemSetting{}).
			Where("key = ?", row.Key).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			if onConflict == "overwrite" {
				if err := targetDB.WithContext(ctx).Model(&models.SystemSetting{}).
					Where("key = ?", row.Key).Update("value", row.Value).Error; err != nil {
					stats.errors = append(stats.errors, fmt.Sprintf("failed to overwrite setting %s: %v", row.Key, err))
					continue
				}
				stats.overwritten++
				stats.settings++
			} else if onConflict == "error" {
				return fmt.Errorf("setting already exists: %s", row.Key)
			} else {
				stats.skipped++
			}
			continue
		}

		if err := targetDB.WithContext(ctx).Create(&row).Error; err != nil {
			stats.errors = append(stats.errors, fmt.Sprintf("failed to migrate setting %s: %v", row.Key, err))
			continue
		}
		stats.settings++
	}

	log.Printf("Migrated %d settings", stats.settings)
	return nil
}

// maskDSN 隐藏敏感信息
func maskDSN(dsn string) string {
	if len(dsn) > 50 {
		return dsn[:50] + "..."
	}
	return dsn
}

// printMigrateStats 打印迁移统计
func printMigrateStats(stats *migrateStats) {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("       Migration Statistics")
	fmt.Println("========================================")
	fmt.Printf("Assets migrated:     %d\n", stats.assets)
	fmt.Printf("References migrated: %d\n", stats.refs)
	fmt.Printf("Tags migrated:       %d\n", stats.tags)
	fmt.Printf("Tag links migrated:  %d\n", stats.links)
	fmt.Printf("Settings migrated:   %d\n", stats.settings)
	fmt.Printf("Skipped records:     %d\n", stats.skipped)
	fmt.Printf("Overwritten:         %d\n", stats.overwritten)
	fmt.Println("========================================")

	if len(stats.errors) > 0 {
		fmt.Println("\nErrors encountered:")
		for _, err := range stats.errors {
			fmt.Printf("  - %s\n", err)
		}
	}
}
