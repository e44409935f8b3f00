package main

import (
	"context"
	"errors"

	"galleryserver/internal/thumbs"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type database struct {
	db *gorm.DB
}

func newDatabase(path string) (*database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&thumbs.Thumbnail{})
	if err != nil {
		return nil, err
	}

	return &database{
		db: db,
	}, nil
}

func (d *database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *database) GetThumbnail(ctx context.Context, key string) (*thumbs.Thumbnail, error) {
	var t thumbs.Thumbnail
	err := d.db.WithContext(ctx).Where(&thumbs.Thumbnail{Key: key}).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, thumbs.ErrNotCached
	} else if err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveThumbnail inserts t, replacing any thumbnail stored under the same key.
func (d *database) SaveThumbnail(ctx context.Context, t *thumbs.Thumbnail) error {
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(t).Error
}

func (d *database) CountThumbnails(ctx context.Context) (int64, error) {
	var count int64
	return count, d.db.WithContext(ctx).Model(&thumbs.Thumbnail{}).Count(&count).Error
}

// DeleteThumbnails removes every size of the thumbnails rendered from name.
func (d *database) DeleteThumbnails(ctx context.Context, name string) error {
	keys := make([]any, 0, len(thumbs.Sizes))
	for _, size := range thumbs.Sizes {
		keys = append(keys, thumbs.Key(size, name))
	}
	return d.db.WithContext(ctx).
		Where(clause.IN{Column: clause.Column{Name: "key"}, Values: keys}).
		Delete(&thumbs.Thumbnail{}).Error
}
