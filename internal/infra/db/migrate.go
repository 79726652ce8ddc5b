package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

var tables = []string{`
CREATE TABLE IF NOT EXISTS contributors (
    id               BIGSERIAL PRIMARY KEY,
    display_name     TEXT NOT NULL,
    email            TEXT NOT NULL DEFAULT '',
    phone            TEXT NOT NULL DEFAULT '',
    active           BOOLEAN NOT NULL DEFAULT TRUE,
    profile_image_id BIGINT,
    created          TIMESTAMPTZ NOT NULL DEFAULT now(),
    modified         TIMESTAMPTZ NOT NULL DEFAULT now()
)`, `
CREATE TABLE IF NOT EXISTS print_issues (
    id               BIGSERIAL PRIMARY KEY,
    issue_number     VARCHAR(5) NOT NULL,
    publication_date DATE NOT NULL,
    pages            INT NOT NULL DEFAULT 0,
    pdf              TEXT NOT NULL DEFAULT '',
    cover_page       TEXT NOT NULL DEFAULT '',
    UNIQUE (issue_number, publication_date)
)`, `
CREATE TABLE IF NOT EXISTS stories (
    id                 BIGSERIAL PRIMARY KEY,
    language           VARCHAR(10) NOT NULL DEFAULT 'nb',
    title              TEXT NOT NULL DEFAULT '',
    slug               VARCHAR(50) NOT NULL DEFAULT '',
    kicker             TEXT NOT NULL DEFAULT '',
    lede               TEXT NOT NULL DEFAULT '',
    comment            TEXT NOT NULL DEFAULT '',
    theme_word         VARCHAR(100) NOT NULL DEFAULT '',
    working_title      TEXT NOT NULL DEFAULT '',
    bodytext_markup    TEXT NOT NULL DEFAULT '',
    story_type         TEXT NOT NULL DEFAULT '',
    publication_date   TIMESTAMPTZ,
    publication_status INT NOT NULL DEFAULT 0,
    issue_id           BIGINT REFERENCES print_issues(id) ON DELETE SET NULL,
    page               INT,
    hit_count          INT NOT NULL DEFAULT 0,
    hot_count          INT NOT NULL DEFAULT 1000,
    bylines_html       TEXT NOT NULL DEFAULT '',
    search_vector      tsvector,
    created            TIMESTAMPTZ NOT NULL DEFAULT now(),
    modified           TIMESTAMPTZ NOT NULL DEFAULT now()
)`, `
CREATE TABLE IF NOT EXISTS bylines (
    id             BIGSERIAL PRIMARY KEY,
    story_id       BIGINT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
    contributor_id BIGINT NOT NULL REFERENCES contributors(id) ON DELETE CASCADE,
    credit         VARCHAR(20) NOT NULL DEFAULT 'by',
    title          VARCHAR(200) NOT NULL DEFAULT '',
    ordering       INT NOT NULL DEFAULT 0
)`, `
CREATE TABLE IF NOT EXISTS imagefiles (
    id                    BIGSERIAL PRIMARY KEY,
    stem                  TEXT NOT NULL DEFAULT '',
    original              TEXT NOT NULL DEFAULT '',
    source_file           TEXT NOT NULL DEFAULT '',
    full_width            INT NOT NULL DEFAULT 0,
    full_height           INT NOT NULL DEFAULT 0,
    old_file_path         TEXT NOT NULL DEFAULT '',
    contributor_id        BIGINT REFERENCES contributors(id) ON DELETE SET NULL,
    description           TEXT NOT NULL DEFAULT '',
    copyright_information TEXT NOT NULL DEFAULT '',
    exif_data             JSONB NOT NULL DEFAULT '{}',
    crop_box              JSONB NOT NULL DEFAULT '{"left":0,"top":0,"right":1,"bottom":1,"x":0.5,"y":0.5}',
    cropping_method       INT NOT NULL DEFAULT 1,
    category              INT NOT NULL DEFAULT 0,
    stat                  JSONB NOT NULL DEFAULT '{}',
    imagehash             TEXT NOT NULL DEFAULT '',
    imagehashes           JSONB NOT NULL DEFAULT '{}',
    created               TIMESTAMPTZ NOT NULL DEFAULT now(),
    modified              TIMESTAMPTZ NOT NULL DEFAULT now()
)`, `
CREATE TABLE IF NOT EXISTS story_images (
    id           BIGSERIAL PRIMARY KEY,
    story_id     BIGINT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
    imagefile_id BIGINT NOT NULL REFERENCES imagefiles(id) ON DELETE CASCADE,
    caption      TEXT NOT NULL DEFAULT '',
    is_top       BOOLEAN NOT NULL DEFAULT FALSE,
    ordering     INT NOT NULL DEFAULT 0,
    modified     TIMESTAMPTZ NOT NULL DEFAULT now()
)`, `
CREATE TABLE IF NOT EXISTS frontpage_stories (
    id                BIGSERIAL PRIMARY KEY,
    story_id          BIGINT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
    kicker            VARCHAR(200) NOT NULL DEFAULT '',
    headline          VARCHAR(200) NOT NULL,
    lede              VARCHAR(1000) NOT NULL DEFAULT '',
    imagefile_id      BIGINT REFERENCES imagefiles(id) ON DELETE SET NULL,
    horizontal_centre INT NOT NULL DEFAULT 50,
    vertical_centre   INT NOT NULL DEFAULT 50,
    created           TIMESTAMPTZ NOT NULL DEFAULT now(),
    modified          TIMESTAMPTZ NOT NULL DEFAULT now()
)`, `
CREATE TABLE IF NOT EXISTS contentblocks (
    id                 BIGSERIAL PRIMARY KEY,
    frontpage_story_id BIGINT NOT NULL REFERENCES frontpage_stories(id) ON DELETE CASCADE,
    frontpage          VARCHAR(50) NOT NULL DEFAULT 'main',
    publication_date   TIMESTAMPTZ NOT NULL DEFAULT now(),
    position           INT NOT NULL DEFAULT 0,
    columns            INT NOT NULL DEFAULT 6,
    height             INT NOT NULL DEFAULT 1
)`}

// alterations bring tables created by earlier versions up to date.
var alterations = []string{
	`ALTER TABLE imagefiles ADD COLUMN IF NOT EXISTS source_file TEXT NOT NULL DEFAULT ''`,
	`DO $$
BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'contributors_profile_image_id_fkey') THEN
        UPDATE contributors SET profile_image_id = NULL
        WHERE profile_image_id IS NOT NULL
          AND profile_image_id NOT IN (SELECT id FROM imagefiles);
        ALTER TABLE contributors
            ADD CONSTRAINT contributors_profile_image_id_fkey
            FOREIGN KEY (profile_image_id) REFERENCES imagefiles(id) ON DELETE SET NULL;
    END IF;
END $$`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_stories_publication_date ON stories(publication_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_stories_hot_count ON stories(hot_count) WHERE hot_count >= 1`,
	`CREATE INDEX IF NOT EXISTS idx_bylines_story_id ON bylines(story_id)`,
	`CREATE INDEX IF NOT EXISTS idx_imagefiles_created ON imagefiles(created DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_imagefiles_pending ON imagefiles(id) WHERE cropping_method = 1`,
	`CREATE INDEX IF NOT EXISTS idx_imagefiles_md5 ON imagefiles((stat->>'md5'))`,
	`CREATE INDEX IF NOT EXISTS idx_imagefiles_source_file ON imagefiles(source_file text_pattern_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_story_images_imagefile_id ON story_images(imagefile_id)`,
	`CREATE INDEX IF NOT EXISTS idx_contentblocks_frontpage ON contentblocks(frontpage, position DESC)`,
}

// Trigram and full text indexes need pg_trgm, which may require a superuser.
// The service still works without them, only slower.
var searchIndexes = []string{
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	`CREATE INDEX IF NOT EXISTS idx_imagefiles_imagehash_trgm ON imagefiles USING gin(imagehash gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_imagefiles_stem_trgm ON imagefiles USING gin(stem gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_contributors_name_trgm ON contributors USING gin(display_name gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_frontpage_stories_headline_trgm ON frontpage_stories USING gin(headline gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_stories_search_vector ON stories USING gin(search_vector)`,
}

// MigrateUp creates the newsroom schema. Every statement is idempotent, so
// it runs on each start of the api binary.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	for _, stmt := range tables {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("MigrateUp: %w", err)
		}
	}
	for _, stmt := range alterations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("MigrateUp: %w", err)
		}
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("MigrateUp: %w", err)
		}
	}
	for _, stmt := range searchIndexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			slog.Warn("optional search index not created", slog.Any("error", err))
		}
	}
	return nil
}

// MigrateDown drops every table created by MigrateUp. All data is lost.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{
		"contentblocks", "frontpage_stories", "story_images", "imagefiles",
		"bylines", "stories", "print_issues", "contributors",
	} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("MigrateDown: %w", err)
		}
	}
	return nil
}
