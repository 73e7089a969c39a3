package dump

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/book-meta-pipe-go/pkg/catalog"
)

func sampleAuthors() []catalog.Author {
	return []catalog.Author{{
		Name:   "J.R.R. Tolkien",
		ID:     "656983.J_R_R_Tolkien",
		Stats:  catalog.AuthorStats{AvgRating: 4.35, Ratings: 10674789, Reviews: 160000, Shelvings: 20000000},
		Renown: catalog.Superstar,
		TopBooks: []catalog.Book{{
			Title:     "The Hobbit",
			ID:        "5907.The_Hobbit",
			AvgRating: 4.28,
			Ratings:   3779353,
			Renown:    catalog.Superstar,
		}},
	}}
}

func TestConfigDestination(t *testing.T) {
	now := time.Date(2023, time.October, 18, 12, 30, 45, 0, time.UTC)

	cfg := Config{OutputDir: "out", UseTimestamp: true, Prefix: "authors"}
	assert.Equal(t, filepath.Join("out", "authors_dump_20231018_123045.json"), cfg.destination(now))

	cfg = Config{OutputDir: "out"}
	assert.Equal(t, filepath.Join("out", "dump.json"), cfg.destination(now))

	cfg = Config{OutputDir: "out", Filename: "tolkien.json", Prefix: "ignored", UseTimestamp: true}
	assert.Equal(t, filepath.Join("out", "tolkien.json"), cfg.destination(now))
}

func TestWriteAndLoadAuthors(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{OutputDir: dir, Filename: "authors.json"}

	dest, err := WriteAuthors(cfg, sampleAuthors())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "authors.json"), dest)

	loaded, err := LoadAuthors(dest)
	require.NoError(t, err)
	assert.Equal(t, catalog.Provider, loaded.Provider)
	assert.WithinDuration(t, time.Now(), loaded.Timestamp, time.Minute)
	require.Len(t, loaded.Authors, 1)
	assert.Equal(t, "J.R.R. Tolkien", loaded.Authors[0].Name)
	require.Len(t, loaded.Authors[0].TopBooks, 1)
	assert.Equal(t, 3779353, loaded.Authors[0].TopBooks[0].Ratings)
	assert.Equal(t, catalog.Superstar, loaded.Authors[0].Renown)
}

func TestLoadAnchor(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{OutputDir: dir, Filename: "tolkien.json"}
	dest, err := WriteAuthors(cfg, sampleAuthors())
	require.NoError(t, err)

	anchor, err := LoadAnchor(dest)
	require.NoError(t, err)
	assert.Equal(t, 10674789, anchor.AuthorRatings)
	assert.Equal(t, 3779353, anchor.BookRatings)
}

func TestLoadAnchorFailures(t *testing.T) {
	_, err := LoadAnchor(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err, "アンカーの欠損は致命的")

	dir := t.TempDir()
	empty := sampleAuthors()
	empty[0].TopBooks = nil
	dest, err := WriteAuthors(Config{OutputDir: dir, Filename: "bad.json"}, empty)
	require.NoError(t, err)
	_, err = LoadAnchor(dest)
	assert.Error(t, err, "代表作のないアンカーは不正")
}
