package persistence

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walfie-raid/petronel/internal/model"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "bosses.json"))
	require.NoError(t, err)

	now := time.Now().Truncate(time.Millisecond).UTC()
	boss := model.Boss{
		Name:       model.LangString{En: model.Intern("Lvl 60 Ozorotter"), Ja: model.Intern("Lv60 オオゾラッコ")},
		Image:      model.LangString{En: model.Intern("http://example.test/en.png")},
		Level:      60,
		HasLevel:   true,
		LastSeenAt: model.NewAtomicDateTime(now),
		ImageHash:  model.NewImageHash(123),
	}

	ctx := context.Background()
	require.NoError(t, store.SaveBosses(ctx, []model.Boss{boss}))

	got, err := store.GetBosses(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "Lvl 60 Ozorotter", got[0].Name.En.String())
	assert.Equal(t, "Lv60 オオゾラッコ", got[0].Name.Ja.String())
	assert.True(t, got[0].HasLevel)
	assert.EqualValues(t, 60, got[0].Level)
	assert.True(t, got[0].ImageHash.Valid)
	assert.EqualValues(t, 123, got[0].ImageHash.Hash)
	assert.True(t, got[0].LastSeenAt.Load().Equal(now))
}

func TestFileStoreGetBossesOnMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)

	got, err := store.GetBosses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewFileStoreRejectsEmptyPath(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
}

func TestFileStoreOmitsAbsentOptionalFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bosses.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	boss := model.Boss{
		Name:       model.LangString{En: model.Intern("No Level Boss")},
		LastSeenAt: model.NewAtomicDateTime(time.Now()),
	}
	require.NoError(t, store.SaveBosses(context.Background(), []model.Boss{boss}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, key := range []string{"level", "imageHash", "ja", "imageEn", "imageJa"} {
		_, present := decoded[0][key]
		assert.Falsef(t, present, "expected %q to be omitted, got %+v", key, decoded[0])
	}
}
