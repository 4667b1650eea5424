package memory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astro-otter/otterweb/internal/adapters/memory"
	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/pkg/otterschema"
)

const fixture = `[
  {"name": {"default_name": "ASASSN-14li", "alias": [{"value": "PGC 043234"}]},
   "coordinate": {"equitorial": [{"ra": "12:48:15.226", "dec": "+17:46:26.44", "default": true}]},
   "distance": {"redshift": [{"value": "0.0206"}]},
   "photometry": [{"raw": [16.1], "date": [56990.1], "filter": "V", "obs_type": "uvoir"}]},
  {"name": {"default_name": "AT2018hyz"},
   "coordinate": {"equitorial": [{"ra": "10:06:50.871", "dec": "+01:41:34.08"}]},
   "distance": {"redshift": [{"value": 0.0457}]}}
]`

const single = `{"name": {"default_name": "noz"}, "coordinate": {"equitorial": [{"ra": "01:00:00", "dec": "-30:00:00"}]}}`

const invalid = `{"name": {"default_name": "broken"}, "coordinate": {"equitorial": []}}`

func writeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(fixture), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.json"), []byte(single), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.json"), []byte(invalid), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	return dir
}

func TestLoadDir(t *testing.T) {
	s, err := memory.LoadDir(context.Background(), writeDir(t))
	require.NoError(t, err)

	all, err := s.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ASASSN-14li", all[0].Name.DefaultName)
	assert.Equal(t, "AT2018hyz", all[1].Name.DefaultName)
	assert.Equal(t, "noz", all[2].Name.DefaultName)
	assert.NotNil(t, all[0].UpdatedAt)
}

func TestLoadDir_BadJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.json"), []byte("{nope"), 0o644))
	_, err := memory.LoadDir(context.Background(), dir)
	assert.Error(t, err)
}

func TestStore_GetByName(t *testing.T) {
	s, err := memory.LoadDir(context.Background(), writeDir(t))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := s.GetByName(ctx, "at2018HYZ")
	require.NoError(t, err)
	assert.Equal(t, "AT2018hyz", got.Name.DefaultName)

	got, err = s.GetByName(ctx, "PGC 043234")
	require.NoError(t, err)
	assert.Equal(t, "ASASSN-14li", got.Name.DefaultName)

	_, err = s.GetByName(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Query(t *testing.T) {
	s, err := memory.LoadDir(context.Background(), writeDir(t))
	require.NoError(t, err)
	ctx := context.Background()

	minZ := 0.03
	res, err := s.Query(ctx, domain.Query{MinZ: &minZ})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "AT2018hyz", res[0].Name.DefaultName)

	res, err = s.Query(ctx, domain.Query{HasPhot: true})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "ASASSN-14li", res[0].Name.DefaultName)
}

func TestStore_Stats(t *testing.T) {
	s, err := memory.LoadDir(context.Background(), writeDir(t))
	require.NoError(t, err)

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.WithRedshift)
	assert.Equal(t, 1, st.WithPhotometry)
	assert.Equal(t, 0, st.WithSpectra)
	assert.NotNil(t, st.LastUpdated)
}

func TestStore_UpsertReplaces(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	rec := domain.TDE{Name: domain.Name{DefaultName: "X"}}
	require.NoError(t, s.UpsertBatch(ctx, []domain.TDE{rec, rec}))

	all, _ := s.All(ctx)
	assert.Len(t, all, 1)

	err := s.UpsertBatch(ctx, []domain.TDE{{}})
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)
}

func TestCollectFiles(t *testing.T) {
	dir := writeDir(t)

	files, err := memory.CollectFiles(dir, filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "c.json"),
		filepath.Join(dir, "sub", "b.json"),
	}, files)

	_, err = memory.CollectFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestReadFile_SchemaViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "ASASSN-14li"}`), 0o644))

	_, err := memory.ReadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, otterschema.ErrInvalidDocument)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestReadFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	tdes, err := memory.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, tdes)
}
