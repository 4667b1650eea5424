package workflows_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/astro-otter/otterweb/internal/adapters/memory"
	"github.com/astro-otter/otterweb/internal/core/domain"
	"github.com/astro-otter/otterweb/internal/core/usecases"
	"github.com/astro-otter/otterweb/internal/workflows"
)

const twoRecords = `[
  {"name": {"default_name": "ASASSN-14li"},
   "coordinate": {"equitorial": [{"ra": "12:48:15.226", "dec": "+17:46:26.44"}]}},
  {"name": {"default_name": "nocoords"}, "coordinate": {"equitorial": []}}
]`

const oneRecord = `{"name": {"default_name": "AT2018hyz"},
  "coordinate": {"equitorial": [{"ra": "10:06:50.871", "dec": "+01:41:34.08"}]}}`

type recordingPublisher struct {
	events []*domain.CatalogEvent
	err    error
}

func (p *recordingPublisher) PublishCatalogEvent(ctx context.Context, e *domain.CatalogEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func writeFiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(twoRecords), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(oneRecord), 0o644))
	return dir
}

func runIngest(t *testing.T, store *memory.Store, pub *recordingPublisher, input workflows.IngestInput) (*workflows.IngestOutput, error) {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.IngestWorkflow)
	env.RegisterActivity(&workflows.IngestActivities{Ingest: usecases.NewIngestService(store, pub)})

	env.ExecuteWorkflow(workflows.IngestWorkflow, input)
	require.True(t, env.IsWorkflowCompleted())
	if err := env.GetWorkflowError(); err != nil {
		return nil, err
	}
	var out workflows.IngestOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	return &out, nil
}

func TestIngestWorkflow(t *testing.T) {
	store := memory.New()
	pub := &recordingPublisher{}

	out, err := runIngest(t, store, pub, workflows.IngestInput{Paths: []string{writeFiles(t)}, Source: "test"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Files)
	assert.Equal(t, 2, out.Upserted)
	require.Len(t, out.Rejected, 1)
	assert.Equal(t, "nocoords", out.Rejected[0].Name)
	assert.NotEmpty(t, out.BatchID)

	all, _ := store.All(context.Background())
	assert.Len(t, all, 2)

	require.Len(t, pub.events, 1)
	assert.Equal(t, out.BatchID, pub.events[0].ID)
	assert.Equal(t, "test", pub.events[0].Source)
	assert.ElementsMatch(t, []string{"ASASSN-14li", "AT2018hyz"}, pub.events[0].Names)
}

func TestIngestWorkflow_PublishFailureIsNotFatal(t *testing.T) {
	store := memory.New()
	pub := &recordingPublisher{err: errors.New("nats down")}

	out, err := runIngest(t, store, pub, workflows.IngestInput{Paths: []string{writeFiles(t)}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Upserted)
}

func TestIngestWorkflow_MissingPath(t *testing.T) {
	_, err := runIngest(t, memory.New(), &recordingPublisher{}, workflows.IngestInput{
		Paths: []string{filepath.Join(t.TempDir(), "missing")},
	})
	assert.Error(t, err)
}
