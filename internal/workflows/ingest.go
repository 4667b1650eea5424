package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/astro-otter/otterweb/internal/core/usecases"
)

// IngestInput is the input for the ingest workflow.
type IngestInput struct {
	Paths  []string `json:"paths"`
	Source string   `json:"source"`
}

// IngestOutput summarises one workflow run.
type IngestOutput struct {
	BatchID  string               `json:"batch_id"`
	Files    int                  `json:"files"`
	Upserted int                  `json:"upserted"`
	Rejected []usecases.Rejection `json:"rejected,omitempty"`
}

// IngestWorkflow reads every file under the input paths, upserts the valid
// records file by file and publishes one catalog event for the whole run.
// The run ID serves as the batch ID so a retried publish is deduplicated.
func IngestWorkflow(ctx workflow.Context, input IngestInput) (*IngestOutput, error) {
	logger := workflow.GetLogger(ctx)
	info := workflow.GetInfo(ctx)
	out := &IngestOutput{BatchID: info.WorkflowExecution.RunID}
	logger.Info("Starting ingest workflow", "paths", len(input.Paths), "source", input.Source)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	var files []string
	if err := workflow.ExecuteActivity(ctx, "ListFiles", input.Paths).Get(ctx, &files); err != nil {
		return nil, err
	}
	out.Files = len(files)

	// Files are read in parallel; upserts follow as each read completes.
	reads := make([]workflow.Future, len(files))
	for i, f := range files {
		reads[i] = workflow.ExecuteActivity(ctx, "ReadRecords", f)
	}

	var names []string
	for i, fut := range reads {
		var res ReadResult
		if err := fut.Get(ctx, &res); err != nil {
			logger.Warn("file skipped", "file", files[i], "error", err)
			out.Rejected = append(out.Rejected, usecases.Rejection{Name: files[i], Reason: err.Error()})
			continue
		}
		out.Rejected = append(out.Rejected, res.Rejected...)
		if len(res.Records) == 0 {
			continue
		}

		var upserted []string
		if err := workflow.ExecuteActivity(ctx, "UpsertRecords", res.Records).Get(ctx, &upserted); err != nil {
			return out, err
		}
		names = append(names, upserted...)
	}
	out.Upserted = len(names)

	if len(names) > 0 {
		err := workflow.ExecuteActivity(ctx, "PublishUpdate", out.BatchID, input.Source, names).Get(ctx, nil)
		if err != nil {
			// Records are stored; the next event will refresh caches.
			logger.Warn("catalog event not published", "error", err)
		}
	}

	logger.Info("Ingest workflow complete", "files", out.Files, "upserted", out.Upserted, "rejected", len(out.Rejected))
	return out, nil
}
