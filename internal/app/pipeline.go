package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/credential"
	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/store"
	"github.com/devel-adr/medistream/internal/store/postgres"
	appsync "github.com/devel-adr/medistream/internal/sync"
	"github.com/devel-adr/medistream/internal/workflow"
)

// RegisterDatasets registers a poll loop for each of the three datasets,
// reading them through ds at the intervals of cfg.
func RegisterDatasets(p *appsync.Poller, ds store.DatasetStore, cfg model.PollConfig) {
	for _, kind := range model.Kinds() {
		kind := kind
		p.RegisterDataset(kind, func(ctx context.Context) ([]model.Record, error) {
			return store.ListRecords(ctx, ds, kind)
		}, cfg.Interval(kind))
	}
}

// NewWorkflowPoller builds the workflow status poller, or returns nil
// when no workflow is configured.
func NewWorkflowPoller(
	cfg model.WorkflowConfig,
	interval time.Duration,
	token string,
	log *zap.Logger,
) *workflow.Poller {
	if len(cfg.WorkflowIDs) == 0 || cfg.RelayURL == "" {
		return nil
	}

	client := workflow.NewClient(cfg.RelayURL, token)
	return workflow.NewPoller(client, cfg.WorkflowIDs, cfg.ExecutionLimit, interval, log.Named("workflow"))
}

// CredentialChecker returns the connection test of the Connections
// panel. A DSN is checked by opening a pool; a relay token by asking the
// relay configured in wf for one workflow.
func CredentialChecker(wf model.WorkflowConfig) func(ctx context.Context, key, value string) error {
	return func(ctx context.Context, key, value string) error {
		switch key {
		case credential.KeyBackendDSN:
			db, err := postgres.New(ctx, postgres.Config{URL: value, MaxConns: 1})
			if err != nil {
				return err
			}
			db.Close()
			return nil
		case credential.KeyRelayToken:
			if wf.RelayURL == "" {
				return fmt.Errorf("workflow.relay_url is not configured")
			}
			return workflow.NewClient(wf.RelayURL, value).TestConnection(ctx)
		}
		return fmt.Errorf("unknown credential %q", key)
	}
}
