package main

import (
	"context"
	"fmt"

	"trackrip/internal/api"
	"trackrip/internal/config"
	"trackrip/internal/jobfile"
	"trackrip/internal/jobstore"
)

// commandContext shares lazily loaded configuration between subcommands.
type commandContext struct {
	configFlag *string

	cfg          *config.Config
	resolvedPath string
	configExists bool
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.resolvedPath = resolved
	c.configExists = exists
	return cfg, nil
}

func (c *commandContext) client() (*daemonClient, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return newDaemonClient(cfg.API.Bind), nil
}

// statusService reads the job state directory directly, so status and list
// keep working when no daemon is running.
func (c *commandContext) statusService() (*api.StatusService, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	adapter, err := jobfile.NewAdapter(cfg.JobDir())
	if err != nil {
		return nil, err
	}
	store, err := jobstore.New(adapter)
	if err != nil {
		return nil, err
	}
	return api.NewStatusService(store), nil
}

// localDescribe serves a status query from the state directory.
func (c *commandContext) localDescribe(ctx context.Context, id string) (api.JobView, error) {
	svc, err := c.statusService()
	if err != nil {
		return api.JobView{}, err
	}
	view, err := svc.Describe(ctx, id)
	if err != nil {
		return api.JobView{}, err
	}
	if view == nil {
		return api.JobView{}, fmt.Errorf("job %s not found", id)
	}
	return *view, nil
}

// localList serves a job listing from the state directory.
func (c *commandContext) localList(ctx context.Context) ([]api.JobView, error) {
	svc, err := c.statusService()
	if err != nil {
		return nil, err
	}
	return svc.List(ctx)
}
