package action

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayusman/facesnap/internal/plugin"
)

// PluginLookup finds a plugin that handles an action.
type PluginLookup interface {
	Lookup(name, action string) (*plugin.Plugin, error)
}

// PluginAction runs an external plugin for each notification.
type PluginAction struct {
	plugins  PluginLookup
	executor *plugin.Executor
	plugin   string
	action   string
	config   json.RawMessage
}

// NewPluginAction creates an action that runs the named plugin's action.
func NewPluginAction(plugins PluginLookup, executor *plugin.Executor, name, action string, config json.RawMessage) *PluginAction {
	return &PluginAction{
		plugins:  plugins,
		executor: executor,
		plugin:   name,
		action:   action,
		config:   config,
	}
}

func (a *PluginAction) Name() string { return "plugin:" + a.plugin }

func (a *PluginAction) Handle(ctx context.Context, ev *Event) error {
	p, err := a.plugins.Lookup(a.plugin, a.action)
	if err != nil {
		return err
	}

	resp, err := a.executor.Execute(ctx, p, &plugin.Request{
		Action:    a.action,
		Subject:   ev.Subject.String(),
		Streak:    ev.Streak,
		Session:   ev.SessionID,
		PhotoPath: ev.PhotoPath,
		Config:    a.config,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin reported failure: %s", resp.Error)
	}
	return nil
}
