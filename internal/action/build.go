package action

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/facesnap/internal/capture"
	"github.com/ayusman/facesnap/internal/config"
	"github.com/ayusman/facesnap/internal/plugin"
)

// Deps are the collaborators the configured actions need.
type Deps struct {
	Shutter  capture.Shutter
	Photos   *capture.PhotoWriter
	Captures CaptureStore
	Plugins  PluginLookup
	Executor *plugin.Executor
	MQTT     Publisher
}

// Build creates the action chain for cfg. The capture or log action comes
// first so that plugins and MQTT see the photo path.
func Build(cfg config.ActionConfig, deps Deps) (*Chain, error) {
	var actions []Action

	switch cfg.Kind {
	case config.ActionCapture:
		if deps.Shutter == nil || deps.Photos == nil {
			return nil, errors.New("capture action needs a shutter and a photo writer")
		}
		actions = append(actions, NewAutoCapture(deps.Shutter, deps.Photos, deps.Captures, cfg.Mute))
	case config.ActionLog:
		actions = append(actions, NewLogAction(nil))
	default:
		return nil, fmt.Errorf("unknown action kind %q", cfg.Kind)
	}

	for _, ref := range cfg.Plugins {
		if deps.Plugins == nil || deps.Executor == nil {
			return nil, fmt.Errorf("plugin %s configured without a plugin manager", ref.Name)
		}
		var raw json.RawMessage
		if len(ref.Config) > 0 {
			data, err := json.Marshal(ref.Config)
			if err != nil {
				return nil, fmt.Errorf("plugin %s config: %w", ref.Name, err)
			}
			raw = data
		}
		actions = append(actions, NewPluginAction(deps.Plugins, deps.Executor, ref.Name, ref.Action, raw))
	}

	if deps.MQTT != nil {
		actions = append(actions, NewMQTTAction(deps.MQTT, cfg.MQTT.Topic, cfg.MQTT.QoS))
	}

	return NewChain(actions...), nil
}
