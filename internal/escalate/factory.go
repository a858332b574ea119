package escalate

import "fmt"

// Config holds action layer configuration
type Config struct {
	Backends     []string
	SlackWebhook string
	WebhookURL   string
	MQTT         MQTTConfig

	// Local is the in-process action layer used by the "local" backend
	Local ActionLayer
}

// FromConfig creates an ActionLayer from configuration
func FromConfig(cfg Config) (ActionLayer, error) {
	var layers []ActionLayer

	for _, backend := range cfg.Backends {
		switch backend {
		case "local":
			if cfg.Local == nil {
				return nil, fmt.Errorf("local backend requires an in-process action layer")
			}
			layers = append(layers, cfg.Local)
		case "terminal":
			layers = append(layers, NewTerminal())
		case "slack":
			if cfg.SlackWebhook == "" {
				return nil, fmt.Errorf("slack backend requires webhook URL")
			}
			layers = append(layers, NewSlack(cfg.SlackWebhook))
		case "webhook":
			if cfg.WebhookURL == "" {
				return nil, fmt.Errorf("webhook backend requires URL")
			}
			layers = append(layers, NewWebhook(cfg.WebhookURL))
		case "mqtt":
			if cfg.MQTT.Broker == "" {
				return nil, fmt.Errorf("mqtt backend requires broker URL")
			}
			layers = append(layers, NewMQTT(cfg.MQTT))
		default:
			return nil, fmt.Errorf("unknown escalation backend: %s", backend)
		}
	}

	if len(layers) == 0 {
		return NewTerminal(), nil
	}

	if len(layers) == 1 {
		return layers[0], nil
	}

	return NewMulti(layers...), nil
}
