package log

import (
	"errors"
	"fmt"

	"github.com/linchenxuan/sinklog/event"
)

// SubscribeReload makes the core re-apply its configuration whenever a
// payload is published on event.ReloadConfig. The payload is a *LogCfg or a
// YAML document as []byte. The topic is created when missing.
func (c *Core) SubscribeReload(p *event.Publisher) error {
	if err := p.NewTopic(event.ReloadConfig, 0); err != nil && !errors.Is(err, event.ErrTopicExists) {
		return err
	}
	return p.RegisterSubscriber(event.ReloadConfig, c.reload)
}

func (c *Core) reload(payload any) error {
	var cfg *LogCfg
	switch v := payload.(type) {
	case *LogCfg:
		cfg = v
	case LogCfg:
		cfg = &v
	case []byte:
		parsed, err := ParseCfg(v)
		if err != nil {
			return err
		}
		cfg = parsed
	default:
		return fmt.Errorf("%w: unexpected reload payload %T", ErrInvalidConfig, payload)
	}
	if cfg == nil {
		return fmt.Errorf("%w: nil reload payload", ErrInvalidConfig)
	}

	if err := c.Configure(cfg); err != nil {
		c.Error().Append("log config reload failed: ", err).End()
		return err
	}
	return nil
}
