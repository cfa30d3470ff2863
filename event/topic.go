package event

import "time"

// Topics published by the library.
const (
	// ReloadConfig carries a new *log.LogCfg to apply.
	ReloadConfig = "ReloadConfig"
)

// Subscriber handles one published payload.
type Subscriber func(payload any) error

// Topic subscription list for a single topic.
type Topic struct {
	timeout     time.Duration // Publish timeout, 0 waits for every subscriber.
	subscribers []Subscriber  // Subscription queue.
}
