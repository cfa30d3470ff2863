// Package event is a small in-process publish/subscribe hub used to push
// runtime changes, such as a new log configuration, to their consumers.
package event

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrTopicExists is returned when a topic is created twice.
	ErrTopicExists = errors.New("topic already created")
	// ErrTopicNotFound is returned for topics that were never created.
	ErrTopicNotFound = errors.New("topic not created")
	// ErrPublishTimeout is returned when subscribers outlive the topic timeout.
	ErrPublishTimeout = errors.New("publish timeout")
)

// Publisher includes multiple topics.
type Publisher struct {
	lock   sync.RWMutex
	topics map[string]*Topic
}

// NewPublisher creates a publisher without topics.
func NewPublisher() *Publisher {
	return &Publisher{
		topics: make(map[string]*Topic),
	}
}

// NewTopic must create a topic before you can initiate a subscription.
func (p *Publisher) NewTopic(topicName string, timeout time.Duration) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if _, ok := p.topics[topicName]; ok {
		return fmt.Errorf("%w: %s", ErrTopicExists, topicName)
	}
	p.topics[topicName] = &Topic{
		timeout:     timeout,
		subscribers: []Subscriber{},
	}
	return nil
}

// RegisterSubscriber registers a subscriber.
func (p *Publisher) RegisterSubscriber(topicName string, fn Subscriber) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	topic, ok := p.topics[topicName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTopicNotFound, topicName)
	}
	topic.subscribers = append(topic.subscribers, fn)
	return nil
}

// Publish hands payload to every subscriber of the topic concurrently and
// waits for them, up to the topic timeout. Subscriber errors are joined.
func (p *Publisher) Publish(topicName string, payload any) error {
	p.lock.RLock()
	topic, ok := p.topics[topicName]
	var subscribers []Subscriber
	if ok {
		subscribers = append(subscribers, topic.subscribers...)
	}
	p.lock.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTopicNotFound, topicName)
	}

	errs := make([]error, len(subscribers))
	var wg sync.WaitGroup
	for i, sub := range subscribers {
		i, sub := i, sub
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = sub(payload)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	if topic.timeout <= 0 {
		<-done
		return errors.Join(errs...)
	}

	timer := time.NewTimer(topic.timeout)
	defer timer.Stop()
	select {
	case <-done:
		return errors.Join(errs...)
	case <-timer.C:
		return fmt.Errorf("%w: %s after %v", ErrPublishTimeout, topicName, topic.timeout)
	}
}
