// Package pubsub wraps the libp2p publish/subscribe transport. The
// inspector only subscribes; every received message is handed to a
// per-topic handler.
package pubsub

import (
	"context"
	"sync"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config configures the pub/sub engine.
type Config struct {
	// MaxMessageSize caps the raw message size accepted from the wire.
	MaxMessageSize int
	// Sign enables envelope signing and strict signature verification.
	Sign bool
	// FloodSub and GossipSub select the routing engine. Both are
	// accepted for compatibility, but the engine currently always runs
	// gossipsub.
	FloodSub  bool
	GossipSub bool
}

// MessageHandler receives every message delivered on a subscribed
// topic, in transport delivery order.
type MessageHandler func(ctx context.Context, topic string, data []byte, from peer.ID)

// Engine owns the pubsub instance and the joined topics.
type Engine struct {
	log    logrus.FieldLogger
	host   host.Host
	pubsub *pubsub.PubSub

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
	subs   map[string]*pubsub.Subscription
}

// NewEngine creates and starts the pub/sub engine on the given host.
func NewEngine(ctx context.Context, log logrus.FieldLogger, h host.Host, config *Config) (*Engine, error) {
	options := []pubsub.Option{
		pubsub.WithMaxMessageSize(config.MaxMessageSize),
	}

	if config.Sign {
		options = append(options,
			pubsub.WithMessageSignaturePolicy(pubsub.StrictSign),
		)
	} else {
		options = append(options,
			pubsub.WithMessageSignaturePolicy(pubsub.StrictNoSign),
		)
	}

	ps, err := pubsub.NewGossipSub(ctx, h, options...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gossipsub")
	}

	return &Engine{
		log:    log.WithField("module", "pubsub"),
		host:   h,
		pubsub: ps,
		topics: make(map[string]*pubsub.Topic),
		subs:   make(map[string]*pubsub.Subscription),
	}, nil
}

// Subscribe joins a topic and starts a reader goroutine feeding the
// handler. Subscribing twice to the same topic is an error.
func (e *Engine) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.subs[topic]; exists {
		return errors.Errorf("already subscribed to topic %s", topic)
	}

	topicHandle, err := e.pubsub.Join(topic)
	if err != nil {
		return errors.Wrapf(err, "failed to join topic %s", topic)
	}

	sub, err := topicHandle.Subscribe()
	if err != nil {
		return errors.Wrapf(err, "failed to subscribe to topic %s", topic)
	}

	e.topics[topic] = topicHandle
	e.subs[topic] = sub

	go e.readLoop(ctx, topic, sub, handler)

	e.log.WithField("topic", topic).Info("Subscribed to topic")

	return nil
}

// Topics returns the currently subscribed topic names.
func (e *Engine) Topics() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.subs))
	for topic := range e.subs {
		names = append(names, topic)
	}

	return names
}

// Close cancels every subscription and leaves every topic.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, sub := range e.subs {
		sub.Cancel()
	}

	for name, topicHandle := range e.topics {
		if err := topicHandle.Close(); err != nil {
			e.log.WithError(err).WithField("topic", name).Warn("Failed to close topic")
		}
	}

	e.subs = make(map[string]*pubsub.Subscription)
	e.topics = make(map[string]*pubsub.Topic)

	return nil
}

func (e *Engine) readLoop(ctx context.Context, topic string, sub *pubsub.Subscription, handler MessageHandler) {
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				e.log.WithError(err).WithField("topic", topic).Debug("Subscription reader stopped")
			}

			return
		}

		// Under StrictNoSign messages carry no author field, so the
		// observed overlay sender is the only identity available.
		handler(ctx, topic, msg.Data, msg.ReceivedFrom)
	}
}
