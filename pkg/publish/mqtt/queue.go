// Package mqtt publishes sensor updates to an MQTT broker.
package mqtt

import (
	"net/url"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// Handler is the callback when a message is received.
type Handler func(topic string, payload []byte)

// ConnectHandler is to handle connect/disconnect events.
type ConnectHandler func(*Queue)

// Queue wraps MQTT client. All topics are relative to TopicPrefix.
type Queue struct {
	Client       paho.Client
	TopicPrefix  string
	OnConnect    ConnectHandler
	OnDisconnect ConnectHandler

	lock    sync.RWMutex
	filters map[string][]Handler
}

// IsWildcard tells whether a topic filter contains wildcards.
func IsWildcard(filter string) bool {
	return strings.Contains(filter, "+") || strings.HasSuffix(filter, "#")
}

// MatchTopic matches topic with filter.
// "+" matches one level, a trailing "#" matches the parent level and
// everything below.
func MatchTopic(topic, filter string) bool {
	levels, patterns := strings.Split(topic, "/"), strings.Split(filter, "/")
	for i, pattern := range patterns {
		if pattern == "#" {
			return i+1 == len(patterns)
		}
		if i >= len(levels) {
			return false
		}
		if pattern != "+" && pattern != levels[i] {
			return false
		}
	}
	return len(levels) == len(patterns)
}

// ClientOptionsFromURL creates ClientOptions from URL.
// The path of the URL becomes the topic prefix, and query parameter
// client-id sets the client ID.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	server := u.Scheme
	if server == "" || server == "mqtt" {
		server = "tcp"
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")
	if topicPrefix != "" && !strings.HasSuffix(topicPrefix, "/") {
		topicPrefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}
	return opts, topicPrefix, nil
}

// NewQueue creates Queue.
func NewQueue(options *paho.ClientOptions, topicPrefix string) *Queue {
	q := &Queue{TopicPrefix: topicPrefix}
	options.SetOnConnectHandler(q.onConnect)
	options.SetConnectionLostHandler(q.onConnectionLost)
	q.Client = paho.NewClient(options)
	return q
}

// NewQueueFromURL creates Queue from URL.
func NewQueueFromURL(brokerURL string) (*Queue, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return NewQueue(opts, topicPrefix), nil
}

// Connect connects the client.
func (q *Queue) Connect() paho.Token {
	return q.Client.Connect()
}

// Close implements io.Closer.
func (q *Queue) Close() error {
	q.Client.Disconnect(250)
	return nil
}

// Sub subscribes a topic filter. Only the first handler of a filter
// subscribes with the broker.
func (q *Queue) Sub(filter string, handler Handler) paho.Token {
	q.lock.Lock()
	if q.filters == nil {
		q.filters = make(map[string][]Handler)
	}
	handlers := q.filters[filter]
	q.filters[filter] = append(handlers, handler)
	q.lock.Unlock()
	if len(handlers) > 0 {
		return &paho.DummyToken{}
	}
	glog.V(2).Infof("SUB %q", q.TopicPrefix+filter)
	return q.Client.Subscribe(q.TopicPrefix+filter, 0, q.dispatch)
}

// Unsub removes all handlers of a topic filter.
func (q *Queue) Unsub(filter string) paho.Token {
	q.lock.Lock()
	_, ok := q.filters[filter]
	delete(q.filters, filter)
	q.lock.Unlock()
	if !ok {
		return &paho.DummyToken{}
	}
	glog.V(2).Infof("UNSUB %q", q.TopicPrefix+filter)
	return q.Client.Unsubscribe(q.TopicPrefix + filter)
}

// Pub publishes to a topic.
func (q *Queue) Pub(topic string, payload []byte) paho.Token {
	return q.PubWith(topic, payload, 0, false)
}

// PubWith publishes with QoS and retain settings.
func (q *Queue) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	return q.Client.Publish(q.TopicPrefix+topic, qos, retain, payload)
}

func (q *Queue) resubscribe() paho.Token {
	filters := make(map[string]byte)
	q.lock.RLock()
	for filter := range q.filters {
		filters[q.TopicPrefix+filter] = 0
	}
	q.lock.RUnlock()
	if len(filters) == 0 {
		return &paho.DummyToken{}
	}
	return q.Client.SubscribeMultiple(filters, q.dispatch)
}

func (q *Queue) onConnect(paho.Client) {
	glog.Info("connected")
	q.resubscribe()
	if h := q.OnConnect; h != nil {
		h(q)
	}
}

func (q *Queue) onConnectionLost(c paho.Client, err error) {
	glog.Warningf("connection lost: %v", err)
	if h := q.OnDisconnect; h != nil {
		h(q)
	}
}

func (q *Queue) handlers(topic string) []Handler {
	q.lock.RLock()
	defer q.lock.RUnlock()
	var handlers []Handler
	for filter, hs := range q.filters {
		if filter == topic || (IsWildcard(filter) && MatchTopic(topic, filter)) {
			handlers = append(handlers, hs...)
		}
	}
	return handlers
}

func (q *Queue) dispatch(c paho.Client, msg paho.Message) {
	topic := msg.Topic()
	if !strings.HasPrefix(topic, q.TopicPrefix) {
		return
	}
	glog.V(3).Infof("RCV %q", topic)
	topic = topic[len(q.TopicPrefix):]
	payload := msg.Payload()
	for _, h := range q.handlers(topic) {
		h(topic, payload)
	}
}
