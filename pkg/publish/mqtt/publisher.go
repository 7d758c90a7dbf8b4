package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/robotalks/chimu.go/pkg/chimu"
	"github.com/robotalks/chimu.go/pkg/publish"
)

// DefaultTimeout is the default time to wait for a broker acknowledgement.
const DefaultTimeout = 5 * time.Second

// MetaTopic is the retained topic carrying NodeMeta as JSON. It is cleared
// by the broker (will) or by the publisher when the node goes away.
const MetaTopic = "meta"

// ErrTimeout indicates the broker did not acknowledge in time.
var ErrTimeout = errors.New("mqtt timeout")

// Publisher implements publish.Publisher over MQTT.
// Updates go to <prefix><type>/<id>/<message>, e.g. chimu/imu0/attitude.
type Publisher struct {
	Queue   *Queue
	Info    publish.NodeInfo
	Codec   publish.Codec
	QoS     byte
	Timeout time.Duration

	metaJSON []byte
}

// NewPublisher creates a Publisher.
func NewPublisher(brokerURL string, info publish.NodeInfo, codec publish.Codec) (*Publisher, error) {
	if !info.Ref.IsValid() {
		return nil, errors.New("invalid node ref")
	}
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+info.Ref.Name()+"/"+MetaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("chimu:" + info.Ref.Name())
	}
	if codec == nil {
		codec = publish.DefaultCodec
	}
	p := &Publisher{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		Codec:    codec,
		Timeout:  DefaultTimeout,
		metaJSON: meta,
	}
	p.Queue.OnConnect = func(*Queue) { p.onConnected() }
	return p, nil
}

// Name implements framework.Named.
func (p *Publisher) Name() string {
	return "mqtt"
}

// Topic returns the topic (relative to queue prefix) of a message kind.
func (p *Publisher) Topic(kind string) string {
	return p.Info.Ref.Name() + "/" + kind
}

// Publish implements publish.Publisher.
func (p *Publisher) Publish(ctx context.Context, u *chimu.Update) error {
	return p.pub(ctx, publish.Topic(u), u)
}

// PublishHealth implements publish.HealthPublisher.
func (p *Publisher) PublishHealth(ctx context.Context, h *publish.Health) error {
	return p.pub(ctx, publish.HealthTopic, h)
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.wait(p.Queue.Connect()); err != nil {
		return err
	}
	<-ctx.Done()
	p.Queue.PubWith(p.Topic(MetaTopic), nil, 1, true).WaitTimeout(p.Timeout)
	return p.Queue.Close()
}

func (p *Publisher) pub(ctx context.Context, kind string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := p.Codec.Marshal(v)
	if err != nil {
		return err
	}
	return p.wait(p.Queue.PubWith(p.Topic(kind), data, p.QoS, false))
}

func (p *Publisher) wait(token paho.Token) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if !token.WaitTimeout(timeout) {
		return ErrTimeout
	}
	return token.Error()
}

func (p *Publisher) onConnected() {
	p.Queue.PubWith(p.Topic(MetaTopic), p.metaJSON, 1, true)
}
