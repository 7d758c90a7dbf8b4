package publish

import (
	"context"
	"time"

	"github.com/robotalks/chimu.go/pkg/chimu"
)

// Publisher delivers updates.
type Publisher interface {
	Publish(context.Context, *chimu.Update) error
}

// PublishFunc is func form of Publisher.
type PublishFunc func(context.Context, *chimu.Update) error

// Publish implements Publisher.
func (f PublishFunc) Publish(ctx context.Context, u *chimu.Update) error {
	return f(ctx, u)
}

// HealthPublisher is implemented by publishers which also report link health.
type HealthPublisher interface {
	PublishHealth(context.Context, *Health) error
}

// NodeRef identifies the publishing sensor node.
type NodeRef struct {
	// Type is the node type, e.g. "chimu".
	Type string `json:"type" yaml:"type"`
	// ID is unique ID of the node.
	ID string `json:"id" yaml:"id"`
}

// Name retrieves the name from ref.
func (r NodeRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates NodeRef is valid.
func (r NodeRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// NodeMeta provides metadata of a node.
type NodeMeta struct {
	Description string            `json:"description,omitempty" yaml:"description"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels"`
}

// NodeInfo provides information of a node.
type NodeInfo struct {
	Ref  NodeRef  `json:"ref"`
	Meta NodeMeta `json:"meta"`
}

// Health summarizes the state of a sensor link.
type Health struct {
	Time    time.Time         `json:"time"`
	Frames  uint64            `json:"frames"`
	Updates uint64            `json:"updates"`
	Faults  map[string]uint64 `json:"faults,omitempty"`
}

// NewHealth takes a snapshot of the stream counters.
func NewHealth(s *chimu.Stream, t time.Time) *Health {
	return &Health{
		Time:    t,
		Frames:  s.Frames(),
		Updates: s.Updates(),
		Faults:  s.Faults.Snapshot(),
	}
}

// HealthTopic is the topic suffix used for Health.
const HealthTopic = "health"

// Topic returns the topic suffix for an update, the message name.
func Topic(u *chimu.Update) string {
	return u.MsgID.String()
}
