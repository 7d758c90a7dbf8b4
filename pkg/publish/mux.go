package publish

import (
	"context"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/chimu.go/pkg/chimu"
	fx "github.com/robotalks/chimu.go/pkg/framework"
)

// Mux publishes to multiple Publishers.
type Mux struct {
	Publishers []Publisher
}

// Add adds more publishers.
func (m *Mux) Add(pubs ...Publisher) *Mux {
	m.Publishers = append(m.Publishers, pubs...)
	return m
}

// Len returns the number of publishers.
func (m *Mux) Len() int {
	return len(m.Publishers)
}

// Publish implements Publisher.
func (m *Mux) Publish(ctx context.Context, u *chimu.Update) error {
	var errs fx.AggregatedError
	for _, pub := range m.Publishers {
		errs.Add(pub.Publish(ctx, u))
	}
	return errs.Aggregate()
}

// PublishHealth implements HealthPublisher.
func (m *Mux) PublishHealth(ctx context.Context, h *Health) error {
	var errs fx.AggregatedError
	for _, pub := range m.Publishers {
		if hp, ok := pub.(HealthPublisher); ok {
			errs.Add(hp.PublishHealth(ctx, h))
		}
	}
	return errs.Aggregate()
}

// Close closes all publishers implementing io.Closer.
func (m *Mux) Close() error {
	var errs fx.AggregatedError
	for _, pub := range m.Publishers {
		if closer, ok := pub.(io.Closer); ok {
			errs.Add(closer.Close())
		}
	}
	return errs.Aggregate()
}

// Handler adapts a Publisher to a chimu.UpdateHandler. Publish errors are
// logged and the update dropped, the stream keeps going.
func Handler(pub Publisher) chimu.UpdateHandler {
	return chimu.HandleUpdateFunc(func(ctx context.Context, u *chimu.Update) {
		if err := pub.Publish(ctx, u); err != nil {
			glog.Errorf("publish %s error: %v", Topic(u), err)
		}
	})
}
