// Package messagequeue defines the subjects, payloads and queue interface
// used to hand background requests and publication events between
// processes.
package messagequeue

import "context"

const (
	SubjectRequestSubmitted  = "requests.submitted"
	SubjectJobCompleted      = "jobs.completed"
	SubjectResponsePublished = "responses.published"
	SubjectResponseWithheld  = "responses.withheld"
)

// StreamSubjects are the wildcards a JetStream stream must capture.
var StreamSubjects = []string{"requests.>", "jobs.>", "responses.>"}

// Handler consumes one message. A returned error asks for redelivery;
// ctx carries the publisher's request ID when there was one.
type Handler func(ctx context.Context, subject string, data []byte) error

// Publisher sends messages.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Subscriber delivers messages on a subject to a Handler until the
// returned cancel function is called.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)
}

// Queue is a connection that both publishes and subscribes.
type Queue interface {
	Publisher
	Subscriber

	// Drain lets in-flight handlers finish, then closes the connection.
	Drain() error
	Close() error
	IsConnected() bool
}
