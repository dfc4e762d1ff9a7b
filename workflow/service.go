package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrValidation marks malformed request input; it is surfaced to the caller
// as a client error and never retried.
var ErrValidation = errors.New("workflow: invalid input")

// Deliverer sends the finished newsletter. Delivery happens after the run is
// persisted; failures are logged and never affect the stored state.
type Deliverer interface {
	Deliver(ctx context.Context, recipient, subject, body string) error
}

// LogDeliverer is the placeholder delivery backend: it only logs what would
// be sent.
type LogDeliverer struct{}

func (LogDeliverer) Deliver(_ context.Context, recipient, subject, body string) error {
	preview := body
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	log.Printf("would send email to %s, subject %q, body preview: %s", recipient, subject, preview)
	return nil
}

// Service is the request surface over the pipeline: validation, thread id
// derivation, synchronous and background execution, and checkpoint lookup.
type Service struct {
	pipeline   *Pipeline
	store      Store
	deliverer  Deliverer
	runTimeout time.Duration
}

type ServiceOption func(*Service)

func WithDeliverer(d Deliverer) ServiceOption {
	return func(s *Service) { s.deliverer = d }
}

func WithRunTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

func NewService(pipeline *Pipeline, store Store, opts ...ServiceOption) (*Service, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if store == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}
	s := &Service{
		pipeline:   pipeline,
		store:      store,
		runTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ThreadID derives the deterministic thread identifier for a topic and
// recipient, so re-invocations with the same inputs share a checkpoint key.
func ThreadID(topic, recipient string) string {
	topic = strings.TrimSpace(topic)
	return "newsletter_" + strings.ReplaceAll(topic, " ", "_") + "_" + strings.TrimSpace(recipient)
}

// ValidateInput applies the request-surface rules: topic must be non-empty
// and the recipient must look like an email address.
func ValidateInput(topic, recipient string) error {
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("%w: topic cannot be empty", ErrValidation)
	}
	recipient = strings.TrimSpace(recipient)
	at := strings.Index(recipient, "@")
	if at <= 0 || at == len(recipient)-1 {
		return fmt.Errorf("%w: recipient_email %q is not a valid email address", ErrValidation, recipient)
	}
	return nil
}

// Generate runs the full pipeline synchronously and returns the final state.
// Pipeline failures do not surface as errors: inspect the state's Status.
func (s *Service) Generate(ctx context.Context, topic, recipient string) (State, error) {
	if err := ValidateInput(topic, recipient); err != nil {
		return State{}, err
	}

	initial := NewState(ThreadID(topic, recipient), uuid.NewString(), strings.TrimSpace(topic), strings.TrimSpace(recipient), time.Now())
	final := s.pipeline.Run(ctx, initial)
	s.deliver(final)
	return final, nil
}

// Submit starts a background run and returns the thread id immediately. The
// caller observes completion by polling Fetch. The initial state is stored
// up front so a fetch between submit and completion sees status "starting".
func (s *Service) Submit(ctx context.Context, topic, recipient string) (string, error) {
	if err := ValidateInput(topic, recipient); err != nil {
		return "", err
	}

	initial := NewState(ThreadID(topic, recipient), uuid.NewString(), strings.TrimSpace(topic), strings.TrimSpace(recipient), time.Now())
	if err := s.store.Put(ctx, initial.ThreadID, initial); err != nil {
		return "", fmt.Errorf("failed to store initial state: %w", err)
	}

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()
		final := s.pipeline.Run(runCtx, initial)
		s.deliver(final)
	}()

	return initial.ThreadID, nil
}

// Fetch returns the latest stored state for a thread id, or ErrNotFound.
func (s *Service) Fetch(ctx context.Context, threadID string) (State, error) {
	if strings.TrimSpace(threadID) == "" {
		return State{}, fmt.Errorf("%w: thread id is required", ErrValidation)
	}
	return s.store.Get(ctx, threadID)
}

// StageNames exposes the pipeline shape for the visualization endpoint.
func (s *Service) StageNames() []string {
	return s.pipeline.StageNames()
}

func (s *Service) deliver(final State) {
	if s.deliverer == nil || final.Status != StatusNewsletterComplete {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.deliverer.Deliver(ctx, final.RecipientEmail, final.EmailSubject, final.EmailBody); err != nil {
			log.Printf("newsletter delivery to %s failed: %v", final.RecipientEmail, err)
		}
	}()
}
