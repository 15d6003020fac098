package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/document-extraction/internal/core/domain"
	"github.com/kirillkom/document-extraction/internal/infrastructure/resilience"
)

const queueGroup = "extractors"

// Queue carries pipeline triggers over two subjects: one for new-document
// events published by the upload flow, one for completion notifications
// published by the OCR engine. The trigger source tag comes from the subject
// a message arrived on, never from the payload shape.
type Queue struct {
	conn               *nats.Conn
	documentsSubject   string
	completionsSubject string
	executor           *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, documentsSubject, completionsSubject string) (*Queue, error) {
	return NewWithOptions(url, documentsSubject, completionsSubject, Options{})
}

func NewWithOptions(url, documentsSubject, completionsSubject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("document-extraction"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected: %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:               conn,
		documentsSubject:   documentsSubject,
		completionsSubject: completionsSubject,
		executor:           options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishDocumentCreated(ctx context.Context, trigger domain.NewDocumentTrigger) error {
	payload, err := json.Marshal(trigger)
	if err != nil {
		return fmt.Errorf("marshal new-document trigger: %w", err)
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.documentsSubject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

func (q *Queue) SubscribeTriggers(ctx context.Context, handler func(context.Context, domain.TriggerRecord) error) error {
	docSub, err := q.conn.QueueSubscribe(q.documentsSubject, queueGroup, func(msg *nats.Msg) {
		q.handleMessage(ctx, msg, domain.SourceQueue, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", q.documentsSubject, err)
	}

	completionSub, err := q.conn.QueueSubscribe(q.completionsSubject, queueGroup, func(msg *nats.Msg) {
		q.handleMessage(ctx, msg, domain.SourceNotification, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", q.completionsSubject, err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	for _, sub := range []*nats.Subscription{docSub, completionSub} {
		if err := sub.Drain(); err != nil {
			return fmt.Errorf("nats drain subscription: %w", err)
		}
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (q *Queue) handleMessage(
	ctx context.Context,
	msg *nats.Msg,
	source domain.TriggerSource,
	handler func(context.Context, domain.TriggerRecord) error,
) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return
	}

	record, err := decodeTrigger(source, msg.Data)
	if err != nil {
		log.Printf("drop malformed trigger on %s: %v", msg.Subject, err)
		return
	}

	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := handler(handlerCtx, record); err != nil {
		log.Printf("trigger handler error for item=%s: %v", record.ItemID(), err)
	}
}

func decodeTrigger(source domain.TriggerSource, data []byte) (domain.TriggerRecord, error) {
	switch source {
	case domain.SourceQueue:
		var trigger domain.NewDocumentTrigger
		if err := json.Unmarshal(data, &trigger); err != nil {
			return domain.TriggerRecord{}, fmt.Errorf("decode new-document trigger: %w", err)
		}
		return domain.TriggerRecord{Source: source, NewDocument: &trigger}, nil
	case domain.SourceNotification:
		var trigger domain.JobCompletionTrigger
		if err := json.Unmarshal(data, &trigger); err != nil {
			return domain.TriggerRecord{}, fmt.Errorf("decode job-completion trigger: %w", err)
		}
		return domain.TriggerRecord{Source: source, JobCompletion: &trigger}, nil
	default:
		return domain.TriggerRecord{}, fmt.Errorf("unknown trigger source %q", source)
	}
}
