package queue

import (
    "encoding/json"
    "time"

    "github.com/google/uuid"
    "github.com/pkg/errors"
    "github.com/streadway/amqp"

    "github.com/callforge/dialer-backend/internal/model"
)

// DialJob is the per-target instruction handed to the telephony worker.
type DialJob struct {
    BatchID     uuid.UUID `json:"batch_id"`
    TargetID    int       `json:"target_id"`
    CampaignID  int       `json:"campaign_id"`
    PhoneNumber string    `json:"phone_number"`
    ContactName string    `json:"contact_name"`
    Attempt     int       `json:"attempt"`
    Script      string    `json:"script,omitempty"`
    IsTest      bool      `json:"is_test,omitempty"`
    EnqueuedAt  time.Time `json:"enqueued_at"`
}

// Publisher hands dispatch batches to the telephony collaborator. The
// engine holds no reference to a batch once it is published.
type Publisher interface {
    PublishBatch(batch *model.DispatchBatch) error
    PublishTestDial(job DialJob) error
}

// AMQPPublisher publishes dial jobs to a durable RabbitMQ queue.
type AMQPPublisher struct {
    channel   *amqp.Channel
    queueName string
}

func NewAMQPPublisher(conn *amqp.Connection, queueName string) (*AMQPPublisher, error) {
    ch, err := conn.Channel()
    if err != nil {
        return nil, errors.Wrap(err, "open queue channel")
    }

    _, err = ch.QueueDeclare(
        queueName,
        true,  // durable
        false, // delete when unused
        false, // exclusive
        false, // no-wait
        nil,   // arguments
    )
    if err != nil {
        return nil, errors.Wrap(err, "declare queue")
    }

    return &AMQPPublisher{channel: ch, queueName: queueName}, nil
}

func (p *AMQPPublisher) PublishBatch(batch *model.DispatchBatch) error {
    for _, t := range batch.Targets {
        job := DialJob{
            BatchID:     batch.ID,
            TargetID:    t.ID,
            CampaignID:  batch.CampaignID,
            PhoneNumber: t.PhoneNumber,
            ContactName: t.ContactName,
            Attempt:     t.AttemptCount,
            Script:      batch.Script,
            EnqueuedAt:  batch.ClaimedAt,
        }
        if err := p.publish(job); err != nil {
            return err
        }
    }
    return nil
}

func (p *AMQPPublisher) PublishTestDial(job DialJob) error {
    job.IsTest = true
    if job.EnqueuedAt.IsZero() {
        job.EnqueuedAt = time.Now()
    }
    return p.publish(job)
}

func (p *AMQPPublisher) publish(job DialJob) error {
    body, err := json.Marshal(job)
    if err != nil {
        return errors.Wrap(err, "marshal dial job")
    }

    err = p.channel.Publish(
        "",
        p.queueName,
        false,
        false,
        amqp.Publishing{
            ContentType: "application/json",
            Body:        body,
        },
    )
    return errors.Wrap(err, "publish dial job")
}

func (p *AMQPPublisher) Close() error {
    return p.channel.Close()
}

var _ Publisher = (*AMQPPublisher)(nil)
