package collaborator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"mastery/internal/platform/kafka"
	"mastery/internal/platform/kafka/producer"
	id "mastery/pkg/domain"
	txcontext "mastery/pkg/platform/tx"
)

// Payout is one committed reward.
type Payout struct {
	Contract id.Principal
	User     id.Principal
	Amount   int64
}

// RewardPool is an in-memory reward collaborator.
type RewardPool struct {
	mu      sync.Mutex
	payouts []Payout
	failure error
}

func NewRewardPool() *RewardPool {
	return &RewardPool{}
}

// FailWith makes every later payout fail with err; nil restores success.
func (p *RewardPool) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failure = err
}

func (p *RewardPool) Payout(ctx context.Context, contract, user id.Principal, amount int64) error {
	p.mu.Lock()
	failure := p.failure
	p.mu.Unlock()
	if failure != nil {
		return failure
	}
	txcontext.AfterCommit(ctx, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.payouts = append(p.payouts, Payout{Contract: contract, User: user, Amount: amount})
	})
	return nil
}

// Payouts returns the committed payouts in order.
func (p *RewardPool) Payouts() []Payout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Payout(nil), p.payouts...)
}

// payoutInstruction is the wire form of a payout on the rewards topic.
type payoutInstruction struct {
	Contract string `json:"contract"`
	User     string `json:"user"`
	Amount   int64  `json:"amount"`
}

// KafkaRewardPayer hands payouts to an external reward service through Kafka.
// Instructions are enqueued only after the ledger transaction commits.
type KafkaRewardPayer struct {
	producer producer.Publisher
	logger   *slog.Logger
	topic    string
}

func NewKafkaRewardPayer(p producer.Publisher, logger *slog.Logger) *KafkaRewardPayer {
	return &KafkaRewardPayer{producer: p, logger: logger, topic: kafka.TopicRewardPayouts}
}

func (k *KafkaRewardPayer) Payout(ctx context.Context, contract, user id.Principal, amount int64) error {
	value, err := json.Marshal(payoutInstruction{Contract: contract.Wire(), User: string(user), Amount: amount})
	if err != nil {
		return fmt.Errorf("encode payout: %w", err)
	}
	msg := &producer.Message{
		Topic:   k.topic,
		Key:     []byte(user),
		Value:   value,
		Headers: map[string]string{"contract": contract.Wire()},
	}
	txcontext.AfterCommit(ctx, func() {
		if err := k.producer.ProduceAsync(msg); err != nil && k.logger != nil {
			k.logger.Error("failed to enqueue reward payout",
				"user", string(user),
				"amount", amount,
				"error", err,
			)
		}
	})
	return nil
}
