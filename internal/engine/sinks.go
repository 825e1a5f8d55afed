package engine

import (
	"context"

	"finch/internal/broker"
	"finch/internal/gateway/notifier"
	"finch/internal/store/signallog"
)

// NotifierSink 把信号推到外部通知渠道。
type NotifierSink struct {
	Notifier notifier.Notifier
}

func (s NotifierSink) OnSignal(ctx context.Context, env Envelope) error {
	return s.Notifier.NotifySignal(ctx, env.Symbol, env.Interval, env.Strategy, env.Signal)
}

// JournalSink 把信号落进 SQLite 流水。
type JournalSink struct {
	Store *signallog.Store
}

func (s JournalSink) OnSignal(ctx context.Context, env Envelope) error {
	_, err := s.Store.Append(ctx, env.Symbol, env.Interval, env.Strategy, env.Signal, env.Params)
	return err
}

// BrokerSink 把信号喂给纸面账户。重复信号被账户忽略，不算错误。
type BrokerSink struct {
	Account *broker.PaperAccount
}

func (s BrokerSink) OnSignal(_ context.Context, env Envelope) error {
	s.Account.Apply(env.Signal)
	return nil
}
