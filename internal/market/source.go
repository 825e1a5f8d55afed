package market

import "context"

// SubscribeOptions 控制订阅缓冲与连接回调。
type SubscribeOptions struct {
	Buffer       int
	OnConnect    func()
	OnDisconnect func(error)
}

// SourceStats 汇总一个行情源的连接质量。
type SourceStats struct {
	Reconnects      int    `json:"reconnects"`
	SubscribeErrors int    `json:"subscribe_errors"`
	LastError       string `json:"last_error,omitempty"`
}

// Source 是行情边界：历史拉取 + 实时订阅。
// 实现负责重连与解码，核心只消费顺序化的 CandleEvent。
type Source interface {
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)

	Subscribe(ctx context.Context, symbol, interval string, opts SubscribeOptions) (<-chan CandleEvent, error)

	Stats() SourceStats

	Close() error
}
