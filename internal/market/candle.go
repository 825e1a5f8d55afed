package market

// Candle 表示一根固定周期的 K 线。收盘后不再变化。
type Candle struct {
	OpenTime int64   `json:"open_time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// CandleUpdate 是一次行情推送：一根 K 线加上是否已收盘。
// 未收盘时同一 OpenTime 会被反复整体覆盖。
type CandleUpdate struct {
	Candle
	Closed bool `json:"closed"`
}

// CandleEvent 携带来源上下文的行情事件。
type CandleEvent struct {
	Symbol   string
	Interval string
	Update   CandleUpdate
}
