package broker

import (
	"sync"

	"github.com/shopspring/decimal"

	"finch/internal/strategy"
)

// 纸面账户：按信号全仓买入/清仓卖出，只做记账，不做仓位管理。
// 余额用 decimal 计算，避免长回测里的浮点漂移。

// Trade 记录一次成交。
type Trade struct {
	Action    strategy.Action `json:"action"`
	Price     float64         `json:"price"`
	Quantity  float64         `json:"quantity"`
	Fee       float64         `json:"fee"`
	Timestamp int64           `json:"timestamp"`
	Reason    string          `json:"reason"`
}

// PaperAccount 是一个单币对模拟账户。
type PaperAccount struct {
	mu      sync.Mutex
	quote   decimal.Decimal
	base    decimal.Decimal
	feeRate decimal.Decimal
	initial decimal.Decimal
	trades  []Trade
}

// DefaultInitialBalance 对齐原型账户的起始资金。
const DefaultInitialBalance = 1000.0

// NewPaperAccount 构造初始计价余额为 initial、费率为 feeRate 的账户。
func NewPaperAccount(initial, feeRate float64) *PaperAccount {
	if initial <= 0 {
		initial = DefaultInitialBalance
	}
	if feeRate < 0 {
		feeRate = 0
	}
	d := decimal.NewFromFloat(initial)
	return &PaperAccount{
		quote:   d,
		initial: d,
		feeRate: decimal.NewFromFloat(feeRate),
	}
}

// Apply 执行一条信号。买入花光计价余额，卖出清空持仓；
// 无可用余额/持仓时忽略（重复信号不是错误）。返回是否成交。
func (a *PaperAccount) Apply(sig strategy.Signal) bool {
	if sig.Price <= 0 {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	price := decimal.NewFromFloat(sig.Price)
	switch sig.Action {
	case strategy.ActionBuy:
		if !a.quote.IsPositive() {
			return false
		}
		fee := a.quote.Mul(a.feeRate)
		spend := a.quote.Sub(fee)
		qty := spend.Div(price)
		a.base = a.base.Add(qty)
		a.quote = decimal.Zero
		a.record(sig, qty, fee)
		return true
	case strategy.ActionSell:
		if !a.base.IsPositive() {
			return false
		}
		proceeds := a.base.Mul(price)
		fee := proceeds.Mul(a.feeRate)
		qty := a.base
		a.quote = a.quote.Add(proceeds.Sub(fee))
		a.base = decimal.Zero
		a.record(sig, qty, fee)
		return true
	default:
		return false
	}
}

func (a *PaperAccount) record(sig strategy.Signal, qty, fee decimal.Decimal) {
	a.trades = append(a.trades, Trade{
		Action:    sig.Action,
		Price:     sig.Price,
		Quantity:  qty.InexactFloat64(),
		Fee:       fee.InexactFloat64(),
		Timestamp: sig.Timestamp,
		Reason:    sig.Reason,
	})
}

// Equity 返回以给定标记价格折算的总净值。
func (a *PaperAccount) Equity(markPrice float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quote.Add(a.base.Mul(decimal.NewFromFloat(markPrice))).InexactFloat64()
}

// QuoteBalance 返回计价货币余额。
func (a *PaperAccount) QuoteBalance() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quote.InexactFloat64()
}

// BaseBalance 返回持仓数量。
func (a *PaperAccount) BaseBalance() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.base.InexactFloat64()
}

// InitialBalance 返回起始资金。
func (a *PaperAccount) InitialBalance() float64 {
	return a.initial.InexactFloat64()
}

// Trades 返回成交记录拷贝。
func (a *PaperAccount) Trades() []Trade {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Trade, len(a.trades))
	copy(out, a.trades)
	return out
}
