package market

import "context"

// Source 提供历史 K 线，最近的一根排在末尾。
// 返回空切片表示上游暂无数据，调用方按"历史不足"处理而非报错。
type Source interface {
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}
