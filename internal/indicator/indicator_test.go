package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMA(t *testing.T) {
	t.Run("Averages Tail Window", func(t *testing.T) {
		series := []float64{1, 2, 3, 4, 5}
		assert.InDelta(t, 4.0, SMA(series, 3), 1e-9)
	})

	t.Run("Insufficient History Returns Zero", func(t *testing.T) {
		assert.Equal(t, 0.0, SMA([]float64{1, 2}, 3))
		assert.Equal(t, 0.0, SMA(nil, 3))
		assert.Equal(t, 0.0, SMA([]float64{1, 2, 3}, 0))
	})
}

func TestEMA(t *testing.T) {
	t.Run("Constant Series Yields Constant", func(t *testing.T) {
		series := []float64{7, 7, 7, 7, 7, 7}
		assert.InDelta(t, 7.0, EMA(series, 5), 1e-9)
	})

	t.Run("Seeded From Window Head", func(t *testing.T) {
		// 窗口 [1,2,3]，k=0.5：ema = 1 -> 1.5 -> 2.25
		series := []float64{9, 9, 1, 2, 3}
		assert.InDelta(t, 2.25, EMA(series, 3), 1e-9)
	})

	t.Run("Insufficient History Returns Zero", func(t *testing.T) {
		assert.Equal(t, 0.0, EMA([]float64{1, 2}, 3))
	})
}

func TestRSI(t *testing.T) {
	t.Run("All Gains Returns 100", func(t *testing.T) {
		series := []float64{1, 2, 3, 4, 5, 6}
		assert.Equal(t, 100.0, RSI(series, 5))
	})

	t.Run("Insufficient History Returns Neutral", func(t *testing.T) {
		// 需要 period+1 个收盘价。
		assert.Equal(t, 50.0, RSI([]float64{1, 2, 3}, 3))
	})

	t.Run("Balanced Moves Near 50", func(t *testing.T) {
		series := []float64{10, 11, 10, 11, 10}
		got := RSI(series, 4)
		assert.InDelta(t, 50.0, got, 1e-9)
	})

	t.Run("Always Bounded", func(t *testing.T) {
		series := []float64{5, 9, 2, 14, 3, 8, 8, 1, 20}
		got := RSI(series, 8)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	})
}

func TestATR(t *testing.T) {
	t.Run("Plain Range When No Gaps", func(t *testing.T) {
		highs := []float64{11, 12, 13}
		lows := []float64{9, 10, 11}
		closes := []float64{10, 11, 12}
		// 两根真实波幅均为 2。
		assert.InDelta(t, 2.0, ATR(highs, lows, closes, 2), 1e-9)
	})

	t.Run("Gap Widens True Range", func(t *testing.T) {
		highs := []float64{11, 20}
		lows := []float64{9, 18}
		closes := []float64{10, 19}
		// |high-prevClose| = 10 超过 high-low = 2。
		assert.InDelta(t, 10.0, ATR(highs, lows, closes, 1), 1e-9)
	})

	t.Run("Insufficient History Returns Zero", func(t *testing.T) {
		assert.Equal(t, 0.0, ATR([]float64{1, 2}, []float64{1, 2}, []float64{1, 2}, 2))
	})
}

func TestBollingerBands(t *testing.T) {
	t.Run("Constant Series Collapses Bands", func(t *testing.T) {
		series := []float64{5, 5, 5, 5}
		b := BollingerBands(series, 4)
		assert.InDelta(t, 5.0, b.Upper, 1e-9)
		assert.InDelta(t, 5.0, b.Middle, 1e-9)
		assert.InDelta(t, 5.0, b.Lower, 1e-9)
	})

	t.Run("Two Population Stddev Width", func(t *testing.T) {
		// 窗口 [2,4,4,4,5,5,7,9]，均值 5，总体标准差 2。
		series := []float64{2, 4, 4, 4, 5, 5, 7, 9}
		b := BollingerBands(series, 8)
		assert.InDelta(t, 9.0, b.Upper, 1e-9)
		assert.InDelta(t, 5.0, b.Middle, 1e-9)
		assert.InDelta(t, 1.0, b.Lower, 1e-9)
	})

	t.Run("Insufficient History Returns Zero Bands", func(t *testing.T) {
		assert.Equal(t, Bands{}, BollingerBands([]float64{1, 2}, 3))
	})
}

func TestMACD(t *testing.T) {
	t.Run("Signal Is Fixed Fraction Of MACD", func(t *testing.T) {
		series := make([]float64, 30)
		for i := range series {
			series[i] = 100 + float64(i)
		}
		macd, signal := MACD(series)
		assert.InDelta(t, macd*0.9, signal, 1e-9)
		assert.Greater(t, macd, 0.0)
	})

	t.Run("Constant Series Is Flat", func(t *testing.T) {
		series := make([]float64, 30)
		for i := range series {
			series[i] = 42
		}
		macd, signal := MACD(series)
		assert.InDelta(t, 0.0, macd, 1e-9)
		assert.InDelta(t, 0.0, signal, 1e-9)
	})
}

func TestADX(t *testing.T) {
	t.Run("Every Bar Ranging Scores 25", func(t *testing.T) {
		highs := make([]float64, DefaultADXPeriod)
		lows := make([]float64, DefaultADXPeriod)
		for i := range highs {
			highs[i] = 10
			lows[i] = 9
		}
		assert.InDelta(t, 25.0, ADX(highs, lows, DefaultADXPeriod), 1e-9)
	})

	t.Run("Flat Bars Score Zero", func(t *testing.T) {
		highs := []float64{5, 5, 5}
		lows := []float64{5, 5, 5}
		assert.Equal(t, 0.0, ADX(highs, lows, 3))
	})

	t.Run("Insufficient History Returns Zero", func(t *testing.T) {
		assert.Equal(t, 0.0, ADX([]float64{1}, []float64{0}, 2))
	})
}

func TestSupportResistance(t *testing.T) {
	t.Run("Percentile Indices", func(t *testing.T) {
		series := []float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5}
		support, resistance := SupportResistance(series)
		// 排序后 idx floor(0.2*10)=2、floor(0.8*10)=8。
		assert.Equal(t, 3.0, support)
		assert.Equal(t, 9.0, resistance)
	})

	t.Run("Empty Series Returns Zero", func(t *testing.T) {
		support, resistance := SupportResistance(nil)
		assert.Equal(t, 0.0, support)
		assert.Equal(t, 0.0, resistance)
	})

	t.Run("Input Not Mutated", func(t *testing.T) {
		series := []float64{3, 1, 2}
		SupportResistance(series)
		assert.Equal(t, []float64{3, 1, 2}, series)
	})
}
