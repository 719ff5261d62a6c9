package service

import (
	"context"
	"time"

	"connector_runner/internal/models"
	"connector_runner/pkg/logger"

	"github.com/bytedance/sonic"
)

type subArg struct {
	Channel   string `json:"channel"`
	Exchange  string `json:"exchange"`
	Asset     string `json:"asset"`
	Currency  string `json:"currency"`
	Timeframe int    `json:"timeframe"`
}

type candleFrame struct {
	Channel   string `json:"channel"`
	Exchange  string `json:"exchange"`
	Asset     string `json:"asset"`
	Currency  string `json:"currency"`
	Timeframe int    `json:"timeframe"`
	Data      struct {
		Time    int64   `json:"time"`
		Open    float64 `json:"open"`
		High    float64 `json:"high"`
		Low     float64 `json:"low"`
		Close   float64 `json:"close"`
		Confirm bool    `json:"confirm"`
	} `json:"data"`
}

// StreamCandles — one websocket for the whole watchlist. Emits only closed
// candles; the connection is re-dialed forever until ctx is done.
func (c *Client) StreamCandles(ctx context.Context, markets []models.MarketKey) <-chan models.Candle {
	ch := make(chan models.Candle)

	go func() {
		defer close(ch)

		if len(markets) == 0 {
			return
		}

		args := make([]subArg, 0, len(markets))
		for _, m := range markets {
			args = append(args, subArg{
				Channel:   "candles",
				Exchange:  m.Exchange,
				Asset:     m.Asset,
				Currency:  m.Currency,
				Timeframe: m.Timeframe,
			})
		}

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			logger.Info("[WS] connect %s, %d markets", c.url, len(markets))
			conn, _, err := c.wsDialer.Dial(c.url, nil)
			if err != nil {
				logger.Error("[WS] dial error: %v", err)
				time.Sleep(time.Second)
				continue
			}

			sub := map[string]any{
				"op":   "subscribe",
				"args": args,
			}
			if err := conn.WriteJSON(sub); err != nil {
				logger.Error("[WS] subscribe error: %v", err)
				_ = conn.Close()
				time.Sleep(time.Second)
				continue
			}

			// keepalive ping every 20s, the feed drops silent connections
			stopPing := make(chan struct{})
			go func() {
				t := time.NewTicker(20 * time.Second)
				defer t.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-stopPing:
						return
					case <-t.C:
						_ = conn.WriteJSON(map[string]string{"op": "ping"})
					}
				}
			}()

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					logger.Error("[WS] read error: %v", err)
					_ = conn.Close()
					close(stopPing)
					break
				}

				var frame candleFrame
				if err := sonic.Unmarshal(msg, &frame); err != nil {
					continue
				}
				if frame.Channel != "candles" || !frame.Data.Confirm {
					continue // wait for a closed candle
				}

				candle := models.Candle{
					Exchange:  frame.Exchange,
					Asset:     frame.Asset,
					Currency:  frame.Currency,
					Timeframe: frame.Timeframe,
					Time:      frame.Data.Time,
					Timestamp: time.UnixMilli(frame.Data.Time).UTC(),
					Open:      frame.Data.Open,
					High:      frame.Data.High,
					Low:       frame.Data.Low,
					Close:     frame.Data.Close,
				}

				select {
				case ch <- candle:
				case <-ctx.Done():
					_ = conn.Close()
					return
				}
			}

			time.Sleep(time.Second)
		}
	}()

	return ch
}
