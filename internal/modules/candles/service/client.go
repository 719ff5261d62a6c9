package service

import (
	"time"

	"connector_runner/internal/modules/config"

	"github.com/gorilla/websocket"
)

// Client streams closed candles from the market-data collaborator over
// websocket.
type Client struct {
	url      string
	wsDialer *websocket.Dialer
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		url: cfg.Market.WSURL,
		wsDialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}
