package service

import (
	"sync"

	"connector_runner/internal/models"
)

// Cache keeps the latest closed candle per market tuple. Replacement is
// serialized per tuple by the lock, so evaluator readers never observe two
// different current candles for the same key.
type Cache struct {
	mu     sync.RWMutex
	latest map[models.MarketKey]models.Candle
}

func NewCache() *Cache {
	return &Cache{
		latest: make(map[models.MarketKey]models.Candle),
	}
}

func (c *Cache) Put(candle models.Candle) {
	key := candle.Key()

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.latest[key]; ok && prev.Time >= candle.Time {
		return // candles are immutable, never roll back
	}
	c.latest[key] = candle
}

func (c *Cache) Latest(key models.MarketKey) *models.Candle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	candle, ok := c.latest[key]
	if !ok {
		return nil
	}
	return &candle
}
