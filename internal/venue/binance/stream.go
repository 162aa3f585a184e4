package binance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"maker-arb-bot/internal/venue"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const listenKeyKeepAlive = 30 * time.Minute

// SubscribeFills runs the user data stream until ctx is canceled. Each
// reconnect requests a fresh listen key, so execution reports around a
// disconnect can be redelivered; callers dedup by fill identity.
func (c *Client) SubscribeFills(ctx context.Context, handler func(venue.Fill)) error {
	if handler == nil {
		return errors.New("fill handler is required")
	}
	for {
		if err := c.streamOnce(ctx, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger().Warn("user stream ended", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Client) streamOnce(ctx context.Context, handler func(venue.Fill)) error {
	listenKey, err := c.createListenKey(ctx)
	if err != nil {
		return err
	}
	conn, _, err := websocket.Dial(ctx, c.wsURL+"/"+listenKey, nil)
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")
	conn.SetReadLimit(1 << 20)

	keepAliveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.keepAliveLoop(keepAliveCtx, listenKey)
	go c.pingLoop(keepAliveCtx, conn)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if fill, ok := parseExecutionReport(data); ok {
			handler(fill)
		}
	}
}

func (c *Client) createListenKey(ctx context.Context) (string, error) {
	data, err := c.request(ctx, http.MethodPost, "/api/v3/userDataStream", url.Values{}, false)
	if err != nil {
		return "", err
	}
	var resp struct {
		ListenKey string `json:"listenKey"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	if resp.ListenKey == "" {
		return "", errors.New("empty listen key")
	}
	return resp.ListenKey, nil
}

func (c *Client) keepAliveLoop(ctx context.Context, listenKey string) {
	ticker := time.NewTicker(listenKeyKeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			params := url.Values{}
			params.Set("listenKey", listenKey)
			if _, err := c.request(ctx, http.MethodPut, "/api/v3/userDataStream", params, false); err != nil {
				c.logger().Warn("listen key keepalive failed", zap.Error(err))
			}
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	if c.pingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

// executionReport is the subset of the Binance user stream event the fill
// handler needs. x=TRADE marks an actual execution; other statuses (NEW,
// CANCELED) flow through the same event type and are ignored here.
type executionReport struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Side      string `json:"S"`
	ExecType  string `json:"x"`
	OrderID     int64  `json:"i"`
	TradeID     int64  `json:"t"`
	LastQty     string `json:"l"`
	LastPrice   string `json:"L"`
	TradeTimeMS int64  `json:"T"`
}

func parseExecutionReport(data []byte) (venue.Fill, bool) {
	var report executionReport
	if err := json.Unmarshal(data, &report); err != nil {
		return venue.Fill{}, false
	}
	if report.EventType != "executionReport" || report.ExecType != "TRADE" {
		return venue.Fill{}, false
	}
	qty, err := strconv.ParseFloat(report.LastQty, 64)
	if err != nil || qty <= 0 {
		return venue.Fill{}, false
	}
	price, _ := strconv.ParseFloat(report.LastPrice, 64)
	return venue.Fill{
		OrderID:  strconv.FormatInt(report.OrderID, 10),
		TradeID:  strconv.FormatInt(report.TradeID, 10),
		Symbol:   report.Symbol,
		Side:     venue.Side(report.Side),
		Quantity: qty,
		Price:    price,
		TimeMS:   report.TradeTimeMS,
	}, true
}
