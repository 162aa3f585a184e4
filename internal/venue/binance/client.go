// Package binance implements the quoting venue adapter. Maker quotes are
// submitted as LIMIT_MAKER orders so a quote that would cross the book is
// rejected instead of taking; hedge-style taker orders are IOC limits.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"maker-arb-bot/internal/venue"

	"go.uber.org/zap"
)

type Client struct {
	baseURL        string
	wsURL          string
	http           *http.Client
	signer         *Signer
	log            *zap.Logger
	reconnectDelay time.Duration
	pingInterval   time.Duration
	connected      atomic.Bool
}

func New(baseURL, wsURL string, timeout, reconnectDelay, pingInterval time.Duration, signer *Signer, log *zap.Logger) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		wsURL:          strings.TrimRight(wsURL, "/"),
		http:           &http.Client{Timeout: timeout},
		signer:         signer,
		log:            log,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	if _, err := c.get(ctx, "/api/v3/ping", nil, false); err != nil {
		return fmt.Errorf("binance ping: %w", err)
	}
	c.connected.Store(true)
	return nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	_ = ctx
	c.connected.Store(false)
	return nil
}

func (c *Client) OrderBook(ctx context.Context, symbol string) (venue.Snapshot, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", "5")
	data, err := c.get(ctx, "/api/v3/depth", params, false)
	if err != nil {
		return venue.Snapshot{}, err
	}
	var book struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
	}
	if err := json.Unmarshal(data, &book); err != nil {
		return venue.Snapshot{}, err
	}
	snap := venue.Snapshot{Symbol: symbol, ObservedAt: time.Now().UTC()}
	if len(book.Bids) > 0 && len(book.Bids[0]) > 0 {
		snap.BestBid, _ = strconv.ParseFloat(book.Bids[0][0], 64)
	}
	if len(book.Asks) > 0 && len(book.Asks[0]) > 0 {
		snap.BestAsk, _ = strconv.ParseFloat(book.Asks[0][0], 64)
	}
	return snap, nil
}

func (c *Client) CreateOrder(ctx context.Context, req venue.OrderRequest) (string, error) {
	if !c.connected.Load() {
		return "", venue.ErrNotConnected
	}
	if req.Price <= 0 {
		return "", errors.New("price is required")
	}
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(req.Side))
	params.Set("quantity", formatFloat(req.Quantity))
	params.Set("price", formatFloat(req.Price))
	switch req.Kind {
	case venue.KindMaker:
		params.Set("type", "LIMIT_MAKER")
	default:
		params.Set("type", "LIMIT")
		params.Set("timeInForce", "IOC")
	}
	if req.ClientID != "" {
		params.Set("newClientOrderId", req.ClientID)
	}
	data, err := c.post(ctx, "/api/v3/order", params)
	if err != nil {
		return "", err
	}
	var resp struct {
		OrderID int64 `json:"orderId"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	if resp.OrderID == 0 {
		return "", fmt.Errorf("%w: missing order id", venue.ErrOrderRejected)
	}
	return strconv.FormatInt(resp.OrderID, 10), nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	if !c.connected.Load() {
		return venue.ErrNotConnected
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", orderID)
	_, err := c.request(ctx, http.MethodDelete, "/api/v3/order", params, true)
	return err
}

func (c *Client) Balance(ctx context.Context, asset string) (float64, error) {
	data, err := c.get(ctx, "/api/v3/account", url.Values{}, true)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, err
	}
	for _, bal := range resp.Balances {
		if strings.EqualFold(bal.Asset, asset) {
			free, err := strconv.ParseFloat(bal.Free, 64)
			if err != nil {
				return 0, err
			}
			return free, nil
		}
	}
	return 0, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, signed bool) ([]byte, error) {
	return c.request(ctx, http.MethodGet, path, params, signed)
}

func (c *Client) post(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.request(ctx, http.MethodPost, path, params, true)
}

func (c *Client) request(ctx context.Context, method, path string, params url.Values, signed bool) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	if signed {
		if c.signer == nil {
			return nil, errors.New("signer is required for signed endpoints")
		}
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", "5000")
		params.Set("signature", c.signer.Sign(params.Encode()))
	}
	endpoint := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.signer != nil {
		req.Header.Set("X-MBX-APIKEY", c.signer.APIKey())
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Msg != "" {
			if resp.StatusCode == http.StatusBadRequest {
				return nil, fmt.Errorf("%w: code %d: %s", venue.ErrOrderRejected, apiErr.Code, apiErr.Msg)
			}
			return nil, fmt.Errorf("binance http %d: code %d: %s", resp.StatusCode, apiErr.Code, apiErr.Msg)
		}
		return nil, fmt.Errorf("binance http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func formatFloat(x float64) string {
	s := strconv.FormatFloat(x, 'f', 8, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-0" {
		return "0"
	}
	return s
}

func (c *Client) logger() *zap.Logger {
	if c.log == nil {
		return zap.NewNop()
	}
	return c.log
}
