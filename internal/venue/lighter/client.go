package lighter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"maker-arb-bot/internal/venue"

	"go.uber.org/zap"
)

type Client struct {
	baseURL   string
	http      *http.Client
	signer    *Signer
	log       *zap.Logger
	connected atomic.Bool

	mu      sync.RWMutex
	markets map[string]market

	nowMS func() int64
}

func New(baseURL string, timeout time.Duration, signer *Signer, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		signer:  signer,
		log:     log,
		markets: make(map[string]market),
		nowMS:   func() int64 { return time.Now().UnixMilli() },
	}
}

// Connect loads market metadata. Price and size decimals differ per market
// and are required to scale order fields before signing.
func (c *Client) Connect(ctx context.Context) error {
	data, err := c.get(ctx, "/api/v1/orderBookDetails", nil)
	if err != nil {
		return fmt.Errorf("lighter order book details: %w", err)
	}
	var resp struct {
		Details []struct {
			Symbol        string `json:"symbol"`
			MarketID      int64  `json:"market_id"`
			PriceDecimals int    `json:"price_decimals"`
			SizeDecimals  int    `json:"size_decimals"`
		} `json:"order_book_details"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return err
	}
	if len(resp.Details) == 0 {
		return errors.New("lighter returned no markets")
	}
	markets := make(map[string]market, len(resp.Details))
	for _, d := range resp.Details {
		markets[strings.ToUpper(d.Symbol)] = market{
			Index:         d.MarketID,
			PriceDecimals: d.PriceDecimals,
			SizeDecimals:  d.SizeDecimals,
		}
	}
	c.mu.Lock()
	c.markets = markets
	c.mu.Unlock()
	c.connected.Store(true)
	if c.log != nil {
		c.log.Info("reference markets loaded", zap.Int("count", len(markets)))
	}
	return nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	_ = ctx
	c.connected.Store(false)
	return nil
}

func (c *Client) OrderBook(ctx context.Context, symbol string) (venue.Snapshot, error) {
	mkt, err := c.market(symbol)
	if err != nil {
		return venue.Snapshot{}, err
	}
	params := url.Values{}
	params.Set("market_id", strconv.FormatInt(mkt.Index, 10))
	params.Set("limit", "1")
	data, err := c.get(ctx, "/api/v1/orderBookOrders", params)
	if err != nil {
		return venue.Snapshot{}, err
	}
	var book struct {
		Bids []struct {
			Price     string `json:"price"`
			Remaining string `json:"remaining_base_amount"`
		} `json:"bids"`
		Asks []struct {
			Price     string `json:"price"`
			Remaining string `json:"remaining_base_amount"`
		} `json:"asks"`
	}
	if err := json.Unmarshal(data, &book); err != nil {
		return venue.Snapshot{}, err
	}
	snap := venue.Snapshot{Symbol: symbol, ObservedAt: time.Now().UTC()}
	if len(book.Bids) > 0 {
		snap.BestBid, _ = strconv.ParseFloat(book.Bids[0].Price, 64)
	}
	if len(book.Asks) > 0 {
		snap.BestAsk, _ = strconv.ParseFloat(book.Asks[0].Price, 64)
	}
	return snap, nil
}

func (c *Client) CreateOrder(ctx context.Context, req venue.OrderRequest) (string, error) {
	if !c.connected.Load() {
		return "", venue.ErrNotConnected
	}
	if c.signer == nil {
		return "", errors.New("signer is required to place orders")
	}
	if req.Price <= 0 {
		return "", errors.New("price is required")
	}
	mkt, err := c.market(req.Symbol)
	if err != nil {
		return "", err
	}
	tif := TifPostOnly
	if req.Kind == venue.KindTaker {
		tif = TifIOC
	}
	tx := OrderTx{
		MarketIndex:      mkt.Index,
		ClientOrderIndex: clientOrderIndex(req.ClientID, c.nowMS()),
		BaseAmount:       scale(req.Quantity, mkt.SizeDecimals),
		Price:            scale(req.Price, mkt.PriceDecimals),
		IsAsk:            req.Side == venue.SideSell,
		OrderType:        OrderTypeLimit,
		TimeInForce:      tif,
		Nonce:            uint64(c.nowMS()),
	}
	sig, err := c.signer.SignOrderTx(tx)
	if err != nil {
		return "", err
	}
	info := orderTxInfo{
		MarketIndex:      tx.MarketIndex,
		ClientOrderIndex: tx.ClientOrderIndex,
		BaseAmount:       tx.BaseAmount,
		Price:            tx.Price,
		IsAsk:            tx.IsAsk,
		Type:             string(tx.OrderType),
		TimeInForce:      string(tx.TimeInForce),
		ReduceOnly:       tx.ReduceOnly,
		Nonce:            tx.Nonce,
		Sig:              sig,
	}
	return c.sendTx(ctx, "create_order", info)
}

func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	if !c.connected.Load() {
		return venue.ErrNotConnected
	}
	if c.signer == nil {
		return errors.New("signer is required to cancel orders")
	}
	mkt, err := c.market(symbol)
	if err != nil {
		return err
	}
	index, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid order id %q: %w", orderID, err)
	}
	tx := CancelTx{
		MarketIndex: mkt.Index,
		OrderIndex:  index,
		Nonce:       uint64(c.nowMS()),
	}
	sig, err := c.signer.SignCancelTx(tx)
	if err != nil {
		return err
	}
	info := cancelTxInfo{
		MarketIndex: tx.MarketIndex,
		OrderIndex:  tx.OrderIndex,
		Nonce:       tx.Nonce,
		Sig:         sig,
	}
	_, err = c.sendTx(ctx, "cancel_order", info)
	return err
}

// SubscribeFills is not available on this venue. Hedge orders are IOC, so
// their outcome is known from the submission itself; maker fills only ever
// happen on the quoting venue.
func (c *Client) SubscribeFills(ctx context.Context, handler func(venue.Fill)) error {
	_ = ctx
	_ = handler
	return errors.New("lighter: fill subscription not supported")
}

func (c *Client) Balance(ctx context.Context, asset string) (float64, error) {
	if c.signer == nil {
		return 0, errors.New("signer is required to query balances")
	}
	params := url.Values{}
	params.Set("by", "l1_address")
	params.Set("value", c.signer.Address().Hex())
	data, err := c.get(ctx, "/api/v1/account", params)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Accounts []struct {
			AvailableBalance string `json:"available_balance"`
		} `json:"accounts"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, err
	}
	if len(resp.Accounts) == 0 {
		return 0, nil
	}
	// The account balance is USDC collateral; asset selection does not
	// apply on a cross-margined account.
	_ = asset
	return strconv.ParseFloat(resp.Accounts[0].AvailableBalance, 64)
}

type orderTxInfo struct {
	MarketIndex      int64     `json:"market_index"`
	ClientOrderIndex uint64    `json:"client_order_index"`
	BaseAmount       int64     `json:"base_amount"`
	Price            int64     `json:"price"`
	IsAsk            bool      `json:"is_ask"`
	Type             string    `json:"type"`
	TimeInForce      string    `json:"time_in_force"`
	ReduceOnly       bool      `json:"reduce_only"`
	Nonce            uint64    `json:"nonce"`
	Sig              Signature `json:"sig"`
}

type cancelTxInfo struct {
	MarketIndex int64     `json:"market_index"`
	OrderIndex  int64     `json:"order_index"`
	Nonce       uint64    `json:"nonce"`
	Sig         Signature `json:"sig"`
}

func (c *Client) sendTx(ctx context.Context, txType string, info any) (string, error) {
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return "", err
	}
	form := url.Values{}
	form.Set("tx_type", txType)
	form.Set("tx_info", string(infoJSON))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/sendTx", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	body, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		TxHash  string `json:"tx_hash"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if status == http.StatusBadRequest || (resp.Code != 0 && resp.Code != 200) {
		return "", fmt.Errorf("%w: code %d: %s", venue.ErrOrderRejected, resp.Code, resp.Message)
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("lighter http %d: %s", status, strings.TrimSpace(string(body)))
	}
	if resp.TxHash == "" {
		return "", fmt.Errorf("%w: missing tx hash", venue.ErrOrderRejected)
	}
	return resp.TxHash, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if params != nil {
		if encoded := params.Encode(); encoded != "" {
			endpoint += "?" + encoded
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("lighter http %d: %s", status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func (c *Client) market(symbol string) (market, error) {
	c.mu.RLock()
	mkt, ok := c.markets[strings.ToUpper(symbol)]
	c.mu.RUnlock()
	if !ok {
		return market{}, fmt.Errorf("unknown market %q", symbol)
	}
	return mkt, nil
}

// clientOrderIndex derives a stable numeric id from the caller's client id so
// a resubmitted hedge carries the same index the venue already saw.
func clientOrderIndex(clientID string, nowMS int64) uint64 {
	if clientID == "" {
		return uint64(nowMS)
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(clientID))
	return h.Sum64()
}

func scale(value float64, decimals int) int64 {
	return int64(math.Round(value * math.Pow10(decimals)))
}
