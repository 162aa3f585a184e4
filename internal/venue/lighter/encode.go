package lighter

import (
	"bytes"
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding is field-by-field rather than struct-tag driven: the venue verifies
// the signature over the exact byte sequence, so key order must be stable.

func EncodeOrderTx(tx OrderTx) ([]byte, error) {
	if tx.BaseAmount <= 0 {
		return nil, errors.New("base amount is required")
	}
	if tx.Price <= 0 {
		return nil, errors.New("price is required")
	}
	if tx.OrderType == "" {
		tx.OrderType = OrderTypeLimit
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeMapLen(9); err != nil {
		return nil, err
	}
	if err := encodeInt(enc, "market_index", tx.MarketIndex); err != nil {
		return nil, err
	}
	if err := enc.EncodeString("client_order_index"); err != nil {
		return nil, err
	}
	if err := enc.EncodeUint(tx.ClientOrderIndex); err != nil {
		return nil, err
	}
	if err := encodeInt(enc, "base_amount", tx.BaseAmount); err != nil {
		return nil, err
	}
	if err := encodeInt(enc, "price", tx.Price); err != nil {
		return nil, err
	}
	if err := encodeBool(enc, "is_ask", tx.IsAsk); err != nil {
		return nil, err
	}
	if err := encodeString(enc, "type", string(tx.OrderType)); err != nil {
		return nil, err
	}
	if err := encodeString(enc, "time_in_force", string(tx.TimeInForce)); err != nil {
		return nil, err
	}
	if err := encodeBool(enc, "reduce_only", tx.ReduceOnly); err != nil {
		return nil, err
	}
	if err := enc.EncodeString("nonce"); err != nil {
		return nil, err
	}
	if err := enc.EncodeUint(tx.Nonce); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func EncodeCancelTx(tx CancelTx) ([]byte, error) {
	if tx.OrderIndex <= 0 {
		return nil, errors.New("order index is required")
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeMapLen(3); err != nil {
		return nil, err
	}
	if err := encodeInt(enc, "market_index", tx.MarketIndex); err != nil {
		return nil, err
	}
	if err := encodeInt(enc, "order_index", tx.OrderIndex); err != nil {
		return nil, err
	}
	if err := enc.EncodeString("nonce"); err != nil {
		return nil, err
	}
	if err := enc.EncodeUint(tx.Nonce); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeInt(enc *msgpack.Encoder, key string, value int64) error {
	if err := enc.EncodeString(key); err != nil {
		return err
	}
	return enc.EncodeInt(value)
}

func encodeBool(enc *msgpack.Encoder, key string, value bool) error {
	if err := enc.EncodeString(key); err != nil {
		return err
	}
	return enc.EncodeBool(value)
}

func encodeString(enc *msgpack.Encoder, key, value string) error {
	if err := enc.EncodeString(key); err != nil {
		return err
	}
	return enc.EncodeString(value)
}
