package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/strategy"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/popchain/popchain-core/pkg/repo"
)

const (
	methodGetObject         = "sui_getObject"
	methodGetCoins          = "suix_getCoins"
	methodGetBalance        = "suix_getBalance"
	methodReferenceGasPrice = "suix_getReferenceGasPrice"
	methodExecute           = "sui_executeTransactionBlock"
	methodGetTransaction    = "sui_getTransactionBlock"
	methodQueryEvents       = "suix_queryEvents"

	executeRequestType = "WaitForEffectsCert"
)

var (
	objectOptions = map[string]bool{
		"showType":    true,
		"showOwner":   true,
		"showContent": true,
	}
	transactionOptions = map[string]bool{
		"showEffects":       true,
		"showEvents":        true,
		"showObjectChanges": true,
	}
)

var _ Client = (*RPCClient)(nil)

// RPCClient speaks the fullnode JSON-RPC dialect. Reads are retried on
// transport failures; submissions never are.
type RPCClient struct {
	client     *rpc.Client
	retryLimit uint
	retryWait  time.Duration
	logger     logrus.FieldLogger
}

func Dial(ctx context.Context, cfg repo.Ledger, logger logrus.FieldLogger) (*RPCClient, error) {
	client, err := rpc.DialContext(ctx, cfg.RPC)
	if err != nil {
		return nil, errors.Wrap(err, "dial rpc failed")
	}
	return NewRPCClient(client, cfg, logger), nil
}

func NewRPCClient(client *rpc.Client, cfg repo.Ledger, logger logrus.FieldLogger) *RPCClient {
	limit := cfg.ReadRetryLimit
	if limit == 0 {
		limit = 1
	}
	return &RPCClient{
		client:     client,
		retryLimit: limit,
		retryWait:  cfg.ReadRetryWait.ToDuration(),
		logger:     logger,
	}
}

func (c *RPCClient) Close() {
	c.client.Close()
}

func (c *RPCClient) call(ctx context.Context, method string, args ...any) ([]byte, error) {
	var raw json.RawMessage
	if err := c.client.CallContext(ctx, &raw, method, args...); err != nil {
		return nil, errors.Wrapf(err, "%s failed", method)
	}
	return raw, nil
}

func (c *RPCClient) read(ctx context.Context, method string, args ...any) (gjson.Result, error) {
	var raw json.RawMessage
	var callErr error
	err := retry.Retry(func(attempt uint) error {
		callErr = c.client.CallContext(ctx, &raw, method, args...)
		if callErr != nil && isTransient(ctx, callErr) {
			c.logger.WithFields(logrus.Fields{
				"method":  method,
				"attempt": attempt + 1,
			}).Warnf("rpc read failed: %v", callErr)
			return callErr
		}
		return nil
	}, strategy.Limit(c.retryLimit), strategy.Wait(c.retryWait))
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "%s failed", method)
	}
	if callErr != nil {
		return gjson.Result{}, errors.Wrapf(callErr, "%s failed", method)
	}
	return gjson.ParseBytes(raw), nil
}

// isTransient reports whether a read may succeed when repeated. Answers from
// the node itself are final.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return false
	}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= http.StatusInternalServerError || httpErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func (c *RPCClient) ReferenceGasPrice(ctx context.Context) (uint64, error) {
	res, err := c.read(ctx, methodReferenceGasPrice)
	if err != nil {
		return 0, err
	}
	price := res.Uint()
	if price == 0 {
		return 0, errors.Errorf("invalid reference gas price %q", res.Raw)
	}
	return price, nil
}

func (c *RPCClient) GetObject(ctx context.Context, id ObjectID) (*Object, error) {
	res, err := c.read(ctx, methodGetObject, id.String(), objectOptions)
	if err != nil {
		return nil, err
	}
	return parseObject(res)
}

func (c *RPCClient) GetCoins(ctx context.Context, owner Address, coinType string, cursor string, limit uint) (*CoinPage, error) {
	var cur any
	if cursor != "" {
		cur = cursor
	}
	res, err := c.read(ctx, methodGetCoins, owner.String(), coinType, cur, limit)
	if err != nil {
		return nil, err
	}
	return parseCoinPage(res)
}

func (c *RPCClient) GetBalance(ctx context.Context, owner Address, coinType string) (*uint256.Int, error) {
	res, err := c.read(ctx, methodGetBalance, owner.String(), coinType)
	if err != nil {
		return nil, err
	}
	total, err := uint256.FromDecimal(res.Get("totalBalance").String())
	if err != nil {
		return nil, errors.Wrapf(err, "invalid total balance %q", res.Get("totalBalance").Raw)
	}
	return total, nil
}

func (c *RPCClient) ExecuteTransaction(ctx context.Context, txBytes []byte, signatures []string) ([]byte, error) {
	return c.call(ctx, methodExecute,
		base64.StdEncoding.EncodeToString(txBytes),
		signatures,
		transactionOptions,
		executeRequestType,
	)
}

func (c *RPCClient) GetTransaction(ctx context.Context, digest string) ([]byte, error) {
	return c.call(ctx, methodGetTransaction, digest, transactionOptions)
}

func (c *RPCClient) QueryEvents(ctx context.Context, query EventQuery, cursor *EventID, limit uint) (*EventPage, error) {
	filter := map[string]any{
		"MoveModule": map[string]string{
			"package": query.Package.String(),
			"module":  query.Module,
		},
	}
	res, err := c.read(ctx, methodQueryEvents, filter, cursor, limit, false)
	if err != nil {
		return nil, err
	}
	return parseEventPage(res), nil
}

func parseObject(res gjson.Result) (*Object, error) {
	if e := res.Get("error"); e.Exists() {
		return nil, errors.Wrapf(ErrObjectNotFound, "%s: %s", e.Get("object_id").String(), e.Get("code").String())
	}
	data := res.Get("data")
	if !data.Exists() {
		return nil, errors.Wrap(ErrObjectNotFound, "empty object response")
	}
	ref, err := NewObjectRef(data.Get("objectId").String(), data.Get("version").String(), data.Get("digest").String())
	if err != nil {
		return nil, err
	}
	owner, err := parseOwner(data.Get("owner"))
	if err != nil {
		return nil, errors.Wrapf(err, "object %s", ref.ObjectID)
	}
	return &Object{
		Ref:     ref,
		Type:    data.Get("type").String(),
		Owner:   owner,
		Content: []byte(data.Get("content").Raw),
	}, nil
}

func parseOwner(o gjson.Result) (Owner, error) {
	switch {
	case o.Type == gjson.String && o.String() == "Immutable":
		return Owner{Kind: OwnerImmutable}, nil
	case o.Get("AddressOwner").Exists():
		addr, err := ParseAddress(o.Get("AddressOwner").String())
		return Owner{Kind: OwnerAddress, Address: addr}, err
	case o.Get("ObjectOwner").Exists():
		addr, err := ParseAddress(o.Get("ObjectOwner").String())
		return Owner{Kind: OwnerObject, Address: addr}, err
	case o.Get("Shared").Exists():
		return Owner{Kind: OwnerShared, InitialSharedVersion: o.Get("Shared.initial_shared_version").Uint()}, nil
	default:
		return Owner{}, errors.Errorf("unknown owner %s", o.Raw)
	}
}

func parseCoinPage(res gjson.Result) (*CoinPage, error) {
	page := &CoinPage{
		NextCursor:  res.Get("nextCursor").String(),
		HasNextPage: res.Get("hasNextPage").Bool(),
	}
	for _, item := range res.Get("data").Array() {
		ref, err := NewObjectRef(item.Get("coinObjectId").String(), item.Get("version").String(), item.Get("digest").String())
		if err != nil {
			return nil, err
		}
		page.Coins = append(page.Coins, Coin{Ref: ref, Balance: item.Get("balance").Uint()})
	}
	return page, nil
}

func parseEventPage(res gjson.Result) *EventPage {
	page := &EventPage{HasNextPage: res.Get("hasNextPage").Bool()}
	if next := res.Get("nextCursor"); next.IsObject() {
		page.NextCursor = &EventID{
			TxDigest: next.Get("txDigest").String(),
			EventSeq: next.Get("eventSeq").String(),
		}
	}
	for _, item := range res.Get("data").Array() {
		page.Events = append(page.Events, Event{
			ID: EventID{
				TxDigest: item.Get("id.txDigest").String(),
				EventSeq: item.Get("id.eventSeq").String(),
			},
			Type:        item.Get("type").String(),
			Sender:      item.Get("sender").String(),
			ParsedJSON:  []byte(item.Get("parsedJson").Raw),
			TimestampMs: item.Get("timestampMs").Uint(),
		})
	}
	return page
}
