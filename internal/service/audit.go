package service

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/popchain/popchain-core/internal/chainerr"
	"github.com/popchain/popchain-core/internal/ledger"
)

const (
	whitelistAddedSuffix   = "::event::WhitelistAdded"
	whitelistRemovedSuffix = "::event::WhitelistRemoved"

	eventPageLimit = 50
)

// WhitelistChange is one on-chain whitelist mutation of an event.
type WhitelistChange struct {
	Added     bool
	EmailHash string
	TxDigest  string
	Sender    string
	Timestamp time.Time
}

// ListWhitelistEvents reads every whitelist change the event module emitted
// for eventID, oldest first.
func (s *Service) ListWhitelistEvents(ctx context.Context, eventID string) ([]WhitelistChange, error) {
	id, err := ledger.ParseAddress(eventID)
	if err != nil {
		return nil, chainerr.New(chainerr.InvalidInput, "invalid event id %q", eventID)
	}
	query := ledger.EventQuery{Package: s.orchestrator.Targets().Package, Module: "event"}

	var changes []WhitelistChange
	var cursor *ledger.EventID
	for {
		page, err := s.client.QueryEvents(ctx, query, cursor, eventPageLimit)
		if err != nil {
			return nil, chainerr.Decode(err)
		}
		changes = append(changes, lo.FilterMap(page.Events, func(ev ledger.Event, _ int) (WhitelistChange, bool) {
			return whitelistChange(ev, id)
		})...)
		if !page.HasNextPage || page.NextCursor == nil || (cursor != nil && *cursor == *page.NextCursor) {
			break
		}
		cursor = page.NextCursor
	}
	return changes, nil
}

func whitelistChange(ev ledger.Event, id ledger.ObjectID) (WhitelistChange, bool) {
	var added bool
	switch {
	case strings.HasSuffix(ev.Type, whitelistAddedSuffix):
		added = true
	case strings.HasSuffix(ev.Type, whitelistRemovedSuffix):
	default:
		return WhitelistChange{}, false
	}
	fields := gjson.ParseBytes(ev.ParsedJSON)
	evID, err := ledger.ParseAddress(fields.Get("event_id").String())
	if err != nil || evID != id {
		return WhitelistChange{}, false
	}
	return WhitelistChange{
		Added:     added,
		EmailHash: bytesField(fields.Get("email_hash")),
		TxDigest:  ev.ID.TxDigest,
		Sender:    ev.Sender,
		Timestamp: time.UnixMilli(int64(ev.TimestampMs)),
	}, true
}

// bytesField renders a vector<u8> field, which the node emits as a number
// array, as 0x-prefixed hex matching digest.Digest.Hex.
func bytesField(v gjson.Result) string {
	if !v.IsArray() {
		return "0x" + strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(v.String(), "0x"), "0X"))
	}
	raw := lo.Map(v.Array(), func(b gjson.Result, _ int) byte {
		return byte(b.Uint())
	})
	return hexutil.Encode(raw)
}
