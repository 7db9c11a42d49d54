// Package extractor reads transaction results whose shape depends on the
// path that produced them: execute responses, polled transaction blocks and
// wallet-wrapped responses.
package extractor

import (
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

const maxUnwrapDepth = 4

// Hint says what the caller expects the transaction to have created.
type Hint struct {
	// TypeSuffix matches the created object's type, e.g. "::account::Account".
	TypeSuffix string

	// EventType and EventField locate the id inside a creation event,
	// e.g. "::account::AccountCreated" and "account_id".
	EventType  string
	EventField string
}

type CreatedObject struct {
	ID   string
	Type string
}

type Event struct {
	Type       string
	ParsedJSON []byte
}

// View is the canonical reading of a result payload.
type View struct {
	Digest      string
	Status      string
	StatusError string
	Created     []CreatedObject
	Events      []Event
	PrimaryID   string
}

// Succeeded reports an explicit success status. A payload without effects
// does not count as success.
func (v *View) Succeeded() bool {
	return v.Status == "success"
}

type strategy func(res gjson.Result, hint Hint) (string, bool)

// strategies are tried in order; the first hit wins.
var strategies = []strategy{
	fromObjectChanges,
	fromEffectsCreated,
	fromEvents,
}

// PrimaryID finds the id of the object the transaction created. Not finding
// one is a valid outcome.
func PrimaryID(payload []byte, hint Hint) (string, bool) {
	if !gjson.ValidBytes(payload) {
		return "", false
	}
	return primaryID(gjson.ParseBytes(payload), hint, 0)
}

func primaryID(res gjson.Result, hint Hint, depth int) (string, bool) {
	if !res.IsObject() {
		return "", false
	}
	for _, s := range strategies {
		if id, ok := s(res, hint); ok {
			return id, true
		}
	}
	if depth >= maxUnwrapDepth {
		return "", false
	}
	for _, inner := range wrapped(res) {
		if id, ok := primaryID(inner, hint, depth+1); ok {
			return id, true
		}
	}
	return "", false
}

func wrapped(res gjson.Result) []gjson.Result {
	var inner []gjson.Result
	for _, key := range []string{"transaction", "result", "data"} {
		if v := res.Get(key); v.IsObject() {
			inner = append(inner, v)
		}
	}
	return inner
}

func fromObjectChanges(res gjson.Result, hint Hint) (string, bool) {
	created := lo.Filter(res.Get("objectChanges").Array(), func(c gjson.Result, _ int) bool {
		return c.Get("type").String() == "created" && c.Get("objectId").String() != ""
	})
	if len(created) == 0 {
		return "", false
	}
	if hint.TypeSuffix != "" {
		if match, ok := lo.Find(created, func(c gjson.Result) bool {
			return typeMatches(c.Get("objectType").String(), hint.TypeSuffix)
		}); ok {
			return match.Get("objectId").String(), true
		}
	}
	return created[0].Get("objectId").String(), true
}

func fromEffectsCreated(res gjson.Result, _ Hint) (string, bool) {
	for _, c := range res.Get("effects.created").Array() {
		if id := c.Get("objectId").String(); id != "" {
			return id, true
		}
		if id := c.Get("reference.objectId").String(); id != "" {
			return id, true
		}
	}
	return "", false
}

func fromEvents(res gjson.Result, hint Hint) (string, bool) {
	if hint.EventType == "" || hint.EventField == "" {
		return "", false
	}
	for _, e := range res.Get("events").Array() {
		if !strings.Contains(e.Get("type").String(), hint.EventType) {
			continue
		}
		if id := e.Get("parsedJson").Get(hint.EventField).String(); id != "" {
			return id, true
		}
	}
	return "", false
}

// typeMatches compares the type name without generic parameters.
func typeMatches(objectType string, suffix string) bool {
	if i := strings.IndexByte(objectType, '<'); i >= 0 {
		objectType = objectType[:i]
	}
	return strings.HasSuffix(objectType, suffix)
}

// Extract builds the canonical view. Fields absent from every layer of the
// payload are left empty.
func Extract(payload []byte, hint Hint) *View {
	v := &View{}
	if !gjson.ValidBytes(payload) {
		return v
	}
	res := locate(gjson.ParseBytes(payload), 0)
	v.Digest = res.Get("digest").String()
	v.Status = res.Get("effects.status.status").String()
	v.StatusError = res.Get("effects.status.error").String()

	for _, c := range res.Get("objectChanges").Array() {
		if c.Get("type").String() == "created" {
			v.Created = append(v.Created, CreatedObject{ID: c.Get("objectId").String(), Type: c.Get("objectType").String()})
		}
	}
	if len(v.Created) == 0 {
		for _, c := range res.Get("effects.created").Array() {
			id := c.Get("objectId").String()
			if id == "" {
				id = c.Get("reference.objectId").String()
			}
			if id != "" {
				v.Created = append(v.Created, CreatedObject{ID: id})
			}
		}
	}
	for _, e := range res.Get("events").Array() {
		v.Events = append(v.Events, Event{Type: e.Get("type").String(), ParsedJSON: []byte(e.Get("parsedJson").Raw)})
	}
	v.PrimaryID, _ = PrimaryID(payload, hint)
	return v
}

// locate returns the innermost layer that looks like a transaction result.
func locate(res gjson.Result, depth int) gjson.Result {
	if res.Get("effects").Exists() || res.Get("objectChanges").Exists() || res.Get("events").Exists() || depth >= maxUnwrapDepth {
		return res
	}
	for _, inner := range wrapped(res) {
		if found := locate(inner, depth+1); found.Get("effects").Exists() || found.Get("objectChanges").Exists() || found.Get("events").Exists() {
			return found
		}
	}
	return res
}
