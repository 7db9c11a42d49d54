package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountHint = Hint{
	TypeSuffix: "::account::Account",
	EventType:  "::account::AccountCreated",
	EventField: "account_id",
}

func TestPrimaryIDFromObjectChanges(t *testing.T) {
	payload := []byte(`{"digest":"D1","objectChanges":[
		{"type":"mutated","objectId":"0xa1","objectType":"0xc0de::account::Registry"},
		{"type":"created","objectId":"0xcafe","objectType":"0xc0de::account::Account"}]}`)
	id, ok := PrimaryID(payload, accountHint)
	require.True(t, ok)
	assert.Equal(t, "0xcafe", id)
}

func TestPrimaryIDPrefersTypeMatch(t *testing.T) {
	payload := []byte(`{"objectChanges":[
		{"type":"created","objectId":"0x1","objectType":"0xc0de::account::AccountCap"},
		{"type":"created","objectId":"0x2","objectType":"0xc0de::account::Account"}]}`)
	id, ok := PrimaryID(payload, accountHint)
	require.True(t, ok)
	assert.Equal(t, "0x2", id)

	// without a type match the first created entry wins
	id, ok = PrimaryID(payload, Hint{TypeSuffix: "::certificate::Certificate"})
	require.True(t, ok)
	assert.Equal(t, "0x1", id)
}

func TestPrimaryIDFromEffectsReference(t *testing.T) {
	payload := []byte(`{"effects":{"status":{"status":"success"},"created":[
		{"owner":{"AddressOwner":"0x9"},"reference":{"objectId":"0xbeef","version":3,"digest":"x"}}]}}`)
	id, ok := PrimaryID(payload, accountHint)
	require.True(t, ok)
	assert.Equal(t, "0xbeef", id)

	id, ok = PrimaryID([]byte(`{"effects":{"created":[{"objectId":"0xf00d"}]}}`), Hint{})
	require.True(t, ok)
	assert.Equal(t, "0xf00d", id)
}

func TestPrimaryIDFromEvents(t *testing.T) {
	payload := []byte(`{"events":[
		{"type":"0xc0de::event::WhitelistAdded","parsedJson":{"event_id":"0xe1"}},
		{"type":"0xc0de::account::AccountCreated","parsedJson":{"account_id":"0xacc"}}]}`)
	id, ok := PrimaryID(payload, accountHint)
	require.True(t, ok)
	assert.Equal(t, "0xacc", id)

	_, ok = PrimaryID(payload, Hint{TypeSuffix: "::account::Account"})
	assert.False(t, ok)
}

func TestPrimaryIDUnwrapsNestedPayload(t *testing.T) {
	payload := []byte(`{"transaction":{"result":{"objectChanges":[
		{"type":"created","objectId":"0xdead","objectType":"0xc0de::account::Account"}]}}}`)
	id, ok := PrimaryID(payload, accountHint)
	require.True(t, ok)
	assert.Equal(t, "0xdead", id)
}

func TestPrimaryIDNotFound(t *testing.T) {
	for _, payload := range []string{
		`{"digest":"D1","effects":{"status":{"status":"success"}}}`,
		`{}`,
		`[]`,
		`null`,
		`not json`,
		``,
	} {
		assert.NotPanics(t, func() {
			id, ok := PrimaryID([]byte(payload), accountHint)
			assert.False(t, ok)
			assert.Empty(t, id)
		})
	}
}

func TestExtract(t *testing.T) {
	payload := []byte(`{"result":{"digest":"D9",
		"effects":{"status":{"status":"failure","error":"MoveAbort(0x1::event, 4)"}},
		"events":[{"type":"0xc0de::event::EventClosed","parsedJson":{"event_id":"0xe1"}}]}}`)
	v := Extract(payload, Hint{})
	assert.Equal(t, "D9", v.Digest)
	assert.Equal(t, "failure", v.Status)
	assert.False(t, v.Succeeded())
	assert.Equal(t, "MoveAbort(0x1::event, 4)", v.StatusError)
	require.Len(t, v.Events, 1)
	assert.JSONEq(t, `{"event_id":"0xe1"}`, string(v.Events[0].ParsedJSON))
	assert.Empty(t, v.PrimaryID)

	v = Extract([]byte(`{"digest":"D1","effects":{"status":{"status":"success"},"created":[{"reference":{"objectId":"0x5"}}]}}`), Hint{})
	assert.True(t, v.Succeeded())
	require.Len(t, v.Created, 1)
	assert.Equal(t, "0x5", v.Created[0].ID)
	assert.Equal(t, "0x5", v.PrimaryID)

	v = Extract([]byte(`garbage`), Hint{})
	assert.NotNil(t, v)
	assert.Empty(t, v.Digest)
}
