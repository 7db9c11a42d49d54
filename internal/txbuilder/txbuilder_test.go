package txbuilder

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popchain/popchain-core/internal/chainerr"
	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/pkg/bcs"
	"github.com/popchain/popchain-core/pkg/digest"
)

var targets = Targets{
	Package:  ledger.MustParseAddress("0xc0de"),
	Registry: ledger.MustParseAddress("0xa1"),
	Treasury: ledger.MustParseAddress("0xb2"),
}

const eventID = "0xe1"

func assertInvalidInput(t *testing.T, err error) {
	t.Helper()
	require.NotNil(t, err)
	var de *chainerr.DecodedError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, chainerr.InvalidInput, de.Category)
}

func TestCreateAccount(t *testing.T) {
	req, err := NewCreateAccount(" A@Example.com ", "attendee", "0x0")
	require.Nil(t, err)
	assert.Equal(t, "a@example.com", req.Email())
	assert.Equal(t, digest.Email("a@example.com"), req.EmailHash())
	assert.Equal(t, RoleAttendee, req.Role())
	assert.Equal(t, ledger.NoOwner, req.Owner())
	assert.Equal(t, AccountHint, req.Hint())

	call := req.Plan(targets)
	assert.Equal(t, "create_account", call.Function)
	require.Len(t, call.Args, 4)
	assert.Equal(t, ledger.ObjectInput(targets.Registry, true), call.Args[0])
	assert.Equal(t, bcs.ByteVector(req.EmailHash().Bytes()), call.Args[1].Pure)
	assert.Equal(t, bcs.U8(0), call.Args[2].Pure)
	assert.Equal(t, ledger.NoOwner.Bytes(), call.Args[3].Pure)

	req, err = NewCreateAccount("org@example.com", "Organizer", "")
	require.Nil(t, err)
	assert.Equal(t, RoleOrganizer, req.Role())
	assert.Equal(t, ledger.NoOwner, req.Owner())

	req, err = NewCreateAccount("p@example.com", "participant", "0x42")
	require.Nil(t, err)
	assert.Equal(t, RoleAttendee, req.Role())
	assert.Equal(t, ledger.MustParseAddress("0x42"), req.Owner())
}

func TestCreateAccountRejects(t *testing.T) {
	_, err := NewCreateAccount("not-an-email", "attendee", "0x0")
	assertInvalidInput(t, err)
	_, err = NewCreateAccount("a@example.com", "both", "0x0")
	assertInvalidInput(t, err)
	_, err = NewCreateAccount("a@example.com", "attendee", "xyz")
	assertInvalidInput(t, err)
	assert.Equal(t, "both", RoleBoth.String())
}

func TestValidEmail(t *testing.T) {
	for _, s := range []string{"a@example.com", "first.last+tag@sub.example.org"} {
		assert.True(t, ValidEmail(s), s)
	}
	for _, s := range []string{"", "a", "a@b", "@example.com", "A <a@example.com>", "a@@example.com", "a b@example.com"} {
		assert.False(t, ValidEmail(s), s)
	}
}

func TestWhitelistRequestsCarryDigestOnly(t *testing.T) {
	add, err := NewAddToWhitelist(eventID, "Guest@Example.com")
	require.Nil(t, err)
	assert.Equal(t, KindAddToWhitelist, add.Kind())
	assert.Equal(t, "guest@example.com", add.Email())

	call := add.Plan(targets)
	assert.Equal(t, "add_to_whitelist", call.Function)
	require.Len(t, call.Args, 2)
	assert.Equal(t, ledger.MustParseAddress(eventID), call.Args[0].Object)
	assert.Equal(t, bcs.ByteVector(digest.Email("guest@example.com").Bytes()), call.Args[1].Pure)
	assert.NotContains(t, string(call.Args[1].Pure), "guest")

	remove, err := NewRemoveFromWhitelist(eventID, "guest@example.com")
	require.Nil(t, err)
	assert.Equal(t, "remove_from_whitelist", remove.Plan(targets).Function)

	_, err = NewAddToWhitelist("0x0", "guest@example.com")
	assertInvalidInput(t, err)
	_, err = NewAddToWhitelist(eventID, "guest")
	assertInvalidInput(t, err)
}

func TestDeposit(t *testing.T) {
	req, err := NewDeposit(eventID, 5_000)
	require.Nil(t, err)
	call := req.Plan(targets)
	assert.EqualValues(t, 5_000, call.GasSplitTotal())
	assert.Equal(t, ledger.SplitGas(5_000), call.Args[1])

	_, err = NewDeposit(eventID, 0)
	assertInvalidInput(t, err)

	assert.Nil(t, CheckDepositFunds(uint256.NewInt(6_001), 5_000, 1_000))
	err = CheckDepositFunds(uint256.NewInt(6_000), 5_000, 1_000)
	require.NotNil(t, err)
	assert.Equal(t, chainerr.InsufficientFunds, chainerr.Decode(err).Category)
	assert.NotNil(t, CheckDepositFunds(nil, 1, 0))
}

func TestMintCertificate(t *testing.T) {
	req, err := NewMintCertificate(eventID, "0x99", "a@example.com", "https://cdn.example.com/c/1.png", 2)
	require.Nil(t, err)
	assert.Equal(t, "silver", req.TierName())
	assert.Equal(t, CertificateHint, req.Hint())

	call := req.Plan(targets)
	assert.Equal(t, "certificate", call.Module)
	require.Len(t, call.Args, 5)
	assert.Equal(t, bcs.ByteVector([]byte("https://cdn.example.com/c/1.png")), call.Args[2].Pure)
	assert.Equal(t, bcs.U8(2), call.Args[3].Pure)
	assert.Equal(t, ledger.MustParseAddress("0x99").Bytes(), call.Args[4].Pure)

	_, err = NewMintCertificate(eventID, "0x99", "a@example.com", "https://cdn.example.com/c/1.png", 4)
	assertInvalidInput(t, err)
	_, err = NewMintCertificate(eventID, "0x99", "a@example.com", "not a url", 0)
	assertInvalidInput(t, err)

	tier, err := ParseTier("Gold")
	require.Nil(t, err)
	assert.EqualValues(t, 3, tier)
	tier, err = ParseTier("1")
	require.Nil(t, err)
	assert.EqualValues(t, 1, tier)
	_, err = ParseTier("platinum")
	assertInvalidInput(t, err)
}

func TestTreasuryAndEventLifecycle(t *testing.T) {
	w, err := NewWithdrawTreasury(100)
	require.Nil(t, err)
	call := w.Plan(targets)
	assert.Equal(t, ledger.ObjectInput(targets.Treasury, true), call.Args[0])
	assert.Equal(t, bcs.U64(100), call.Args[1].Pure)
	_, err = NewWithdrawTreasury(0)
	assertInvalidInput(t, err)

	c, err := NewCloseEvent(eventID)
	require.Nil(t, err)
	assert.Equal(t, "close_event", c.Plan(targets).Function)

	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ev, err := NewCreateEvent("DevCon", "", start, start.Add(8*time.Hour))
	require.Nil(t, err)
	assert.Equal(t, EventHint, ev.Hint())
	assert.Len(t, ev.Plan(targets).Args, 5)
	_, err = NewCreateEvent("DevCon", "", start, start.Add(-time.Hour))
	assertInvalidInput(t, err)
	_, err = NewCreateEvent(" ", "", start, start)
	assertInvalidInput(t, err)

	l, err := NewLinkWallet("0xacc", "0x77")
	require.Nil(t, err)
	assert.Equal(t, "link_wallet", l.Plan(targets).Function)
	_, err = NewLinkWallet("0xacc", "0x0")
	assertInvalidInput(t, err)
}

func TestParseTargets(t *testing.T) {
	got, err := ParseTargets("0xc0de", "0xa1", "0xb2")
	require.Nil(t, err)
	assert.Equal(t, targets, got)
	_, err = ParseTargets("", "0xa1", "0xb2")
	assertInvalidInput(t, err)
}
