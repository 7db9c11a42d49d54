package sponsor

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/internal/signer"
	"github.com/popchain/popchain-core/pkg/crypto"
	"github.com/popchain/popchain-core/pkg/repo"
)

var ErrNotConfigured = errors.New("sponsor wallet not configured")

const (
	EncodingBech32 = "bech32"
	EncodingHex    = "hex"
	EncodingBase64 = "base64"
)

// byte offsets tried, in order, when the secret is raw base64 bytes
var legacySeedOffsets = []int{1, 0, 32, 33}

const seedSize = 32

type candidate struct {
	encoding string
	seed     []byte
}

// Wallet is the service-owned identity paying fees on behalf of users. It is
// loaded once and shared read-only.
type Wallet struct {
	keypair  *signer.Keypair
	encoding string
	verified bool
	client   ledger.Client
	logger   logrus.FieldLogger
}

// Load decodes the sponsor secret. The first decoding whose derived address
// equals cfg.ExpectedAddress wins; when none does, the first decoding is used
// unverified. A missing or undecodable secret yields ErrNotConfigured.
func Load(cfg repo.Sponsor, client ledger.Client, logger logrus.FieldLogger) (*Wallet, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, errors.Wrapf(ErrNotConfigured, "%s is empty", repo.SponsorSecretKeyEnv)
	}

	var expected *ledger.Address
	if cfg.ExpectedAddress != "" {
		addr, err := ledger.ParseAddress(cfg.ExpectedAddress)
		if err != nil {
			return nil, errors.Wrap(err, "invalid sponsor expected_address")
		}
		expected = &addr
	}

	var first *Wallet
	for _, c := range candidates(secret) {
		key, err := crypto.Ed25519PrivateKeyFromSeed(c.seed)
		if err != nil {
			continue
		}
		w := &Wallet{
			keypair:  signer.NewKeypair(key),
			encoding: c.encoding,
			client:   client,
			logger:   logger,
		}
		if expected != nil && w.keypair.Address() == *expected {
			w.verified = true
			return w, nil
		}
		if first == nil {
			first = w
		}
	}
	if first == nil {
		return nil, errors.Wrap(ErrNotConfigured, "secret key could not be decoded")
	}
	if expected != nil {
		logger.WithFields(logrus.Fields{
			"expected": expected.String(),
			"derived":  first.Address().String(),
			"encoding": first.encoding,
		}).Warn("Sponsor address does not match expected address, using best-effort decoding")
	} else {
		logger.WithField("address", first.Address().String()).Info("No expected sponsor address configured, address unverified")
	}
	return first, nil
}

func candidates(secret string) []candidate {
	if strings.HasPrefix(secret, crypto.PrivateKeyHRP) {
		scheme, seed, err := crypto.DecodeBech32PrivateKey(secret)
		if err != nil || scheme != crypto.SchemeEd25519 {
			return nil
		}
		return []candidate{{encoding: EncodingBech32, seed: seed}}
	}

	var out []candidate
	if raw, err := hex.DecodeString(strings.TrimPrefix(secret, "0x")); err == nil {
		switch len(raw) {
		case seedSize, 2 * seedSize:
			out = append(out, candidate{encoding: EncodingHex, seed: raw[:seedSize]})
		case seedSize + 1:
			out = append(out, candidate{encoding: EncodingHex, seed: raw[1:]})
		}
	}
	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil {
		for _, off := range legacySeedOffsets {
			if off+seedSize <= len(raw) {
				out = append(out, candidate{encoding: EncodingBase64, seed: raw[off : off+seedSize]})
			}
		}
	}
	return out
}

func (w *Wallet) Address() ledger.Address {
	return w.keypair.Address()
}

// Signer is safe for concurrent use.
func (w *Wallet) Signer() signer.Signer {
	return w.keypair
}

// Verified reports whether the key matched the configured expected address.
func (w *Wallet) Verified() bool {
	return w.verified
}

func (w *Wallet) Encoding() string {
	return w.encoding
}

// Funding is the result of a balance check against a minimum.
type Funding struct {
	Address    ledger.Address
	Balance    *uint256.Int
	Minimum    uint64
	Sufficient bool
	Coins      []ledger.Coin
}

// Message renders the check for humans, asking for funds when short.
func (f *Funding) Message() string {
	if f.Sufficient {
		return fmt.Sprintf("Sponsor wallet %s holds %s SUI.", f.Address, FormatSui(f.Balance))
	}
	return fmt.Sprintf("Sponsor wallet %s holds %s SUI but at least %s SUI is required. Please fund this address and try again.",
		f.Address, FormatSui(f.Balance), FormatSui(uint256.NewInt(f.Minimum)))
}

// CheckFunding sums every gas coin of the sponsor and compares the total with minimum.
func (w *Wallet) CheckFunding(ctx context.Context, minimum uint64) (*Funding, error) {
	coins, total, err := ledger.AllCoins(ctx, w.client, w.Address(), ledger.SuiCoinType)
	if err != nil {
		return nil, errors.Wrap(err, "read sponsor balance")
	}
	f := &Funding{
		Address:    w.Address(),
		Balance:    total,
		Minimum:    minimum,
		Sufficient: total.Cmp(uint256.NewInt(minimum)) >= 0,
		Coins:      coins,
	}
	w.logger.WithFields(logrus.Fields{
		"address":    f.Address.String(),
		"balance":    total.Dec(),
		"minimum":    minimum,
		"sufficient": f.Sufficient,
	}).Debug("Checked sponsor funding")
	return f, nil
}

// FormatSui renders a mist amount as a decimal SUI string.
func FormatSui(mist *uint256.Int) string {
	if mist == nil {
		return "0"
	}
	unit := uint256.NewInt(repo.MistPerSui)
	whole := new(uint256.Int).Div(mist, unit)
	frac := new(uint256.Int).Mod(mist, unit).Uint64()
	if frac == 0 {
		return whole.Dec()
	}
	return strings.TrimRight(fmt.Sprintf("%s.%09d", whole.Dec(), frac), "0")
}
