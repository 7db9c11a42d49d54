package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/popchain/popchain-core/internal/service"
	"github.com/popchain/popchain-core/internal/signer"
	"github.com/popchain/popchain-core/internal/submit"
	"github.com/popchain/popchain-core/pkg/crypto"
	"github.com/popchain/popchain-core/pkg/loggers"
	"github.com/popchain/popchain-core/pkg/repo"
)

const userKeyFlagName = "user-key"

func getRootPath(ctx *cli.Context) (string, error) {
	return repo.LoadRepoRootFromEnv(ctx.String("repo"))
}

func prepareRepo(ctx *cli.Context) (*repo.Repo, error) {
	p, err := getRootPath(ctx)
	if err != nil {
		return nil, err
	}
	r, err := repo.Load(p)
	if err != nil {
		return nil, err
	}
	loggers.Initialize(r.Config)
	return r, nil
}

// prepareService loads the repo and opens every backend. The caller closes
// the service.
func prepareService(ctx *cli.Context) (*service.Service, error) {
	r, err := prepareRepo(ctx)
	if err != nil {
		return nil, err
	}
	if r.Config.Monitor.Enable {
		startMonitor(r.Config.Monitor.Listen)
	}
	return service.Open(ctx.Context, r.Config)
}

func startMonitor(listen string) {
	logger := loggers.Logger(loggers.App)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(listen, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithField("err", err).Error("Metrics listener stopped")
		}
	}()
	logger.WithField("listen", listen).Info("Serving metrics")
}

// signerChoice signs with --user-key when given, otherwise with the sponsor.
func signerChoice(ctx *cli.Context) (submit.SignerChoice, error) {
	secret := ctx.String(userKeyFlagName)
	if secret == "" {
		return submit.Sponsored(), nil
	}
	scheme, seed, err := crypto.DecodeBech32PrivateKey(secret)
	if err != nil {
		return submit.SignerChoice{}, errors.Wrap(err, "decode user key")
	}
	if scheme != crypto.SchemeEd25519 {
		return submit.SignerChoice{}, errors.Errorf("unsupported key scheme %d", scheme)
	}
	key, err := crypto.Ed25519PrivateKeyFromSeed(seed)
	if err != nil {
		return submit.SignerChoice{}, err
	}
	return submit.UserSigned(signer.NewKeypair(key)), nil
}

type outcomeView struct {
	Kind      string   `json:"kind"`
	State     string   `json:"state"`
	Sponsored bool     `json:"sponsored"`
	Sender    string   `json:"sender"`
	Digest    string   `json:"digest,omitempty"`
	ObjectID  string   `json:"object_id,omitempty"`
	Category  string   `json:"category,omitempty"`
	Message   string   `json:"message,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// printOutcome prints the outcome and turns a failure into the command error.
func printOutcome(out *submit.Outcome) error {
	v := outcomeView{
		Kind:      string(out.Kind),
		State:     string(out.State),
		Sponsored: out.Sponsored,
		Sender:    out.Sender.String(),
		Digest:    out.Digest,
		ObjectID:  out.PrimaryID,
		Warnings:  out.Warnings,
	}
	if out.Error != nil {
		v.Category = out.Error.Category.String()
		v.Message = out.Error.UserMessage()
	}
	if err := pretty(v); err != nil {
		return err
	}
	if out.Error != nil {
		return cli.Exit(out.Error.UserMessage(), 1)
	}
	return nil
}

func pretty(d any) error {
	res, err := json.MarshalIndent(d, "", "\t")
	if err != nil {
		return err
	}
	fmt.Println(string(res))
	return nil
}

// withService runs action against an opened service and the signer choice
// named by the global flags.
func withService(action func(ctx *cli.Context, svc *service.Service, choice submit.SignerChoice) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		choice, err := signerChoice(ctx)
		if err != nil {
			return err
		}
		svc, err := prepareService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()
		return action(ctx, svc, choice)
	}
}

func cfgPath(root string) string {
	return filepath.Join(root, repo.CfgFileName)
}
