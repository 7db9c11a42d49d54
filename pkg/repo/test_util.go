package repo

import (
	"testing"
)

func MockRepo(t testing.TB) *Repo {
	cfg := DefaultConfig()
	cfg.Ledger.RPC = NetworkRPCMap[NetworkLocalnet]
	cfg.Ledger.PackageID = "0x000000000000000000000000000000000000000000000000000000000000c0de"
	cfg.Ledger.RegistryID = "0x00000000000000000000000000000000000000000000000000000000000000a1"
	cfg.Ledger.TreasuryID = "0x00000000000000000000000000000000000000000000000000000000000000b2"
	cfg.Ledger.FinalityPollInterval = Duration(0)
	cfg.Ledger.ReadRetryWait = Duration(0)
	return &Repo{
		RepoRoot: t.TempDir(),
		Config:   cfg,
	}
}
