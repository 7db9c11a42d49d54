package repo

const (
	AppName = "PopChain"

	// CfgFileName is the default config name
	CfgFileName = "popchain.toml"

	// defaultRepoRoot is the path to the default config dir location.
	defaultRepoRoot = "~/.popchain"

	// rootPathEnvVar is the environment variable used to change the path root.
	rootPathEnvVar = "POPCHAIN_PATH"

	// EnvPrefix prefixes every environment override, e.g. POPCHAIN_LEDGER_RPC.
	EnvPrefix = "POPCHAIN"

	// SponsorSecretKeyEnv is the only source of the sponsor's secret material.
	SponsorSecretKeyEnv = EnvPrefix + "_SPONSOR_SECRET_KEY"

	sponsorSecretKeyPath = "sponsor.secret_key"
)

const (
	NetworkMainnet  = "mainnet"
	NetworkTestnet  = "testnet"
	NetworkDevnet   = "devnet"
	NetworkLocalnet = "localnet"

	// MistPerSui is the number of base units in one coin.
	MistPerSui = 1_000_000_000
)
