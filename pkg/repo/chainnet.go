package repo

var NetworkRPCMap = map[string]string{
	NetworkMainnet:  "https://fullnode.mainnet.sui.io:443",
	NetworkTestnet:  "https://fullnode.testnet.sui.io:443",
	NetworkDevnet:   "https://fullnode.devnet.sui.io:443",
	NetworkLocalnet: "http://127.0.0.1:9000",
}

// RPCForNetwork returns the public fullnode endpoint of a named network.
func RPCForNetwork(network string) (string, bool) {
	rpc, ok := NetworkRPCMap[network]
	return rpc, ok
}
