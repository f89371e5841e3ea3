package config

import "fmt"

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.P2P.Port < 0 || cfg.P2P.Port > 65535 {
		return fmt.Errorf("p2p.port must be in range [0, 65535]")
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	if cfg.P2P.MaxRetries < 0 {
		return fmt.Errorf("p2p.maxretries must be non-negative")
	}
	if cfg.P2P.MaxFailedRequests <= 0 {
		return fmt.Errorf("p2p.maxfailedrequests must be positive")
	}
	if cfg.P2P.RetryDelay < 0 {
		return fmt.Errorf("p2p.retrydelay must be non-negative")
	}
	if cfg.P2P.BanDuration < 0 {
		return fmt.Errorf("p2p.banduration must be non-negative")
	}
	return nil
}
