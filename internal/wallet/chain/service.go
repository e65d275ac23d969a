package chain

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

//go:embed chains.toml
var defaultChainsTOML string

// Load decodes the embedded chain table and applies overrideFile on top of it when set.
// Keys missing from the override file keep their embedded values.
func Load(overrideFile string) (map[Chain]*Config, error) {
	var raw map[string]*Config
	if _, err := toml.Decode(defaultChainsTOML, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode embedded chain table")
	}

	configs := make(map[Chain]*Config, len(raw))
	for name, cfg := range raw {
		c, err := Parse(name)
		if err != nil {
			return nil, errors.Wrap(err, "invalid chain in embedded table")
		}
		cfg.Chain = c
		configs[c] = cfg
	}

	if overrideFile == "" {
		return configs, nil
	}

	var overrides map[string]toml.Primitive
	md, err := toml.DecodeFile(overrideFile, &overrides)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode chain override file %s", overrideFile)
	}

	for name, prim := range overrides {
		c, err := Parse(name)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid chain in %s", overrideFile)
		}

		cfg, ok := configs[c]
		if !ok {
			cfg = &Config{Chain: c}
			configs[c] = cfg
		}

		if err := md.PrimitiveDecode(prim, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to decode override for %s", c)
		}
		cfg.Chain = c
	}

	return configs, nil
}

// service 实现 Service 接口
type service struct {
	configs map[Chain]*Config
	enabled map[Chain]bool
}

// NewService 创建链配置服务. An empty enabled list enables every configured chain.
//
//nolint:ireturn
func NewService(configs map[Chain]*Config, enabled []Chain) Service {
	s := &service{
		configs: configs,
		enabled: make(map[Chain]bool, len(enabled)),
	}

	for _, c := range enabled {
		s.enabled[c] = true
	}

	return s
}

// GetChain 根据 chain 查询链配置
func (s *service) GetChain(c Chain) (*Config, error) {
	cfg, ok := s.configs[c]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownChain, "chain %s not configured", c)
	}

	return cfg, nil
}

// ListChains 查询所有链配置
func (s *service) ListChains() []*Config {
	result := make([]*Config, 0, len(s.configs))
	for _, cfg := range s.configs {
		result = append(result, cfg)
	}

	sortConfigs(result)

	return result
}

// EnabledChains 查询启用的链配置
func (s *service) EnabledChains() []*Config {
	if len(s.enabled) == 0 {
		return s.ListChains()
	}

	result := make([]*Config, 0, len(s.enabled))
	for c := range s.enabled {
		if cfg, ok := s.configs[c]; ok {
			result = append(result, cfg)
		}
	}

	sortConfigs(result)

	return result
}

// ParseRPCURLs 解析 RPC URL（支持多个，逗号分隔）
func (s *service) ParseRPCURLs(rpcURL string) []string {
	return ParseURLs(rpcURL)
}

// ParseURLs splits a comma separated endpoint list, dropping blanks.
func ParseURLs(rpcURL string) []string {
	if rpcURL == "" {
		return nil
	}

	urls := strings.Split(rpcURL, ",")
	result := make([]string, 0, len(urls))

	for _, url := range urls {
		url = strings.TrimSpace(url)
		if url != "" {
			result = append(result, url)
		}
	}

	return result
}

func sortConfigs(configs []*Config) {
	order := make(map[Chain]int, len(All()))
	for i, c := range All() {
		order[c] = i
	}

	sort.Slice(configs, func(i, j int) bool {
		return order[configs[i].Chain] < order[configs[j].Chain]
	})
}
