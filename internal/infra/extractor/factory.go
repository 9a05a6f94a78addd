package extractor

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/groovebox/internal/app/resolver"
	"github.com/osa030/groovebox/internal/infra/config"
)

// NewChainFromConfig creates the ordered extraction profile chain from
// configuration.
func NewChainFromConfig(cfg *config.Config) ([]resolver.Extractor, error) {
	if len(cfg.Resolver.Profiles) == 0 {
		return nil, errors.New("no extraction profiles configured")
	}

	var profiles []resolver.Extractor

	for i, pcfg := range cfg.Resolver.Profiles {
		var profile resolver.Extractor
		var err error
		zlog.Debug().Msgf("creating extraction profile: index=%d type=%s settings=%+v", i+1, pcfg.Type, pcfg.Settings)
		switch pcfg.Type {
		case "ytdlp":
			profile, err = NewYtdlpExtractor(pcfg.DisplayName, cfg.Resolver.SearchPrefix, cfg.Resolver.PreferredFormat, pcfg.Settings)

		default:
			return nil, errors.Newf("unsupported profile type: %s (profile index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create profile (index %d, type %s)", i, pcfg.Type)
		}

		profiles = append(profiles, profile)

		zlog.Info().Msgf("registered extraction profile: index=%d type=%s display_name=%s", i+1, pcfg.Type, pcfg.DisplayName)
	}

	return profiles, nil
}
