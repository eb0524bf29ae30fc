package admin

import (
	"fmt"
	"twitchbot/internal/app/domain/access"
	"twitchbot/internal/app/domain/message"
	"twitchbot/internal/app/infrastructure/config"
)

// Rules converts configured access rules. A rule without a role keeps the command's
// default threshold: the built-in one from DefaultRules, else access.DefaultThreshold.
func Rules(rules map[string]*config.AccessRule) (map[string]access.Rule, error) {
	out := make(map[string]access.Rule, len(rules))
	for name, r := range rules {
		if r == nil {
			continue
		}

		threshold := access.DefaultThreshold
		if d, ok := DefaultRules[name]; ok {
			threshold = d.Threshold
		}
		if r.Role != nil {
			role, err := message.RoleFromLevel(*r.Role)
			if err != nil {
				return nil, fmt.Errorf("commands.rules.%s: %w", name, err)
			}
			threshold = role
		}

		out[name] = access.Rule{
			Whitelist:     r.Whitelist,
			Blacklist:     r.Blacklist,
			WhitelistOnly: r.WhitelistOnly,
			Threshold:     threshold,
		}
	}
	return out, nil
}
