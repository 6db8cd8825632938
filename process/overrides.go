package process

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"exsyn/state"
)

// OverrideRules switches rules on and off by label for this invocation
// only. Unknown labels are reported all at once.
func OverrideRules(env *state.LocalEnv, enable, disable []string) (err error) {
	set := func(labels []string, enabled bool) {
		for _, label := range labels {
			r, e := env.Rules.Get(label)
			if e != nil {
				err = multierr.Append(err, e)
				continue
			}
			if r.Enabled == enabled {
				continue
			}
			r.Enabled = enabled
			if e := env.Rules.Put(r); e != nil {
				err = multierr.Append(err, e)
				continue
			}
			env.Log.Debug("Rule state changed from command line", zap.String("rule", label), zap.Bool("enabled", enabled))
		}
	}
	set(enable, true)
	set(disable, false)
	if err != nil {
		return fmt.Errorf("unable to override rules: %w", err)
	}
	return nil
}
