package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"exsyn/config"
	"exsyn/rules"
	"exsyn/state"
	"exsyn/styles"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// destination returns writer for the first command argument or STDOUT when
// there is none.
func destination(env *state.LocalEnv, cmd *cli.Command) (io.WriteCloser, string, error) {
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	fname := cmd.Args().Get(0)
	if len(fname) == 0 {
		return nopCloser{os.Stdout}, "STDOUT", nil
	}
	out, err := os.Create(fname)
	if err != nil {
		return nil, fname, fmt.Errorf("unable to create destination file '%s': %w", fname, err)
	}
	return out, fname, nil
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	var (
		data []byte
		kind string
	)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		kind = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	out, fname, err := destination(env, cmd)
	if err != nil {
		return err
	}
	defer out.Close()

	env.Log.Info("Outputing configuration", zap.String("state", kind), zap.String("file", fname))
	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}

func outputStylesheet(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	out, fname, err := destination(env, cmd)
	if err != nil {
		return err
	}
	defer out.Close()

	env.Log.Info("Outputing stylesheet", zap.String("file", fname))
	if _, err := out.Write(styles.Stylesheet(env.Rules.Snapshot())); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}
	return nil
}

func listRules(ctx context.Context, _ *cli.Command) error {
	env := state.EnvFromContext(ctx)
	return writeRules(os.Stdout, env.Rules.Version(), env.Rules.Snapshot(), env.Engine.Containers())
}

// writeRules prints sequenced rule set, one rule per line.
func writeRules(w io.Writer, version string, set rules.Set, containers []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Rules version %s, searched in: %s\n\n", version, strings.Join(containers, " "))
	for i, r := range set {
		status := "disabled"
		if r.Enabled {
			status = "enabled"
		}
		if err := r.Validate(); err != nil {
			status += ", rejected: " + strings.ReplaceAll(err.Error(), "; ", ", ")
		}
		fmt.Fprintf(&b, "%2d. %-20s %-6s %-6s <%s class=%q", i+1, r.Label, r.Opening, r.Closing, r.Tag, strings.Join(r.ClassList(), " "))
		if len(r.Style) > 0 {
			fmt.Fprintf(&b, " style=%q", r.Style)
		}
		fmt.Fprintf(&b, "> [%s]\n", status)
		if len(r.Description) > 0 {
			fmt.Fprintf(&b, "    %s\n", r.Description)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
