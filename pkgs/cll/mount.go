// Package cll provides utilities for building CLI applications with urfave/cli/v3.
package cll

import "github.com/urfave/cli/v3"

// Registerable is a subcommand that attaches itself to a root command.
type Registerable interface {
	Register(*cli.Command) *cli.Command
}

// Register applies each Registerable to root in order.
//
//	root := &cli.Command{Name: "logdest"}
//	root = cll.Register(root, resolveCmd, listCmd)
func Register(root *cli.Command, subs ...Registerable) *cli.Command {
	for _, s := range subs {
		root = s.Register(root)
	}

	return root
}

// EnvWithPrefix returns a constructor for environment variable sources that
// share a prefix, so env("LOG_LEVEL") reads LOGDEST_LOG_LEVEL when the prefix
// is "LOGDEST_".
func EnvWithPrefix(prefix string) func(strs ...string) cli.ValueSourceChain {
	return func(strs ...string) cli.ValueSourceChain {
		withPrefix := make([]string, len(strs))

		for i, str := range strs {
			withPrefix[i] = prefix + str
		}

		return cli.EnvVars(withPrefix...)
	}
}
