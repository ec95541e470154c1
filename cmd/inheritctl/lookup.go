package main

import (
	"encoding/json"
	"fmt"
	"sort"

	inherit "github.com/goliatone/go-inherit"
	"github.com/goliatone/go-inherit/pkg/zaplog"
	"github.com/spf13/cobra"
)

type keyFlags struct {
	level     string
	typeName  string
	qualifier string
}

func (f *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.level, "level", "l", "", "level to query")
	cmd.Flags().StringVarP(&f.typeName, "type", "t", "", "registered type name, e.g. string or duration")
	cmd.Flags().StringVarP(&f.qualifier, "qualifier", "q", "", "key qualifier")
}

func newResolveCmd(a *app) *cobra.Command {
	var (
		flags   keyFlags
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Find the explicit binding for a key, walking up from a level",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.level(cmd, flags.level)
			if err != nil {
				return err
			}
			key, err := a.key(flags.typeName, flags.qualifier)
			if err != nil {
				return err
			}
			trace := l.TraceBinding(key)
			out := cmd.OutOrStdout()
			if jsonOut {
				payload, err := json.MarshalIndent(trace, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(payload))
				return nil
			}
			for _, p := range trace.Levels {
				status := "miss"
				if p.Found {
					status = "hit  " + p.Source
				}
				fmt.Fprintf(out, "%-12s depth=%d %s\n", p.LevelName, p.Depth, status)
			}
			binding, ok := l.ExplicitBinding(key)
			if !ok {
				return fmt.Errorf("no explicit binding for %s visible from %s", key, l.Name())
			}
			fmt.Fprintln(out, binding)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the lookup trace as JSON")
	return cmd
}

func newConvertCmd(a *app) *cobra.Command {
	var (
		flags keyFlags
		value string
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a string value to a type with the converters visible from a level",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.level(cmd, flags.level)
			if err != nil {
				return err
			}
			key, err := a.key(flags.typeName, "")
			if err != nil {
				return err
			}
			errs := inherit.NewErrors(inherit.WithErrorsLogger(zaplog.NewStateLogger(a.logger)))
			converted, ok, err := inherit.Convert(l, value, key.Type(), errs, "inheritctl")
			out := cmd.OutOrStdout()
			for _, msg := range errs.Messages() {
				fmt.Fprintf(out, "warning: %s\n", msg.Error())
			}
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no converter for %s visible from %s", key.Type(), l.Name())
			}
			fmt.Fprintf(out, "%v (%T)\n", converted, converted)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&value, "value", "", "value to convert")
	return cmd
}

func newReservedCmd(a *app) *cobra.Command {
	var (
		flags keyFlags
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "reserved",
		Short: "Report whether a key is reserved at a level",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.level(cmd, flags.level)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if all {
				keys := l.ReservedKeys()
				names := make([]string, len(keys))
				for i, k := range keys {
					names[i] = k.String()
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			key, err := a.key(flags.typeName, flags.qualifier)
			if err != nil {
				return err
			}
			if l.IsReserved(key) {
				fmt.Fprintf(out, "%s is reserved at %s\n", key, l.Name())
			} else {
				fmt.Fprintf(out, "%s is not reserved at %s\n", key, l.Name())
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "list every key reserved at the level")
	return cmd
}
