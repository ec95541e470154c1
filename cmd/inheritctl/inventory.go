package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/goliatone/go-inherit/pkg/inventory"
	"github.com/goliatone/go-inherit/pkg/inventory/sqlitestore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print an inventory of every level as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.hierarchy(cmd)
			if err != nil {
				return err
			}
			snapshot := inventory.Capture(h, inventory.WithName(a.v.GetString(cfgKeyManifest)))
			payload, err := json.MarshalIndent(snapshot, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		},
	}
}

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and list inventory snapshots",
	}
	cmd.PersistentFlags().String("db", "", "snapshot database (default inventory.db)")
	_ = a.v.BindPFlag(cfgKeyInventoryPath, cmd.PersistentFlags().Lookup("db"))

	save := &cobra.Command{
		Use:   "save [name]",
		Short: "Capture the manifest's hierarchy and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.hierarchy(cmd)
			if err != nil {
				return err
			}
			store, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			name := a.v.GetString(cfgKeyManifest)
			if len(args) == 1 {
				name = args[0]
			}
			_, meta, err := inventory.Record(cmd.Context(), store, h, inventory.Meta{}, inventory.WithName(name))
			if err != nil {
				return err
			}
			a.logger.Info("snapshot saved", zap.String("id", meta.SnapshotID), zap.String("etag", meta.ETag))
			fmt.Fprintln(cmd.OutOrStdout(), meta.SnapshotID)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			metas, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tUPDATED\tETAG")
			for _, meta := range metas {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", meta.SnapshotID, meta.Name, meta.UpdatedAt.Format(time.RFC3339), meta.ETag)
			}
			return w.Flush()
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			snapshot, _, err := inventory.Get(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			payload, err := json.MarshalIndent(snapshot, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		},
	}

	cmd.AddCommand(save, list, show)
	return cmd
}

func (a *app) openStore(cmd *cobra.Command) (*sqlitestore.Store, error) {
	path := a.v.GetString(cfgKeyInventoryPath)
	store, err := sqlitestore.Open(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("inventory opened", zap.String("path", path))
	return store, nil
}
