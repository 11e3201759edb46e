package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/petopia/pipecodec/history"
	"github.com/petopia/pipecodec/pipe"
	"github.com/petopia/pipecodec/recordstore"
	"github.com/spf13/cobra"
)

func (a *app) openStore() (*recordstore.Store, error) {
	return recordstore.Open(a.cfg.Store.Dir, &recordstore.Options{
		Compress: a.cfg.Store.Compress,
	})
}

func (a *app) openHistory() (*history.Store, error) {
	rs, err := a.openStore()
	if err != nil {
		return nil, err
	}
	return history.NewStore(rs), nil
}

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage service history of users",
	}
	cmd.AddCommand(a.historyGenCmd(), a.historyShowCmd(), a.historyAddCmd())
	return cmd
}

func (a *app) historyGenCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "gen [file]",
		Short: "Generate pending history for offerings",
		Long: `Reads offerings (records with "offeringId" and "name" fields) as
a JSON list or a pipe block and prints a pending history entry per
offering. With --user, offerings the user doesn't have yet are added
to their stored history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			offerings := history.OfferingsFromRecords(a.recordsFromInput(d))
			if user == "" {
				rec := history.Generate(offerings, time.Now())
				return a.writeValue(cmd.OutOrStdout(), pipe.Obj(rec))
			}
			hs, err := a.openHistory()
			if err != nil {
				return err
			}
			rec, err := hs.Init(user, offerings)
			if err != nil {
				return err
			}
			return a.writeValue(cmd.OutOrStdout(), pipe.Obj(rec))
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Store history of this user")
	return cmd
}

func (a *app) historyShowCmd() *cobra.Command {
	var user, searchKey string
	cmd := &cobra.Command{
		Use:   "show --user <user>",
		Short: "Show stored history of a user with blocks decoded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hs, err := a.openHistory()
			if err != nil {
				return err
			}
			rec, err := hs.Load(user)
			if err != nil {
				return err
			}
			return a.writeValue(cmd.OutOrStdout(), pipe.Obj(history.ParseServiceData(rec, searchKey)))
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User (required)")
	cmd.Flags().StringVar(&searchKey, "key", "", "Only decode values of keys with this prefix")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (a *app) historyAddCmd() *cobra.Command {
	var user, offering, status, notes string
	cmd := &cobra.Command{
		Use:   "add --user <user> --offering <id> --status <status>",
		Short: "Add a status entry to history of an offering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if offering == "" {
				return errors.New("--offering must not be empty")
			}
			hs, err := a.openHistory()
			if err != nil {
				return err
			}
			rec, err := hs.AddStatus(user, offering, status, notes)
			if err != nil {
				return err
			}
			block, _ := rec.GetString(offering)
			cur, _ := history.CurrentStatus(block)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", offering, cur)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User (required)")
	cmd.Flags().StringVar(&offering, "offering", "", "Offering id (required)")
	cmd.Flags().StringVar(&status, "status", "", "New status (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("offering")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}
