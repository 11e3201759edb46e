package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petopia/pipecodec/backup"
	"github.com/petopia/pipecodec/gas"
	"github.com/petopia/pipecodec/httputil"
	"github.com/petopia/pipecodec/log"
	"github.com/spf13/cobra"
)

func (a *app) newGasClient() *gas.Client {
	return &gas.Client{
		URL:    a.cfg.Script.URL,
		Secret: a.cfg.Script.Secret,
		Codec:  a.codec,
	}
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP proxy to the spreadsheet web app",
		Long: `Serves POST /api/gas with {"methodId": <1-8>, "payload": {...}}.
Calls are forwarded to the web app at SCRIPT_PROD_URL and responses
are normalized.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Script.URL == "" {
				return gas.ErrNotConfigured
			}
			if addr == "" {
				addr = a.cfg.Script.Addr
			}
			mux := http.NewServeMux()
			mux.Handle("/api/gas", gas.NewHandler(a.newGasClient()))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log.Logf("serving on %s\n", addr)
			return httputil.RunServer(ctx, httputil.NewServer(addr, mux))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (default from config)")
	return cmd
}

func (a *app) newTarget(ctx context.Context) (backup.Target, func(), error) {
	switch a.cfg.Backup.Target {
	case "s3":
		t, err := backup.NewS3Target(ctx, a.cfg.S3())
		return t, func() {}, err
	case "sftp":
		t, err := backup.NewSFTPTarget(a.cfg.SFTP())
		if err != nil {
			return nil, nil, err
		}
		return t, func() { log.IfErrf(t.Close()) }, nil
	}
	return nil, nil, errors.New("backup.target is not configured, must be 's3' or 'sftp'")
}

func (a *app) backupCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Upload a snapshot of the record store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			t, closeTarget, err := a.newTarget(ctx)
			if err != nil {
				return err
			}
			defer closeTarget()
			s, err := a.openStore()
			if err != nil {
				return err
			}
			m, err := backup.Run(ctx, s, t, a.cfg.Backup.Prefix, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", m.Name)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Timeout for the whole backup")
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	var snapshot, dir string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the record store from a snapshot",
		Long: `Downloads a snapshot (the newest one if --snapshot is not given)
into --dir, or the configured store directory. The store must not
be in use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			t, closeTarget, err := a.newTarget(ctx)
			if err != nil {
				return err
			}
			defer closeTarget()
			prefix := a.cfg.Backup.Prefix
			var m *backup.Manifest
			if snapshot == "" {
				m, err = backup.Latest(ctx, t, prefix)
			} else {
				m, err = backup.ReadManifest(ctx, t, prefix, snapshot)
			}
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.cfg.Store.Dir
			}
			if err = backup.Restore(ctx, t, prefix, m, dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s (%d entries) to %s\n", m.Name, m.Entries, dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Snapshot name e.g. 2026-01-02_150405")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to restore to")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Timeout for the whole restore")
	return cmd
}
