package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Faultbox/meshview/internal/config"
	"github.com/Faultbox/meshview/internal/handoff"
	"github.com/Faultbox/meshview/internal/viewer"
)

const fetchTimeout = 2 * time.Minute

func newFetchCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
			defer cancel()
			req, err := handoff.Fetch(ctx, &http.Client{}, args[0])
			if err != nil {
				return err
			}
			path, err := writeRequest(outDir, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", path, viewer.HumanSize(req.Size))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "dir", "d", ".", "Directory to save into")
	return cmd
}

func newGenerateCmd(g *globals) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "generate <image-url>",
		Short: "Turn an image into a model with the image-to-3D service",
		Long: fmt.Sprintf(`Submit an image (public URL or data URI), wait for the task and download
the resulting GLB. The API key comes from the config file or %s.`, config.APIKeyEnv),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			client, err := handoff.NewClient(handoff.Config{
				APIBase:      cfg.Handoff.APIBase,
				APIKey:       cfg.Handoff.APIKey,
				PollInterval: cfg.Handoff.PollInterval,
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Handoff.Timeout)
			defer cancel()
			out := cmd.OutOrStdout()
			req, err := client.Generate(ctx, args[0], func(t *handoff.Task) {
				fmt.Fprintf(out, "%s %s %d%%\n", t.ID, t.Status, t.Progress)
			})
			if err != nil {
				return err
			}
			path, err := writeRequest(outDir, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "saved %s (%s)\n", path, viewer.HumanSize(req.Size))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "dir", "d", ".", "Directory to save into")
	return cmd
}

func writeRequest(dir string, req viewer.LoadRequest) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(dir, req.Name)
	if err := os.WriteFile(path, req.Data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
