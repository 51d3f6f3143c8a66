package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"prizmora/pkg/gifx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "prizmora",
		Short:         "AI image fusion and coin minting service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	})
	root.AddCommand(newFramesCmd())
	return root
}

// newFramesCmd 本地拆帧，便于排查 GIF 兼容问题
func newFramesCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "frames <file.gif>",
		Short: "Split a GIF into PNG frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			frames, err := gifx.ExtractFrames(gifx.MediaTypeGIF, data)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			for i, f := range frames {
				name := filepath.Join(outDir, fmt.Sprintf("frame_%03d.png", i))
				if err := os.WriteFile(name, f, 0o644); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d frames to %s\n", len(frames), outDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "frames", "output directory")
	return cmd
}
