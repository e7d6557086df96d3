package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/simmessa/fastview/internal/cache"
	"github.com/simmessa/fastview/internal/config"
	"github.com/simmessa/fastview/internal/ipc"
	"github.com/simmessa/fastview/internal/viewer"
)

func main() {
	root := &cobra.Command{
		Use:   "fastview [path]",
		Short: "Fast directory-browsing image viewer",
		Long: "fastview shows a scrollable thumbnail grid for a directory and a\n" +
			"zoomable single-image view. Thumbnails are generated in the background\n" +
			"and cached persistently. A second invocation activates the running\n" +
			"instance instead of starting a new one.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return run(path)
		},
		SilenceUsage: true,
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config, using defaults: %v", err)
		cfg = config.Default()
	}

	// A running instance takes over; we just hand it the path and exit.
	if err := ipc.Notify(cfg.SocketPath, path); err == nil {
		return nil
	}

	cachePath, err := cache.DefaultPath()
	if err != nil {
		return err
	}
	store, err := cache.Open(cachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	listener, err := ipc.Listen(cfg.SocketPath)
	if err != nil {
		return err
	}
	defer listener.Close()
	go listener.Run()

	app, err := viewer.NewApp(cfg, store, path)
	if err != nil {
		return err
	}
	app.SetActivationSource(listener.Paths())
	return app.Run()
}
