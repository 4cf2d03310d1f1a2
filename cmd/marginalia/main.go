package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"marginalia/internal/app"
	"marginalia/internal/store"
	synceng "marginalia/internal/sync"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "marginalia",
	Short:         "Offline-capable local replica for a read-it-later account",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile local changes with the remote service",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Load(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Remote == nil {
			return synceng.ErrNoClientInformation
		}

		opts := synceng.DefaultOptions()
		opts.Folders, _ = cmd.Flags().GetBool("folders")
		opts.Bookmarks, _ = cmd.Flags().GetBool("bookmarks")
		opts.Folder, _ = cmd.Flags().GetInt64("folder")
		opts.SingleFolder, _ = cmd.Flags().GetBool("single-folder")
		opts.SkipOrphanCleanup, _ = cmd.Flags().GetBool("keep-orphans")

		syncer := a.NewSyncer()
		syncer.StatusUpdates().Subscribe(func(status synceng.Status) {
			if status.Title != "" {
				a.Logger.Infof("sync: %s %q", status.Operation, status.Title)
				return
			}
			a.Logger.Infof("sync: %s", status.Operation)
		})

		return syncer.Sync(cmd.Context(), opts)
	},
}

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Capture a URL for later reading",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Load(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer a.Close()

		url := args[0]
		title, _ := cmd.Flags().GetString("title")
		if _, err := a.CaptureURL(cmd.Context(), url, title); err != nil {
			return err
		}
		a.Logger.Infof("captured %s; it will appear after the next sync", url)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list [folder-id]",
	Short: "List folders, or the bookmarks of one folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Load(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if len(args) == 0 {
			return listFolders(ctx, a.Store)
		}

		folderDBID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid folder id %q: %w", args[0], err)
		}
		return listBookmarks(ctx, a.Store, folderDBID)
	},
}

func listFolders(ctx context.Context, st *store.Store) error {
	folders, err := st.ListCurrentFolders(ctx)
	if err != nil {
		return err
	}
	for _, f := range folders {
		synced := f.FolderID
		if synced == "" {
			synced = "(unsynced)"
		}
		fmt.Printf("%d\t%s\t%s\n", f.ID, synced, f.Title)
	}
	return nil
}

func listBookmarks(ctx context.Context, st *store.Store, folderDBID int64) error {
	bookmarks, err := st.ListCurrentBookmarks(ctx, folderDBID)
	if err != nil {
		return err
	}
	for _, b := range bookmarks {
		star := " "
		if b.Starred {
			star = "*"
		}
		fmt.Printf("%d\t%s %3.0f%%\t%s\t%s\n", b.ID, star, b.Progress*100, b.Title, b.URL)
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config.yaml", "path to the configuration file")

	syncCmd.Flags().Bool("folders", true, "reconcile folders")
	syncCmd.Flags().Bool("bookmarks", true, "reconcile bookmarks")
	syncCmd.Flags().Int64("folder", 0, "local folder id to sync first")
	syncCmd.Flags().Bool("single-folder", false, "restrict bookmark sync to the named folder")
	syncCmd.Flags().Bool("keep-orphans", false, "leave unmatched bookmarks quarantined instead of deleting them")

	addCmd.Flags().String("title", "", "title for the captured URL (scraped from the page when empty)")

	rootCmd.AddCommand(syncCmd, addCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
