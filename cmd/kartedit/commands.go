package main

import (
	"fmt"

	"github.com/kartedit/kartedit/pkg"
	"github.com/kartedit/kartedit/pkg/rom"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info IMAGE",
		Short: "Show the region, fingerprint and tracks of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, err := pkg.OpenGame(args[0], newLogger())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			h := game.Header()
			fmt.Fprintf(out, "Title:       %s\n", h.Title)
			fmt.Fprintf(out, "Region:      %s\n", game.Region())
			fmt.Fprintf(out, "Version:     1.%d\n", h.Version)
			fmt.Fprintf(out, "Checksum:    %#04x\n", h.Checksum)
			fmt.Fprintf(out, "Fingerprint: %s\n", game.Fingerprint())
			if game.HasCopierHeader() {
				fmt.Fprintf(out, "Copier header: %d bytes\n", rom.CopierHeaderSize)
			}

			fmt.Fprintln(out)
			for _, track := range game.Tracks() {
				fmt.Fprintf(out, "%2d  %-6s %-24s theme %-10s AI %3d elements\n",
					track.Index(), track.Kind(), track.Name(), track.Theme(), track.AI().Len())
			}
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify IMAGE",
		Short: "Check the structure and checksum of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pkg.VerifyImageWithLogger(args[0], newLogger()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Image verification passed")
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export IMAGE TRACK FILE",
		Short: "Export a track to an SMKC or MKT file",
		Long:  "Export a track, given by index or name, to FILE. Files ending in .mkt get the map and theme; others are written as SMKC.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			game, err := pkg.OpenGame(args[0], logger)
			if err != nil {
				return err
			}
			index, err := pkg.FindTrack(game, args[1])
			if err != nil {
				return err
			}
			return pkg.ExportTrack(game, index, args[2], mapOnly, logger)
		},
	}
	cmd.Flags().BoolVar(&mapOnly, "map-only", false, "Write the bare map")
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import IMAGE TRACK FILE",
		Short: "Replace a track with the content of an SMKC or MKT file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			game, err := pkg.OpenGame(args[0], logger)
			if err != nil {
				return err
			}
			index, err := pkg.FindTrack(game, args[1])
			if err != nil {
				return err
			}
			if err := pkg.ImportTrack(game, index, args[2], logger); err != nil {
				return err
			}
			return save(cmd, game, args[0])
		},
	}
	addSaveFlags(cmd)
	return cmd
}

func newTextsCmd() *cobra.Command {
	texts := &cobra.Command{
		Use:   "texts",
		Short: "Export or import the game texts as JSON",
	}

	texts.AddCommand(&cobra.Command{
		Use:   "export IMAGE FILE",
		Short: "Write the texts and rank points to a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, err := pkg.OpenGame(args[0], newLogger())
			if err != nil {
				return err
			}
			return pkg.ExportTexts(game, args[1])
		},
	})

	importCmd := &cobra.Command{
		Use:   "import IMAGE FILE",
		Short: "Apply texts and rank points from a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			game, err := pkg.OpenGame(args[0], newLogger())
			if err != nil {
				return err
			}
			if err := pkg.ImportTexts(game, args[1]); err != nil {
				return err
			}
			return save(cmd, game, args[0])
		},
	}
	addSaveFlags(importCmd)
	texts.AddCommand(importCmd)

	return texts
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore BACKUP IMAGE",
		Short: "Write the image held by a backup back to IMAGE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pkg.RestoreBackup(args[0], args[1], newLogger()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored: %s\n", args[1])
			return nil
		},
	}
}

func addSaveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the edited image here instead of over IMAGE")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Do not back up the image before overwriting it")
}

func save(cmd *cobra.Command, game *rom.Game, imagePath string) error {
	target := outputPath
	if target == "" {
		target = imagePath
	}
	if !game.Modified() {
		if outputPath == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No changes, writing an unmodified copy")
	}

	opts := pkg.SaveOptions{Backup: cfg.Backup && !noBackup, BackupDir: backupDir, Compression: cfg.BackupCompression}
	backup, err := pkg.SaveGame(game, target, opts, newLogger())
	if err != nil {
		return err
	}
	if backup != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Backup: %s\n", backup)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", target)
	return nil
}
