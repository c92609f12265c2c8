/*
toHDF5 recursively coalesces one or more directory trees into a single HDF5
archive, preserving file contents, directory structure, soft/hard links and
basic POSIX metadata as the Packer's schema defines. The resulting archive
can be mounted read-only with h5vfs.
*/
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/csbrady-warwick/h5vfs/internal/logging"
	"github.com/csbrady-warwick/h5vfs/internal/packer"
	"github.com/csbrady-warwick/h5vfs/internal/policy"
)

// Version is the program version (filled in from the Makefile).
var Version = "0.1.0"

const (
	exitUsageError     = -1
	exitContainerError = 1
)

func rootCmd() *cobra.Command {
	cfg := policy.DefaultConfig()
	var argOutput string
	var argUpdatePolicy string
	var argSymlinkPolicy string
	var argChunk string

	cmd := &cobra.Command{
		Use:   "toHDF5 <directory> [<directory>...]",
		Short: "coalesce directory trees into a single HDF5 archive",
		Long: `toHDF5 recursively converts one or more directory trees into a single HDF5
file, storing contents, directory structure, and soft/hard links. If more
than one directory is given, an output filename must be specified with
--output. By default the output filename is the basename of the first
directory with an .h5 extension.

Accept/reject filters for files and directories, both glob and regex, can
be repeated on the command line. A file or directory must match at least
one accept expression if any exist, and must not match any reject
expression.`,
		Version: VersionString(),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if argUpdatePolicy != "" {
				cfg.UpdatePolicy = policy.UpdatePolicy(argUpdatePolicy)
			}
			if argSymlinkPolicy != "" {
				cfg.StoreExternalSymlinks = policy.ExternalSymlinkPolicy(argSymlinkPolicy)
			}
			if argChunk != "" {
				n, err := humanize.ParseBytes(argChunk)
				if err != nil {
					return fmt.Errorf("invalid --chunk value: %w", err)
				}
				cfg.Chunk = int64(n) //nolint:gosec
			}

			output, err := resolveOutput(args, argOutput)
			if err != nil {
				return err
			}

			rbuf := logging.NewRingBuffer(256, os.Stderr)

			res, err := packer.Run(packer.RunOptions{
				Roots:      args,
				OutputPath: output,
				Config:     cfg,
				Log:        rbuf,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "stored %d item(s), %s, in %s\n",
				res.ItemsStored, humanize.Bytes(res.BytesStored), res.Duration.Round(durationRoundTo))

			return nil
		},
	}

	cmd.Flags().StringVar(&argOutput, "output", "", "Output filename for the generated HDF5 file")
	cmd.Flags().StringArrayVar(&cfg.AcceptFileGlob, "acceptfile", nil, "A filename or wildcard that says what files to add to the archive")
	cmd.Flags().StringArrayVar(&cfg.AcceptFileRegex, "acceptfileregex", nil, "A grep-like regex for what files to add to the archive")
	cmd.Flags().StringArrayVar(&cfg.RejectFileGlob, "rejectfile", nil, "A filename or wildcard that says what files to exclude from the archive")
	cmd.Flags().StringArrayVar(&cfg.RejectFileRegex, "rejectfileregex", nil, "A grep-like regex for what files to exclude from the archive")
	cmd.Flags().StringArrayVar(&cfg.AcceptDirGlob, "acceptdir", nil, "A directory name or wildcard that says what directories to include")
	cmd.Flags().StringArrayVar(&cfg.AcceptDirRegex, "acceptdirregex", nil, "A grep-like regex for what directories to include")
	cmd.Flags().StringArrayVar(&cfg.RejectDirGlob, "rejectdir", nil, "A directory name or wildcard that says what directories to exclude")
	cmd.Flags().StringArrayVar(&cfg.RejectDirRegex, "rejectdirregex", nil, "A grep-like regex for what directories to exclude")
	cmd.Flags().StringVar(&argChunk, "chunk", "", "Chunk size for writing files into the archive (default 10MiB)")
	cmd.Flags().StringVar(&argUpdatePolicy, "updatepolicy", "", "Policy for updating already-stored files: never, always, filesize, filetime or hash")
	cmd.Flags().BoolVar(&cfg.NewRoots, "newroots", false, "Allow extending an existing archive with new root directories")
	cmd.Flags().StringVar(&argSymlinkPolicy, "storeexternalsymlinks", "", "Policy for symlinks pointing outside the base directory: ignore, file, singlefile or link")
	cmd.Flags().BoolVar(&cfg.AllowEmptyDirs, "allowemptydirs", false, "Keep empty directories in the archive instead of dropping them")

	return cmd
}

func main() {
	cmd := rootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		if errors.Is(err, errUsage) || errors.Is(err, policy.ErrBadPattern) || errors.Is(err, packer.ErrNewRootRequired) {
			os.Exit(exitUsageError)
		}
		os.Exit(exitContainerError)
	}
}
