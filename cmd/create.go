package cmd

import (
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alec-rabold/zipkit/pkg/entry"
	"github.com/alec-rabold/zipkit/pkg/zipfile"
)

var comment string

var createCmd = &cobra.Command{
	Use:   "create <archive> <path>...",
	Short: "Create a zip archive from files and directories",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := archiveOptions()
		if err != nil {
			return err
		}
		a := zipfile.New(opts)
		for _, root := range args[1:] {
			if err := addTree(a, root); err != nil {
				return err
			}
		}
		if err := a.SetComment(comment); err != nil {
			return err
		}
		log.Debugf("writing %d entries to %s", len(a.Entries()), args[0])
		return a.WriteFile(args[0])
	},
}

// addTree adds root and everything below it, named relative to root's
// parent directory.
func addTree(a *zipfile.Archive, root string) error {
	base := filepath.Dir(filepath.Clean(root))
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)
		if d.IsDir() {
			_, err = a.AddFile(name+"/", nil, entry.FromMetadataOf(fi))
			return err
		}
		if !fi.Mode().IsRegular() {
			log.Debugf("skipping %s: not a regular file", path)
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Errorf("error reading file (name: %s), err: %v", path, err)
			return err
		}
		_, err = a.AddFile(name, data, entry.FromMetadataOf(fi))
		return err
	})
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&comment, "comment", "c", "", "archive comment")
}
