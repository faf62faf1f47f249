package cmd

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/alec-rabold/zipkit/pkg/entry"
	"github.com/alec-rabold/zipkit/pkg/zipfile"
)

var testCmd = &cobra.Command{
	Use:   "test <archive>",
	Short: "Decompress every entry and verify its CRC-32",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := archiveOptions()
		if err != nil {
			return err
		}
		opts.CacheSize = -1
		a, err := zipfile.OpenFile(args[0], opts)
		if err != nil {
			return err
		}
		var n atomic.Int64
		err = a.Walk(cmd.Context(), password(), func(e *entry.Entry, data []byte) error {
			n.Add(1)
			return nil
		})
		if errors.Is(err, entry.ErrBadChecksum) {
			return fmt.Errorf("%s: archive is corrupt: %w", args[0], err)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d entries OK\n", args[0], n.Load())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}
