package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alec-rabold/zipkit/pkg/aws"
	"github.com/alec-rabold/zipkit/pkg/header"
	"github.com/alec-rabold/zipkit/pkg/zipfile"
)

var listCmd = &cobra.Command{
	Use:   "list [archive]",
	Short: "List the entries of a local or S3 zip archive",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := archiveOptions()
		if err != nil {
			return err
		}
		var records []*header.CentralRecord
		switch {
		case len(args) == 1:
			a, err := zipfile.OpenFile(args[0], opts)
			if err != nil {
				return err
			}
			for _, e := range a.Entries() {
				records = append(records, e.Header())
			}
			if c := a.Comment(); c != "" {
				defer fmt.Println(c)
			}
		case bucket != "" && key != "":
			x, err := zipfile.NewFileExtractor(cmd.Context(), aws.NewClient(viper.GetString("region")), bucket, key, opts)
			if err != nil {
				return err
			}
			if records, err = x.List(cmd.Context()); err != nil {
				return err
			}
		default:
			cmd.Usage()
			return fmt.Errorf("error: specify either an archive path or -b and -k")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "Length\tSize\tMethod\tCRC-32\tModified\tName\t")
		var total, ctotal uint64
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%d\t%s\t%08x\t%s\t%s\t\n", r.UncompressedSize, r.CompressedSize, r.Method,
				r.CRC32, header.FromDOS(r.ModTime, r.ModDate).Format("2006-01-02 15:04"), r.Name)
			total += r.UncompressedSize
			ctotal += r.CompressedSize
		}
		fmt.Fprintf(w, "%d\t%d\t\t\t\t%d files\t\n", total, ctotal, len(records))
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&key, "key", "k", "", "name of the S3 key (object)")
	listCmd.Flags().StringVarP(&bucket, "bucket", "b", "", "name of the S3 bucket")
}
