package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alec-rabold/zipkit/pkg/aws"
	"github.com/alec-rabold/zipkit/pkg/zipfile"
)

var files, outFiles []string
var bucket, key, outDir string

var extractCmd = &cobra.Command{
	Use:   "extract [archive]",
	Short: "Extract one or more files from a local or S3 zip archive",
	Long: `Extracts the entries whose names contain one of the search terms.
	With -b and -k only the byte ranges holding the central directory and
	the requested entries are downloaded from S3.

	ex:
	zipkit extract archive.zip -f plan.txt
	zipkit extract archive.zip -d out/
	zipkit extract -b myBucket -k myKey -f plan.txt
	zipkit extract -b myBucket -k myKey -f plan.txt -o my/directory/plan.txt
	zipkit extract -b myBucket -k myKey -f plan1.txt -o plan1.txt -f plan2.txt -o plan2.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		remote := bucket != "" && key != ""
		if remote == (len(args) == 1) {
			cmd.Usage()
			return fmt.Errorf("error: specify either an archive path or -b and -k")
		}
		if len(outFiles) > 1 && (len(outFiles) != len(files)) {
			cmd.Usage()
			return fmt.Errorf("error: must specify one output file for every search term")
		}

		var records []*zipfile.File
		var err error
		if remote {
			records, err = extractRemote(cmd.Context())
		} else {
			records, err = extractLocal(args[0])
		}
		if err != nil {
			log.Errorf("error extracting files from archive, err: %v", err)
			return err
		}
		return writeRecords(records)
	},
}

func extractRemote(ctx context.Context) ([]*zipfile.File, error) {
	opts, err := archiveOptions()
	if err != nil {
		return nil, err
	}
	x, err := zipfile.NewFileExtractor(ctx, aws.NewClient(viper.GetString("region")), bucket, key, opts)
	if err != nil {
		return nil, err
	}
	return x.ExtractFiles(ctx, files, password())
}

func extractLocal(path string) ([]*zipfile.File, error) {
	opts, err := archiveOptions()
	if err != nil {
		return nil, err
	}
	a, err := zipfile.OpenFile(path, opts)
	if err != nil {
		return nil, err
	}
	var records []*zipfile.File
	for _, e := range a.Entries() {
		if !zipfile.MatchesAny(files, e.Name()) {
			continue
		}
		data, err := a.Read(e, password())
		if err != nil {
			return nil, err
		}
		records = append(records, &zipfile.File{Entry: e, Contents: data})
	}
	return records, nil
}

func writeRecords(records []*zipfile.File) error {
	switch {
	case outDir != "":
		for _, r := range records {
			if err := writeUnder(outDir, r); err != nil {
				return err
			}
		}
	case len(outFiles) == 0:
		for _, r := range records {
			fmt.Print(string(r.Contents))
		}
	case len(outFiles) == 1:
		var all []byte
		for _, r := range records {
			all = append(all, r.Contents...)
		}
		return appendFile(outFiles[0], all)
	default:
		outputMap := make(map[string]string) // searchTerm -> outputFile
		for i := range outFiles {
			outputMap[files[i]] = outFiles[i]
		}
		for _, r := range records {
			for term, out := range outputMap {
				if strings.Contains(r.Name(), term) {
					if err := appendFile(out, r.Contents); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// writeUnder recreates an entry below dir, refusing names that escape it.
func writeUnder(dir string, r *zipfile.File) error {
	name := filepath.FromSlash(strings.ReplaceAll(r.Name(), `\`, "/"))
	if !filepath.IsLocal(name) {
		return fmt.Errorf("refusing to extract %q outside %s", r.Name(), dir)
	}
	path := filepath.Join(dir, name)
	if r.IsDirectory() {
		return os.MkdirAll(path, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	mode := r.Mode()
	if mode == 0 {
		mode = 0o644
	}
	if err := os.WriteFile(path, r.Contents, mode); err != nil {
		log.Errorf("error writing to file (name: %s), err: %v", path, err)
		return err
	}
	return nil
}

func appendFile(name string, b []byte) error {
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Errorf("error opening file (name: %s), err: %v", name, err)
		return err
	}
	if _, err := f.Write(b); err != nil {
		log.Errorf("error writing to file (name: %s), err: %v", name, err)
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		log.Errorf("error closing file (name: %s), err: %v", name, err)
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.PersistentFlags().StringVarP(&key, "key", "k", "", "name of the S3 key (object)")
	extractCmd.PersistentFlags().StringVarP(&bucket, "bucket", "b", "", "name of the S3 bucket")
	extractCmd.PersistentFlags().String("region", "", "AWS region of the bucket")
	extractCmd.PersistentFlags().StringVarP(&outDir, "dir", "d", "", "directory to recreate the extracted entries in")
	extractCmd.PersistentFlags().StringSliceVarP(&outFiles, "out", "o", []string{}, "name(s) of the file(s) to write output to")
	extractCmd.PersistentFlags().StringSliceVarP(&files, "file", "f", []string{}, "names of the files/paths to extract (e.g. plan.txt, /path/to/plan.txt, /directory)")
	_ = viper.BindPFlag("region", extractCmd.PersistentFlags().Lookup("region"))
}
