package cmd

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alec-rabold/zipkit/pkg/deflate"
	"github.com/alec-rabold/zipkit/pkg/header"
	"github.com/alec-rabold/zipkit/pkg/zipcrypto"
	"github.com/alec-rabold/zipkit/pkg/zipfile"
)

var (
	// VERSION is set during build
	VERSION string
)

var cfgFile string
var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zipkit",
	Short: "Inspect, verify, build and extract zip archives, locally or in S3",
	Long: `The zipkit CLI reads and writes zip archives, including Zip64 archives.
	Files can also be extracted from archives in S3 without downloading the
	entire object.

	example:

		zipkit list archive.zip
		zipkit extract archive.zip -f plan.txt
		zipkit extract -b myBucket -k myKey -f plan1.txt, path/to/plan3.txt
		zipkit create out.zip file1.txt dir/
		zipkit test archive.zip`,
	Version: VERSION,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose || viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(version string) {
	VERSION = version
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.zipkit.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log decode and compression details")
	rootCmd.PersistentFlags().String("password", "", "password for encrypted entries")
	rootCmd.PersistentFlags().Int("workers", 4, "number of entries read in parallel")
	_ = viper.BindPFlag("password", rootCmd.PersistentFlags().Lookup("password"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))

	viper.SetDefault("host", "unix")
	viper.SetDefault("level", deflate.DefaultLevel)
	viper.SetDefault("cache", 64)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".zipkit" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".zipkit")
	}

	viper.SetEnvPrefix("zipkit")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("Using config file: %s", viper.ConfigFileUsed())
	}
}

// archiveOptions builds archive options from the configuration.
func archiveOptions() (zipfile.Options, error) {
	host, err := header.ParseHostSystem(viper.GetString("host"))
	if err != nil {
		return zipfile.Options{}, err
	}
	return zipfile.Options{
		Host:      host,
		Level:     viper.GetInt("level"),
		Workers:   viper.GetInt("workers"),
		CacheSize: viper.GetInt("cache"),
		Cipher:    zipcrypto.Cipher{},
	}, nil
}

// password returns the configured password, nil when none is set.
func password() []byte {
	if p := viper.GetString("password"); p != "" {
		return []byte(p)
	}
	return nil
}
