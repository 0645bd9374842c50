// Package cmd is for command line interactions with the music application
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jjtimmons/music/config"
	"github.com/jjtimmons/music/internal/catalog"
	"github.com/jjtimmons/music/internal/logging"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// cfgFile is an optional path to a settings file, otherwise music.yaml
	// is looked for in the working directory and $HOME/.music
	cfgFile string

	// configErr is an error met reading the settings file, reported by the
	// first command that needs settings
	configErr error

	// fs is the filesystem every command works against
	fs = afero.NewOsFs()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "music",
	Short: `Prepare RNA sequence and structure features for a CNN.
Fold, annotate and one-hot encode RNA into HDF5 tensor stores`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// RootCmd is exposed for documentation generation
var RootCmd = rootCmd

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		rootCmd.PrintErrln("Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "settings file (default is ./music.yaml or $HOME/.music/music.yaml)")
	flags.String("log-level", "info", "minimum level logged: debug, info, warn or error")
	flags.Bool("log-json", false, "log JSON rather than human readable lines")
	flags.String("rnafold", "RNAfold", "RNA folding executable")
	flags.String("annotator", "parse_secondary_structure_v2", "structure annotation executable")
	flags.IntP("workers", "w", 0, "annotation processes run at once (default NumCPU-1)")
	flags.IntP("max-length", "l", 200, "columns in every one-hot matrix")
	flags.String("catalog", "", "sqlite catalog of generated tensor stores")

	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("fold.binary", flags.Lookup("rnafold"))
	viper.BindPFlag("annotate.binary", flags.Lookup("annotator"))
	viper.BindPFlag("dataset.max-length", flags.Lookup("max-length"))
	viper.BindPFlag("catalog.path", flags.Lookup("catalog"))
}

// initConfig reads in the settings file and environment variables
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("music")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.music")
	}

	viper.SetEnvPrefix("MUSIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			configErr = errors.Wrap(err, "reading settings")
		}
	}
}

// env is what every command needs: settings and a logger
type env struct {
	conf *config.Config
	log  *zap.Logger
}

// setup resolves the settings of cmd, with flags that were set overriding
// the settings file
func setup(cmd *cobra.Command) (*env, error) {
	if configErr != nil {
		return nil, configErr
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		w, _ := flags.GetInt("workers")
		viper.Set("annotate.workers", w)
	}
	if flags.Changed("log-json") {
		j, _ := flags.GetBool("log-json")
		viper.Set("log.console", !j)
	}

	conf, err := config.New()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(conf.Log.Level, conf.Log.Console)
	if err != nil {
		return nil, err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("settings file", zap.String("path", used))
	}
	return &env{conf: conf, log: log}, nil
}

// openCatalog opens the configured catalog, nil when none is configured
func (e *env) openCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if e.conf.Catalog.Path == "" {
		return nil, nil
	}
	c := catalog.New(e.conf.Catalog.Path)
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
