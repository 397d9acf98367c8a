package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onrik/logrus/filename"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thomas11/tumbleweed"
	"github.com/thomas11/tumbleweed/search"
)

var (
	ConfPath = "tumbleweed.toml"
	Quiet    bool
	Verbose  bool

	Drafts  bool
	Watch   bool
	Reindex bool
	Addr    string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&ConfPath, "config", "c", ConfPath, "Path to the site configuration file")
	rootCmd.PersistentFlags().BoolVarP(&Quiet, "quiet", "q", false, "Activate quiet log output")
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Activate verbose log output")
	rootCmd.PersistentFlags().BoolVarP(&Drafts, "drafts", "d", false, "Include posts with the 'draft' flag")

	serveCmd.Flags().StringVarP(&Addr, "addr", "a", "", "Interface bind address:port, overrides the configuration")
	serveCmd.Flags().BoolVarP(&Watch, "watch", "w", false, "Reindex on changes to the writing directory")
	serveCmd.Flags().BoolVarP(&Reindex, "reindex", "r", false, "Reindex before serving even when the index is on disk")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tumbleweed",
	Short: "A tumblelog over a search index",
	Long:  "tumbleweed indexes dated posts and serves or exports them as a paginated tumblelog with year, month and day archives",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		initLogging()
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tumblelog over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSite(func(site *tumbleweed.Site, onDisk bool) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !onDisk || Reindex {
				if _, err := site.Reindex(ctx, Drafts); err != nil {
					return err
				}
			}

			addr := site.Conf().Addr
			if len(Addr) > 0 {
				addr = Addr
			}
			srv := tumbleweed.NewServer(site, addr)
			if err := srv.Start(); err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(ctx)
			if Watch {
				g.Go(func() error { return site.WatchAndReindex(ctx, Drafts) })
			}
			g.Go(func() error {
				<-ctx.Done()
				log.Info("Shutting down..")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Stop(shutdownCtx)
			})
			return g.Wait()
		})
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the on-disk index from the writing directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSite(func(site *tumbleweed.Site, onDisk bool) error {
			if !onDisk {
				return errors.New("index requires db_file in the site configuration")
			}
			_, err := site.Reindex(context.Background(), Drafts)
			return err
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render every page of the tumblelog to out_dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSite(func(site *tumbleweed.Site, onDisk bool) error {
			ctx := context.Background()
			if !onDisk {
				if _, err := site.Reindex(ctx, Drafts); err != nil {
					return err
				}
			}
			return site.Export(ctx)
		})
	},
}

// withSite reads the configuration, opens the index and hands a site to fn.
// onDisk reports whether the index is a bolt file that survives restarts.
func withSite(fn func(site *tumbleweed.Site, onDisk bool) error) error {
	conf, err := tumbleweed.ReadConf(ConfPath)
	if err != nil {
		return err
	}

	var backend search.Backend
	onDisk := len(conf.DBFile) > 0
	if onDisk {
		be := search.NewBoltBackend(search.NewBoltConfig(conf.DBFile))
		if err := be.Open(); err != nil {
			return err
		}
		backend = be
	} else {
		backend = search.NewMemoryBackend()
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error(err)
		}
	}()

	return fn(tumbleweed.NewSite(conf, backend), onDisk)
}

func initLogging() {
	level := log.InfoLevel
	if Verbose {
		log.AddHook(filename.NewHook())
		level = log.DebugLevel
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if Quiet {
		level = log.ErrorLevel
	}
	log.SetLevel(level)
}
