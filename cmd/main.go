package main

import (
	"LicenseCrawler/internal"
	"LicenseCrawler/internal/license"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	storeFlag := &cli.StringFlag{
		Name:     "store",
		Aliases:  []string{"cache"},
		Usage:    "Path to the license store (see 'store build')",
		EnvVars:  []string{"LICENSE_CRAWLER_STORE"},
		Required: true,
	}

	app := &cli.App{
		Name:  "LicenseCrawler",
		Usage: "Detect which license the license-like files of a source tree carry",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "logfile",
				Usage: "Write logs into file instead of stderr",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: "warn",
			},
		},
		Before: func(c *cli.Context) error {
			internal.InitLogger(c.String("logfile"), c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "crawl",
				Usage:     "Identify every license file under a directory",
				ArgsUsage: "DIR",
				Flags: []cli.Flag{
					storeFlag,
					&cli.BoolFlag{
						Name:  "follow-links",
						Usage: "Descend into symlinked directories",
					},
					&cli.StringFlag{
						Name:  "glob",
						Usage: "Only look at files whose name matches this glob (default: license file names)",
					},
					&cli.IntFlag{
						Name:  "max-depth",
						Usage: "Max directory depth (0 - unlimited)",
					},
					&cli.BoolFlag{
						Name:  "hidden",
						Usage: "Also visit hidden files and directories",
					},
					&cli.BoolFlag{
						Name:  "no-ignore",
						Usage: "Do not honor .gitignore and .ignore files",
					},
					&cli.IntFlag{
						Name:  "cache-size",
						Usage: "Remember results for this many distinct file contents",
						Value: 512,
					},
				},
				Action: crawlAction,
			},
			{
				Name:      "identify",
				Usage:     "Identify the license of a single file",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{storeFlag},
				Action:    identifyAction,
			},
			{
				Name:  "store",
				Usage: "Manage license stores",
				Subcommands: []*cli.Command{
					{
						Name:  "build",
						Usage: "Build a store from license texts in a directory or archive",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "from",
								Usage:    "Directory or archive with <name>.txt and <name>.header.txt files",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "out",
								Usage:    "Where to write the store",
								Required: true,
							},
						},
						Action: storeBuildAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func crawlAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one DIR is required", 1)
	}
	ctx, stop := signalContext()
	defer stop()

	opts := internal.ScanOptions{
		Root:        c.Args().First(),
		StorePath:   c.String("store"),
		Glob:        c.String("glob"),
		FollowLinks: c.Bool("follow-links"),
		Depth:       c.Int("max-depth"),
		Hidden:      c.Bool("hidden"),
		NoIgnore:    c.Bool("no-ignore"),
		CacheSize:   c.Int("cache-size"),
	}
	if err := opts.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var stats internal.AppStats
	crawler := internal.NewLicenseCrawler(os.Stdout, os.Stderr)
	if err := crawler.Crawl(ctx, opts, &stats); err != nil {
		if ctx.Err() != nil {
			logrus.Warn("Crawl cancelled")
			return nil
		}
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func identifyAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one FILE is required", 1)
	}
	ctx, stop := signalContext()
	defer stop()

	crawler := internal.NewLicenseCrawler(os.Stdout, os.Stderr)
	res, err := crawler.Identify(ctx, c.String("store"), c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	switch res.Kind {
	case internal.ClassNotText:
		return cli.Exit(fmt.Sprintf("%s: not a readable text file", res.Path), 1)
	case internal.ClassFailed:
		return cli.Exit("", 1)
	}
	return nil
}

func storeBuildAction(c *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()

	entries, err := license.CollectEntries(ctx, c.String("from"))
	var merr *multierror.Error
	if errors.As(err, &merr) && len(entries) > 0 {
		// partial source: keep what could be read
		for _, e := range merr.Errors {
			logrus.WithError(e).Warn("License text skipped")
		}
	} else if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := license.SaveStore(c.String("out"), entries); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	logrus.Infof("Stored %d licenses in %s", len(entries), c.String("out"))
	return nil
}
