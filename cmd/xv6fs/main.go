package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	xv6fs "github.com/weberc2/xv6fs/pkg/fs"
	. "github.com/weberc2/xv6fs/pkg/types"
)

func main() {
	defaults := xv6fs.DefaultFormatParams()
	app := cli.App{
		Name:        appName,
		Usage:       "inspect and modify xv6 file system images",
		Description: "a command line client for xv6 file system images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML config file",
				Value:   DefaultConfigFile(),
				EnvVars: []string{envVarPrefix + "_CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "path to the image file",
			},
			&cli.IntFlag{
				Name:  "cache-capacity",
				Usage: "number of buffers in the block cache",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "one of trace, debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "`text` or `json`",
			},
			&cli.BoolFlag{
				Name:  "read-only",
				Usage: "refuse to modify the image",
			},
		},
		Commands: []*cli.Command{{
			Name:        "info",
			Description: "print the superblock, usage and cache statistics",
			Action: withFS(false, func(c *command) error {
				return printInfo(c.ctx.App.Writer, c.fsys)
			}),
		}, {
			Name:        "ls",
			Aliases:     []string{"list"},
			Usage:       "ls [-d] [-R] [path]",
			Description: "list a directory (defaults to `/`)",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "directory",
					Aliases: []string{"d"},
					Usage:   "list the entry itself rather than its content",
				},
				&cli.BoolFlag{
					Name:    "recursive",
					Aliases: []string{"R"},
					Usage:   "list subdirectories too",
				},
			},
			Action: withFS(false, func(c *command) error {
				p := c.arg(0, "/")
				switch {
				case c.ctx.Bool("directory"):
					return c.fsys.ListEntry(c.ctx.App.Writer, p)
				case c.ctx.Bool("recursive"):
					return c.fsys.ListTree(c.ctx.App.Writer, p)
				}
				return c.fsys.ListPath(c.ctx.App.Writer, p)
			}),
		}, {
			Name:        "stat",
			Usage:       "stat <path>",
			Description: "print an inode as JSON",
			Action: withFS(false, func(c *command) error {
				p, err := c.required(0, "path")
				if err != nil {
					return err
				}
				stat, err := c.fsys.Stat(p)
				if err != nil {
					return err
				}
				return printJSON(c.ctx.App.Writer, &stat)
			}),
		}, {
			Name:        "cat",
			Usage:       "cat <file>",
			Description: "print a file's content",
			Action: withFS(false, func(c *command) error {
				p, err := c.required(0, "file")
				if err != nil {
					return err
				}
				return catFile(c.ctx.App.Writer, c.fsys, p)
			}),
		}, {
			Name:        "creat",
			Aliases:     []string{"touch"},
			Usage:       "creat <file>",
			Description: "create an empty regular file",
			Action: withFS(true, func(c *command) error {
				p, err := c.required(0, "file")
				if err != nil {
					return err
				}
				ino, err := createFile(c.fsys, p)
				if err != nil {
					return err
				}
				c.logger.WithField("ino", ino).Info("created file")
				return nil
			}),
		}, {
			Name:        "mkdir",
			Usage:       "mkdir <dir>",
			Description: "create a directory",
			Action: withFS(true, func(c *command) error {
				p, err := c.required(0, "dir")
				if err != nil {
					return err
				}
				ino, err := c.fsys.MakeDirectory(p)
				if err != nil {
					return err
				}
				c.logger.WithField("ino", ino).Info("created directory")
				return nil
			}),
		}, {
			Name:        "unlink",
			Aliases:     []string{"rm"},
			Usage:       "unlink <path>",
			Description: "remove a directory entry",
			Action: withFS(true, func(c *command) error {
				p, err := c.required(0, "path")
				if err != nil {
					return err
				}
				return c.fsys.Unlink(p)
			}),
		}, {
			Name:  "link",
			Usage: "link <old> <new>",
			Description: "point the existing regular file <new> at the " +
				"inode of <old>",
			Action: withFS(true, func(c *command) error {
				oldPath, err := c.required(0, "old")
				if err != nil {
					return err
				}
				newPath, err := c.required(1, "new")
				if err != nil {
					return err
				}
				return c.fsys.Link(oldPath, newPath)
			}),
		}, {
			Name:        "sync",
			Description: "write any dirty blocks back to the image",
			Action: withFS(true, func(c *command) error {
				written, err := c.fsys.Sync()
				if err != nil {
					return err
				}
				c.logger.WithField("blocks", written).Info("synced")
				return nil
			}),
		}, {
			Name:        "upload",
			Usage:       "upload <path> [host-file]",
			Description: "copy a file in the image out to the host",
			Action: withFS(false, func(c *command) error {
				p, err := c.required(0, "path")
				if err != nil {
					return err
				}
				host, err := upload(c.fsys, p, c.arg(1, ""))
				if err != nil {
					return err
				}
				c.logger.WithField("host", host).Info("uploaded")
				return nil
			}),
		}, {
			Name:        "uploadtree",
			Usage:       "uploadtree <host-file>",
			Description: "write the recursive listing of `/` to a host file",
			Action: withFS(false, func(c *command) error {
				host, err := c.required(0, "host-file")
				if err != nil {
					return err
				}
				return uploadTree(c.fsys, host)
			}),
		}, {
			Name:        "download",
			Usage:       "download <host-file> [path]",
			Description: "copy a host file into the image",
			Action: withFS(true, func(c *command) error {
				host, err := c.required(0, "host-file")
				if err != nil {
					return err
				}
				p, ino, err := download(c.fsys, host, c.arg(1, "/"))
				if err != nil {
					return err
				}
				c.logger.WithFields(logrus.Fields{
					"path": p,
					"ino":  ino,
				}).Info("downloaded")
				return nil
			}),
		}, {
			Name:        "mkfs",
			Description: "create a fresh, empty image",
			Flags: []cli.Flag{
				&cli.UintFlag{
					Name:  "size",
					Usage: "total blocks in the image",
					Value: uint(defaults.Size),
				},
				&cli.UintFlag{
					Name:  "inodes",
					Usage: "number of inodes",
					Value: uint(defaults.Inodes),
				},
				&cli.UintFlag{
					Name:  "log-blocks",
					Usage: "number of (unused) log blocks",
					Value: uint(defaults.LogBlocks),
				},
			},
			Action: mkfs,
		}, {
			Name:        "shell",
			Description: "run an interactive session against the image",
			Action: func(ctx *cli.Context) error {
				config, err := configFromContext(ctx)
				if err != nil {
					return err
				}
				return withFS(!config.ReadOnly, func(c *command) error {
					sh := newShell(c.fsys, c.ctx.App.Writer, c.logger)
					return sh.run(os.Stdin, isTTY())
				})(ctx)
			},
		}},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

type command struct {
	ctx    *cli.Context
	fsys   *xv6fs.FileSystem
	logger logrus.FieldLogger
}

func (c *command) arg(i int, def string) string {
	if c.ctx.NArg() > i {
		return c.ctx.Args().Get(i)
	}
	return def
}

func (c *command) required(i int, name string) (string, error) {
	if c.ctx.NArg() <= i {
		return "", fmt.Errorf("missing argument: %s", name)
	}
	return c.ctx.Args().Get(i), nil
}

// configFromContext loads the config file and environment and then applies
// any command line flags on top.
func configFromContext(ctx *cli.Context) (*Config, error) {
	config, err := LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, err
	}
	if ctx.IsSet("image") {
		config.Image = ctx.String("image")
	}
	if ctx.IsSet("cache-capacity") {
		config.CacheCapacity = ctx.Int("cache-capacity")
	}
	if ctx.IsSet("log-level") {
		config.LogLevel = ctx.String("log-level")
	}
	if ctx.IsSet("log-format") {
		config.LogFormat = ctx.String("log-format")
	}
	if ctx.IsSet("read-only") {
		config.ReadOnly = ctx.Bool("read-only")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// withFS mounts the configured image around `f`. Commands which `mutate` the
// image take an exclusive lock and are synced before the image is closed;
// the rest mount read-only under a shared lock.
func withFS(mutates bool, f func(*command) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		config, err := configFromContext(ctx)
		if err != nil {
			return err
		}
		base, err := config.Logger(ctx.App.ErrWriter)
		if err != nil {
			return err
		}
		logger := base.WithFields(logrus.Fields{
			"session": uuid.New().String(),
			"image":   config.Image,
			"command": ctx.Command.Name,
		})

		readOnly := config.ReadOnly || !mutates
		file, err := openImage(config.Image, readOnly)
		if err != nil {
			return err
		}
		defer file.Close()

		fsys, err := xv6fs.Mount(&xv6fs.MountParams{
			Device:        file,
			CacheCapacity: config.CacheCapacity,
			ReadOnly:      readOnly,
			Logger:        logger,
		})
		if err != nil {
			return fmt.Errorf("mounting `%s`: %w", config.Image, err)
		}

		err = f(&command{ctx: ctx, fsys: fsys, logger: logger})
		if readOnly {
			return err
		}
		written, syncErr := fsys.Sync()
		if syncErr != nil {
			logger.WithError(syncErr).Error("syncing image")
			if err == nil {
				err = syncErr
			}
		}
		if err := file.Sync(); err != nil {
			logger.WithError(err).Error("flushing image file")
		}
		logger.WithFields(logrus.Fields{
			"written": written,
			"cache":   fsys.Cache().Stats(),
		}).Debug("closing image")
		return err
	}
}

func mkfs(ctx *cli.Context) error {
	config, err := configFromContext(ctx)
	if err != nil {
		return err
	}
	logger, err := config.Logger(ctx.App.ErrWriter)
	if err != nil {
		return err
	}
	if config.ReadOnly {
		return fmt.Errorf("formatting `%s`: %w", config.Image, xv6fs.ReadOnlyErr)
	}
	params := xv6fs.FormatParams{
		Size:      Block(ctx.Uint("size")),
		Inodes:    Ino(ctx.Uint("inodes")),
		LogBlocks: Block(ctx.Uint("log-blocks")),
	}
	file, err := createImage(config.Image, int64(params.Size.Offset()))
	if err != nil {
		return err
	}
	defer file.Close()
	if err := xv6fs.Format(file, &params, logger); err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("flushing image `%s`: %w", config.Image, err)
	}
	logger.WithField("image", config.Image).Info("formatted")
	return nil
}
