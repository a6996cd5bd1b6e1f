package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/swfbmp"
	"github.com/bodgit/swfbmp/bitmap"
	"github.com/bodgit/swfbmp/diff"
	_ "github.com/bodgit/swfbmp/pam"
	"github.com/urfave/cli/v2"
	_ "golang.org/x/image/bmp"
)

const defaultDB = "swfbmp.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func withConverter(c *cli.Context, fn func(*swfbmp.Converter) error) error {
	m, err := swfbmp.New(c.String("db"), newLogger(c))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer m.Close()

	if err := fn(m); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

// readImage decodes any registered image format, X-SWF-BMP and PAM included.
func readImage(file string) (*bitmap.Bitmap, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return bitmap.FromImage(m), nil
}

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	for _, file := range c.Args().Slice() {
		b, err := ioutil.ReadFile(file)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		cfg, err := bitmap.DecodeConfig(b)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("%s: %w", file, err), 1)
		}

		fmt.Fprintf(c.App.Writer, "%s: format %d, %dx%d, %d colors\n", file, cfg.FormatCode, cfg.Width, cfg.Height, cfg.PaletteCount)
	}

	return nil
}

func compare(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	actual, err := readImage(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	expected, err := readImage(c.Args().Get(1))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	result := diff.Compare(actual, expected, &diff.Options{
		Warn:  uint32(c.Uint("warn")),
		Error: uint32(c.Uint("error")),
	})

	fmt.Fprintf(c.App.Writer, "same size: %t, error: %d, relative error: %f\n", result.SameSize, result.Error, result.RelativeError)

	if c.NArg() > 2 {
		out := c.Args().Get(2)
		format, err := swfbmp.FormatFromExtension(out)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		if err := swfbmp.WriteFile(out, result.Diff, format); err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	if !result.Equal() {
		return cli.NewExitError(errors.New("images differ"), 1)
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "swfbmp"
	app.Usage = "X-SWF-BMP bitmap conversion utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"SWFBMP_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to cache database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "info",
			Usage:       "Show the header of X-SWF-BMP files",
			Description: "",
			ArgsUsage:   "FILE...",
			Action:      info,
		},
		{
			Name:        "convert",
			Usage:       "Convert an X-SWF-BMP file",
			Description: "The output format is chosen by the extension of OUTPUT; one of .pam, .png, .gif or .bmp.",
			ArgsUsage:   "INPUT OUTPUT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				return withConverter(c, func(m *swfbmp.Converter) error {
					return m.Convert(c.Args().Get(0), c.Args().Get(1))
				})
			},
		},
		{
			Name:        "compare",
			Usage:       "Compare two images pixel by pixel",
			Description: "Exits non-zero if the images differ. If DIFF is given the difference image is written to it.",
			ArgsUsage:   "ACTUAL EXPECTED [DIFF]",
			Flags: []cli.Flag{
				&cli.UintFlag{
					Name:  "warn",
					Value: uint(diff.DefaultOptions().Warn),
					Usage: "per pixel error above which a pixel is a warning",
				},
				&cli.UintFlag{
					Name:  "error",
					Value: uint(diff.DefaultOptions().Error),
					Usage: "per pixel error above which a pixel is an error",
				},
			},
			Action: compare,
		},
		{
			Name:        "import",
			Usage:       "Decode X-SWF-BMP files into the cache",
			Description: "",
			ArgsUsage:   "FILE...",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				return withConverter(c, func(m *swfbmp.Converter) error {
					return m.Import(c.Args().Slice()...)
				})
			},
		},
		{
			Name:        "scan",
			Usage:       "Scan filesystem and convert X-SWF-BMP files",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "format",
					Value: swfbmp.FormatPAM.String(),
					Usage: "output format; pam, png, gif or bmp",
				},
				&cli.IntFlag{
					Name:  "workers",
					Value: 10,
					Usage: "number of concurrent workers",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				format, err := swfbmp.ParseFormat(c.String("format"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				return withConverter(c, func(m *swfbmp.Converter) error {
					return m.Scan(c.Args().First(), format, c.Int("workers"))
				})
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
