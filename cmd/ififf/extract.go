package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ififf/internal/logger"
	"github.com/samcharles93/ififf/internal/rawfile"
)

func extractCmd() *cli.Command {
	var (
		usage  string
		number int64
		out    string
	)

	return &cli.Command{
		Name:      "extract",
		Usage:     "Write one resource of a bundle to a file",
		ArgsUsage: "BUNDLE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "usage",
				Aliases:     []string{"u"},
				Usage:       "resource usage (pict, snd, exec, data)",
				Value:       "exec",
				Destination: &usage,
			},
			&cli.Int64Flag{
				Name:        "number",
				Aliases:     []string{"n"},
				Usage:       "resource number",
				Destination: &number,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path (- for stdout)",
				Required:    true,
				Destination: &out,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			args, err := argPaths(cmd, "BUNDLE")
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			u, err := parseUsage(usage)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			n, err := resourceNumber(number)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			b, f, err := openBundle(args[0])
			if err != nil {
				return exitf("%v", err)
			}
			defer func() { _ = f.Close() }()

			res, ok := b.Resource(u, n)
			if !ok {
				return exitf("%s: no %s resource %d", args[0], u, number)
			}
			data := res.Data()
			if out == "-" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := rawfile.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			log.Info("extracted resource", "usage", string(u), "number", number, "format", string(res.Format), "bytes", len(data), "out", out)
			return nil
		},
	}
}
