package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ififf/internal/rawfile"
	"github.com/samcharles93/ififf/internal/report"
)

func verifyCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "verify",
		Usage:     "Check that a bundle was made for a story file",
		ArgsUsage: "BUNDLE STORY",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print a JSON report", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := argPaths(cmd, "BUNDLE", "STORY")
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			b, bf, err := openBundle(args[0])
			if err != nil {
				return exitf("%v", err)
			}
			defer func() { _ = bf.Close() }()

			story, err := rawfile.Open(args[1])
			if err != nil {
				return err
			}
			defer func() { _ = story.Close() }()

			r := report.NewVerify(b, story.Data)
			if asJSON {
				if err := report.Write(os.Stdout, r, true); err != nil {
					return err
				}
			} else {
				if r.Story != nil {
					printIdentity(os.Stdout, r.Story)
				}
				if r.Match {
					_, _ = os.Stdout.WriteString("ok: bundle matches story file\n")
				}
			}
			if !r.Match {
				return exitf("mismatch: %s", r.Message)
			}
			return nil
		},
	}
}
