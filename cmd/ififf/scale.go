package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ififf/pkg/blorb"
)

func scaleCmd() *cli.Command {
	var (
		width  int64
		height int64
		image  int64
	)

	return &cli.Command{
		Name:      "scale",
		Usage:     "Compute picture scale ratios for a window size",
		ArgsUsage: "BUNDLE",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "width", Usage: "window width", Value: 640, Destination: &width},
			&cli.Int64Flag{Name: "height", Usage: "window height", Value: 480, Destination: &height},
			&cli.Int64Flag{Name: "image", Usage: "picture number (default: every picture)", Value: -1, Destination: &image},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := argPaths(cmd, "BUNDLE")
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			applyScaleConfig(cmd, cfg, &width, &height)
			w, h, err := windowSize(width, height)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			var picture uint32
			if image >= 0 {
				if picture, err = resourceNumber(image); err != nil {
					return cli.Exit(err.Error(), 2)
				}
			}

			b, f, err := openBundle(args[0])
			if err != nil {
				return exitf("%v", err)
			}
			defer func() { _ = f.Close() }()

			if image >= 0 {
				fmt.Printf("%.6g\n", b.ComputeScale(picture, w, h))
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "PICTURE\tRATIO")
			for _, res := range b.Resources() {
				if res.Usage != blorb.UsagePicture {
					continue
				}
				_, _ = fmt.Fprintf(tw, "%d\t%.6g\n", res.Number, b.ComputeScale(res.Number, w, h))
			}
			return tw.Flush()
		},
	}
}
