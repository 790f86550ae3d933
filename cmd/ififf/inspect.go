package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ififf/internal/logger"
	"github.com/samcharles93/ififf/internal/rawfile"
	"github.com/samcharles93/ififf/internal/report"
	"github.com/samcharles93/ififf/pkg/babel"
	"github.com/samcharles93/ififf/pkg/blorb"
	"github.com/samcharles93/ififf/pkg/iff"
	"github.com/samcharles93/ififf/pkg/quetzal"
)

func inspectCmd() *cli.Command {
	var (
		asJSON   bool
		showTree bool
		width    int64
		height   int64
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Describe an IFF file: a bundle's resources, a save's contents or the raw chunk tree",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print a JSON report", Destination: &asJSON},
			&cli.BoolFlag{Name: "tree", Usage: "always print the chunk tree", Destination: &showTree},
			&cli.Int64Flag{Name: "width", Usage: "window width for picture scale ratios", Destination: &width},
			&cli.Int64Flag{Name: "height", Usage: "window height for picture scale ratios", Destination: &height},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			args, err := argPaths(cmd, "FILE")
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			applyScaleConfig(cmd, cfg, &width, &height)

			f, err := rawfile.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			log.Debug("opened file", "path", f.Path, "bytes", len(f.Data), "mmap", f.Mapped())

			root, err := iff.Parse(f.Data, allTypes())
			if err != nil {
				return exitf("%s: %v", args[0], err)
			}

			out := os.Stdout
			switch {
			case showTree || root.ID != iff.IDForm:
				return emit(out, asJSON, report.Tree(root), func(w io.Writer) { printTree(w, root, 0) })
			case root.SubID == blorb.FormType:
				b, err := blorb.New(root)
				if err != nil {
					return exitf("%s: %v", args[0], err)
				}
				r := report.NewBundle(b, babel.Extractor{})
				if width > 0 && height > 0 {
					w, h, err := windowSize(width, height)
					if err != nil {
						return cli.Exit(err.Error(), 2)
					}
					r.WithRatios(b, w, h)
				}
				return emit(out, asJSON, r, func(w io.Writer) { printBundle(w, r) })
			case root.SubID == quetzal.FormType:
				sum, err := quetzal.Inspect(f.Data)
				if err != nil {
					return exitf("%s: %v", args[0], err)
				}
				r := report.NewSave(sum)
				return emit(out, asJSON, r, func(w io.Writer) { printSave(w, r) })
			default:
				return emit(out, asJSON, report.Tree(root), func(w io.Writer) { printTree(w, root, 0) })
			}
		},
	}
}

func emit(w io.Writer, asJSON bool, v any, text func(io.Writer)) error {
	if asJSON {
		return report.Write(w, v, true)
	}
	text(w)
	return nil
}

func printTree(w io.Writer, c *iff.Chunk, depth int) {
	indent := strings.Repeat("  ", depth)
	if c.IsComposite() {
		_, _ = fmt.Fprintf(w, "%s%s %s (%d bytes) @%d\n", indent, c.ID, c.SubID, c.Len(), c.Offset)
		for _, child := range c.Children {
			printTree(w, child, depth+1)
		}
		return
	}
	mark := ""
	if c.Value != nil {
		mark = " *"
	}
	_, _ = fmt.Fprintf(w, "%s%s (%d bytes) @%d%s\n", indent, c.ID, c.Len(), c.Offset, mark)
}

func printIdentity(w io.Writer, id *report.Identity) {
	if id == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "game:       release %d serial %s checksum %s", id.Release, id.Serial, id.Checksum)
	if id.PC != "" {
		_, _ = fmt.Fprintf(w, " pc %s", id.PC)
	}
	_, _ = fmt.Fprintln(w)
}

func printBundle(w io.Writer, r report.Bundle) {
	if r.Title != "" {
		_, _ = fmt.Fprintf(w, "title:      %s\n", r.Title)
	}
	if r.Author != "" {
		_, _ = fmt.Fprintf(w, "author:     %s\n", r.Author)
	}
	if r.StoryName != "" {
		_, _ = fmt.Fprintf(w, "story name: %s\n", r.StoryName)
	}
	if r.Release != nil {
		_, _ = fmt.Fprintf(w, "release:    %d\n", *r.Release)
	}
	printIdentity(w, r.Identity)
	if r.Frontispiece != nil {
		_, _ = fmt.Fprintf(w, "cover:      picture %d\n", *r.Frontispiece)
	}
	if g := r.Geometry; g != nil {
		_, _ = fmt.Fprintf(w, "window:     %dx%d (min %dx%d, max %dx%d)\n",
			g.Standard[0], g.Standard[1], g.Min[0], g.Min[1], g.Max[0], g.Max[1])
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "USAGE\tNUMBER\tFORMAT\tSIZE\tNOTES")
	for _, res := range r.Resources {
		var notes []string
		if res.Repeats != nil {
			if *res.Repeats == 0 {
				notes = append(notes, "loops forever")
			} else {
				notes = append(notes, fmt.Sprintf("repeats %d", *res.Repeats))
			}
		}
		if res.SoundClass != "" {
			notes = append(notes, res.SoundClass)
		}
		if res.Scale != nil {
			notes = append(notes, "scale "+res.Scale.Standard)
		}
		if res.Ratio != nil {
			notes = append(notes, fmt.Sprintf("ratio %.4g", *res.Ratio))
		}
		if res.Adaptive {
			notes = append(notes, "adaptive")
		}
		if res.Description != "" {
			notes = append(notes, fmt.Sprintf("%q", res.Description))
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", res.Usage, res.Number, res.Format, res.Size, strings.Join(notes, ", "))
	}
	_ = tw.Flush()
}

func printSave(w io.Writer, r report.Save) {
	printIdentity(w, r.Identity)
	_, _ = fmt.Fprintf(w, "memory:     %s, %d bytes\n", r.Memory, r.MemoryBytes)
	_, _ = fmt.Fprintf(w, "frames:     %d\n", r.Frames)
	if len(r.Extra) > 0 {
		_, _ = fmt.Fprintf(w, "extra:      %s\n", strings.Join(r.Extra, ", "))
	}
	_, _ = fmt.Fprintf(w, "size:       %d bytes\n", r.Size)
}
