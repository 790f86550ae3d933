package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ififf/internal/logger"
	"github.com/samcharles93/ififf/internal/rawfile"
	"github.com/samcharles93/ififf/pkg/blorb"
	"github.com/samcharles93/ififf/pkg/gameid"
	"github.com/samcharles93/ififf/pkg/iff"
)

func packCmd() *cli.Command {
	var (
		out          string
		execPath     string
		pictures     []string
		sounds       []string
		dataFiles    []string
		metadataPath string
		storyName    string
		release      int64
		frontispiece int64
		noIdentity   bool
	)

	return &cli.Command{
		Name:  "pack",
		Usage: "Build a bundle from a story file, pictures, sounds and data files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output bundle path",
				Required:    true,
				Destination: &out,
			},
			&cli.StringFlag{
				Name:        "exec",
				Usage:       "story file stored as executable resource 0",
				Destination: &execPath,
			},
			&cli.StringSliceFlag{
				Name:        "pict",
				Usage:       "picture resource as NUMBER=PATH (repeatable)",
				Destination: &pictures,
			},
			&cli.StringSliceFlag{
				Name:        "snd",
				Usage:       "sound resource as NUMBER=PATH (repeatable)",
				Destination: &sounds,
			},
			&cli.StringSliceFlag{
				Name:        "data",
				Usage:       "data resource as NUMBER=PATH (repeatable)",
				Destination: &dataFiles,
			},
			&cli.StringFlag{
				Name:        "metadata",
				Usage:       "iFiction XML file stored as the metadata record",
				Destination: &metadataPath,
			},
			&cli.StringFlag{
				Name:        "name",
				Usage:       "story name",
				Destination: &storyName,
			},
			&cli.Int64Flag{
				Name:        "release",
				Usage:       "release number to record (-1 for none)",
				Value:       -1,
				Destination: &release,
			},
			&cli.Int64Flag{
				Name:        "frontispiece",
				Usage:       "cover picture number (-1 for none)",
				Value:       -1,
				Destination: &frontispiece,
			},
			&cli.BoolFlag{
				Name:        "no-identity",
				Usage:       "do not record the game identity of a Z-code story",
				Destination: &noIdentity,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			bld := blorb.NewBuilder()

			if execPath != "" {
				data, err := rawfile.ReadFile(execPath, 0)
				if err != nil {
					return err
				}
				c, err := blorb.SniffChunk(blorb.UsageExecutable, data)
				if err != nil {
					return exitf("%s: %v", execPath, err)
				}
				if err := bld.AddResource(blorb.UsageExecutable, 0, c); err != nil {
					return err
				}
				log.Debug("added story", "path", execPath, "format", c.ID.Trimmed())
				if c.ID == iff.MustID("ZCOD") && !noIdentity {
					id, err := gameid.FromStoryHeader(data)
					if err != nil {
						return exitf("%s: %v", execPath, err)
					}
					idChunk, err := gameid.NewChunk(id)
					if err != nil {
						return err
					}
					bld.AddChunk(idChunk)
					log.Debug("recorded game identity", "identity", id.String())
				}
			}

			groups := []struct {
				usage blorb.Usage
				paths []string
			}{
				{blorb.UsagePicture, pictures},
				{blorb.UsageSound, sounds},
				{blorb.UsageData, dataFiles},
			}
			for _, g := range groups {
				for _, arg := range g.paths {
					if err := addFileResource(bld, g.usage, arg); err != nil {
						return exitf("%v", err)
					}
				}
			}

			if metadataPath != "" {
				xml, err := rawfile.ReadFile(metadataPath, 0)
				if err != nil {
					return err
				}
				if err := addTyped(bld, blorb.IDMetadata, blorb.MetadataXML(xml)); err != nil {
					return exitf("%s: %v", metadataPath, err)
				}
			}
			if storyName != "" {
				if err := addTyped(bld, blorb.IDStoryName, blorb.StoryName(storyName)); err != nil {
					return exitf("%v", err)
				}
			}
			if release >= 0 {
				if release > 0xFFFF {
					return cli.Exit(fmt.Sprintf("release %d does not fit in 16 bits", release), 2)
				}
				if err := addTyped(bld, blorb.IDReleaseNumber, blorb.ReleaseNumber(release)); err != nil {
					return exitf("%v", err)
				}
			}
			if frontispiece >= 0 {
				if frontispiece > 0xFFFFFFFF {
					return cli.Exit(fmt.Sprintf("frontispiece %d out of range", frontispiece), 2)
				}
				if err := addTyped(bld, blorb.IDFrontispiece, blorb.Frontispiece(frontispiece)); err != nil {
					return exitf("%v", err)
				}
			}

			buf, err := bld.Build()
			if err != nil {
				return exitf("pack: %v", err)
			}
			if err := rawfile.WriteFile(out, buf, 0o644); err != nil {
				return err
			}
			log.Info("wrote bundle", "path", out, "bytes", len(buf))
			return nil
		},
	}
}

func addFileResource(bld *blorb.Builder, usage blorb.Usage, arg string) error {
	n, path, err := parseNumbered(arg)
	if err != nil {
		return err
	}
	data, err := rawfile.ReadFile(path, 0)
	if err != nil {
		return err
	}
	c, err := blorb.SniffChunk(usage, data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return bld.AddResource(usage, n, c)
}

func addTyped(bld *blorb.Builder, id iff.ID, v any) error {
	c, err := blorb.NewChunk(id, v)
	if err != nil {
		return err
	}
	bld.AddChunk(c)
	return nil
}
