package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ififf/internal/rawfile"
	"github.com/samcharles93/ififf/pkg/blorb"
	"github.com/samcharles93/ififf/pkg/iff"
	"github.com/samcharles93/ififf/pkg/quetzal"
)

// allTypes knows every chunk type the tool understands.
func allTypes() *iff.Registry {
	return iff.NewRegistry(iff.Base(), blorb.Module(), quetzal.Module())
}

// argPaths returns the n positional arguments of cmd.
func argPaths(cmd *cli.Command, names ...string) ([]string, error) {
	if cmd.Args().Len() != len(names) {
		return nil, fmt.Errorf("%s: expected arguments: %s", cmd.Name, strings.Join(names, " "))
	}
	return cmd.Args().Slice(), nil
}

func openBundle(path string) (*blorb.Bundle, *rawfile.File, error) {
	f, err := rawfile.Open(path)
	if err != nil {
		return nil, nil, err
	}
	b, err := blorb.Open(f.Data)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, f, nil
}

// parseUsage accepts the short names pict, snd, exec and data as well as the
// four-character usage codes.
func parseUsage(s string) (blorb.Usage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pict", "picture", "image":
		return blorb.UsagePicture, nil
	case "snd", "snd ", "sound":
		return blorb.UsageSound, nil
	case "exec", "executable", "story":
		return blorb.UsageExecutable, nil
	case "data":
		return blorb.UsageData, nil
	}
	return "", fmt.Errorf("unknown resource usage %q (want pict, snd, exec or data)", s)
}

// parseNumbered splits a "N=path" resource argument.
func parseNumbered(s string) (uint32, string, error) {
	num, path, ok := strings.Cut(s, "=")
	if !ok || path == "" {
		return 0, "", fmt.Errorf("resource %q must be NUMBER=PATH", s)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(num), 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("resource %q: bad number: %w", s, err)
	}
	return uint32(n), path, nil
}

// windowSize checks that a window size fits the 32-bit fields bundles use.
func windowSize(width, height int64) (uint32, uint32, error) {
	if width < 0 || width > math.MaxUint32 || height < 0 || height > math.MaxUint32 {
		return 0, 0, fmt.Errorf("window size %dx%d out of range", width, height)
	}
	return uint32(width), uint32(height), nil
}

func resourceNumber(n int64) (uint32, error) {
	if n < 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("resource number %d out of range", n)
	}
	return uint32(n), nil
}
