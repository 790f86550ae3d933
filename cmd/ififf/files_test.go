package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/samcharles93/ififf/pkg/blorb"
	"github.com/samcharles93/ififf/pkg/gameid"
)

func TestParseUsage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want blorb.Usage
		ok   bool
	}{
		{"pict", blorb.UsagePicture, true},
		{"Sound", blorb.UsageSound, true},
		{"exec", blorb.UsageExecutable, true},
		{"DATA", blorb.UsageData, true},
		{"video", "", false},
	}
	for _, tt := range tests {
		got, err := parseUsage(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Fatalf("parseUsage(%q): got %q, %v want %q ok=%v", tt.in, got, err, tt.want, tt.ok)
		}
	}
}

func TestParseNumbered(t *testing.T) {
	t.Parallel()

	n, path, err := parseNumbered("12=art/cover.png")
	if err != nil || n != 12 || path != "art/cover.png" {
		t.Fatalf("got %d %q %v", n, path, err)
	}
	for _, bad := range []string{"cover.png", "x=cover.png", "3=", "-1=a"} {
		if _, _, err := parseNumbered(bad); err == nil {
			t.Fatalf("parseNumbered(%q): expected error", bad)
		}
	}
}

func TestWindowSize(t *testing.T) {
	t.Parallel()

	if w, h, err := windowSize(640, 480); err != nil || w != 640 || h != 480 {
		t.Fatalf("got %d %d %v", w, h, err)
	}
	if _, _, err := windowSize(-1, 10); err == nil {
		t.Fatalf("expected error for negative width")
	}
	if _, _, err := windowSize(10, 1<<33); err == nil {
		t.Fatalf("expected error for oversize height")
	}
}

func TestResourceNumber(t *testing.T) {
	t.Parallel()

	if n, err := resourceNumber(math.MaxUint32); err != nil || n != math.MaxUint32 {
		t.Fatalf("got %d %v", n, err)
	}
	for _, n := range []int64{-1, math.MaxUint32 + 1, 1 << 40} {
		if _, err := resourceNumber(n); err == nil {
			t.Fatalf("expected error for %d", n)
		}
	}
}

func TestPackAndExtract(t *testing.T) {
	dir := t.TempDir()

	story := make([]byte, 128)
	story[0] = 5
	story[0x03] = 7
	copy(story[0x12:], "250101")
	story[0x1C], story[0x1D] = 0xbe, 0xef
	storyPath := filepath.Join(dir, "game.z5")
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 1, 2}
	pngPath := filepath.Join(dir, "cover.png")
	for path, data := range map[string][]byte{storyPath: story, pngPath: png} {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	out := filepath.Join(dir, "game.zblorb")
	err := packCmd().Run(context.Background(), []string{
		"pack", "--out", out, "--exec", storyPath, "--pict", "1=" + pngPath,
		"--name", "Test Story", "--release", "7", "--frontispiece", "1",
	})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	buf, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	b, err := blorb.Open(buf)
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	if f, ok := b.ExecutableFormat(0); !ok || f != blorb.FormatZCode {
		t.Fatalf("executable format: got %q, %v", f, ok)
	}
	if f, ok := b.ImageFormat(1); !ok || f != blorb.FormatPNG {
		t.Fatalf("image format: got %q, %v", f, ok)
	}
	if name, ok := b.StoryName(); !ok || name != "Test Story" {
		t.Fatalf("story name: got %q, %v", name, ok)
	}
	if n, ok := b.Frontispiece(); !ok || n != 1 {
		t.Fatalf("frontispiece: got %d, %v", n, ok)
	}
	id, ok := b.Identity()
	want := gameid.Identity{Release: 7, Serial: [6]byte{'2', '5', '0', '1', '0', '1'}, Checksum: 0xbeef}
	if !ok || !id.Matches(want) {
		t.Fatalf("identity: got %v, %v want %v", id, ok, want)
	}
	if !b.VerifyGame(story) {
		t.Fatalf("bundle should verify against its own story")
	}

	extracted := filepath.Join(dir, "cover-out.png")
	err = extractCmd().Run(context.Background(), []string{
		"extract", "--usage", "pict", "--number", "1", "--out", extracted, out,
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	got, err := os.ReadFile(extracted)
	if err != nil {
		t.Fatalf("read extracted: %v", err)
	}
	if !bytes.Equal(got, png) {
		t.Fatalf("extracted bytes: got %v want %v", got, png)
	}

	if err := verifyCmd().Run(context.Background(), []string{"verify", out, storyPath}); err != nil {
		t.Fatalf("verify: %v", err)
	}
}
