// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package textproc strips release-noise tokens from raw catalog text and
derives the side-metadata (file type, audio/subtitle languages, genre tags)
used both when a row is embedded during sync and when a search query is
rewritten. The normalization rules and keyword dictionaries are grounded on
the service's own Python reference implementation's text-normalization and
query-filter-extraction helpers; golang.org/x/text/{width,cases} replace
the reference's ad hoc lower()/case folding with full-width/case-safe
transforms so CJK and mixed-width input fold the same way on both sides.
*/
package textproc

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)


var (
	bracketRunPattern = regexp.MustCompile(`[\[\]{}()]`)
	separatorRunPattern = regexp.MustCompile(`[._\-]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	// noisePattern matches release-group / technical tokens that carry no
	// search signal: resolutions, codecs, containers, and distribution
	// markers, mirroring the reference normalizer's single combined regex.
	noisePattern = regexp.MustCompile(`(?i)\b(` + strings.Join([]string{
		`\d{3,4}p`, `4k`, `8k`, `uhd`, `hdr`, `hdr10`, `dolby`, `dv`,
		`x264`, `x265`, `h\.?264`, `h\.?265`, `hevc`, `avc`,
		`bluray`, `blu-?ray`, `web-?dl`, `web-?rip`, `brrip`, `dvdrip`, `hdrip`, `remux`,
		`aac`, `dts`, `truehd`, `atmos`, `flac`, `mp3`,
		`mkv`, `mp4`, `avi`, `ts`, `m2ts`, `srt`, `ass`, `vtt`, `sub`,
		`torrent`, `seed`, `complete`, `proper`, `repack`, `extended`, `uncut`, `multi`, `dual`, `subs?`,
	}, "|") + `)\b`)

	foldCaser = cases.Fold()
)

// FoldCase performs Unicode case-folding via x/text/cases, the idiom used
// throughout the pack in place of strings.ToLower for comparisons that must
// be correct across non-ASCII scripts.
func FoldCase(s string) string {
	return foldCaser.String(s)
}

// WidthFold normalizes full-width CJK punctuation/digits/latin forms down
// to their narrow equivalents before any keyword match is attempted, so a
// full-width query token still matches a half-width dictionary entry.
func WidthFold(s string) string {
	return width.Fold.String(s)
}

// Normalize strips bracket/separator runs and release-noise tokens from raw
// catalog text, collapsing whitespace, matching the reference normalizer's
// three-pass regex pipeline.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	cleaned := bracketRunPattern.ReplaceAllString(text, " ")
	cleaned = separatorRunPattern.ReplaceAllString(cleaned, " ")
	cleaned = noisePattern.ReplaceAllString(cleaned, " ")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// normalizeForMatch applies width folding and case folding, used by the
// keyword/dictionary scanners below so matching is robust to full-width
// CJK punctuation and mixed-case Latin tokens alike.
func normalizeForMatch(s string) string {
	return FoldCase(WidthFold(s))
}
