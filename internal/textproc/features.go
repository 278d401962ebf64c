// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textproc

// Features is the side-metadata derived from one catalog row's raw text,
// attached to its vector store payload alongside the embedding.
type Features struct {
	NormalizedText string
	FileType       FileType
	AudioLangs     []string
	SubtitleLangs  []string
	GenreTags      []string
	Size           *int64
}

// Extract derives Features for a catalog row: file type from the raw
// text's trailing extension, languages and genre tags scanned over the raw
// text, size from the first positive candidate in extra, and the
// normalized (noise-stripped) text used for embedding.
func Extract(rawText string, extra map[string]string) Features {
	audioLangs, subtitleLangs := DetectLanguages(rawText)

	f := Features{
		NormalizedText: Normalize(rawText),
		FileType:       DetectFileTypeFromText(rawText),
		AudioLangs:     audioLangs,
		SubtitleLangs:  subtitleLangs,
		GenreTags:      ExtractGenreTags(rawText),
	}

	if size, ok := ExtractSize(extra); ok {
		f.Size = &size
	}

	return f
}
