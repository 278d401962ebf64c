// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFileTypeFromText(t *testing.T) {
	cases := map[string]FileType{
		"Movie.Name.2160p.mkv":  FileTypeVideo,
		"Soundtrack.flac":       FileTypeAudio,
		"Cover.jpg":             FileTypeImage,
		"Movie.Name.srt":        FileTypeSubtitle,
		"Archive.Pack.rar":      FileTypeArchive,
		"Mr. Robot Season 1":    FileTypeOther,
		"no extension here":     FileTypeOther,
	}
	for text, want := range cases {
		assert.Equal(t, want, DetectFileTypeFromText(text), text)
	}
}

func TestExtractFileTypePhrase(t *testing.T) {
	ft, remainder, matched := ExtractFileTypePhrase("恐怖 电影 视频文件 中字")
	assert.True(t, matched)
	assert.Equal(t, FileTypeVideo, ft)
	assert.NotContains(t, remainder, "视频文件")
}

func TestExtractFileTypePhraseNoMatch(t *testing.T) {
	_, remainder, matched := ExtractFileTypePhrase("恐怖 电影")
	assert.False(t, matched)
	assert.Equal(t, "恐怖 电影", remainder)
}
