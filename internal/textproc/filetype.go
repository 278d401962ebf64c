// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textproc

import "strings"

// FileType is one of the fixed categories catalog rows and search filters
// classify content into.
type FileType string

const (
	FileTypeVideo    FileType = "video"
	FileTypeAudio    FileType = "audio"
	FileTypeImage    FileType = "image"
	FileTypeSubtitle FileType = "subtitle"
	FileTypeArchive  FileType = "archive"
	FileTypeOther    FileType = "other"
)

var extensionFileType = map[string]FileType{
	"mp4": FileTypeVideo, "mkv": FileTypeVideo, "avi": FileTypeVideo, "mov": FileTypeVideo,
	"wmv": FileTypeVideo, "flv": FileTypeVideo, "webm": FileTypeVideo, "m2ts": FileTypeVideo, "ts": FileTypeVideo,

	"mp3": FileTypeAudio, "flac": FileTypeAudio, "aac": FileTypeAudio, "wav": FileTypeAudio,
	"ogg": FileTypeAudio, "m4a": FileTypeAudio, "dts": FileTypeAudio,

	"jpg": FileTypeImage, "jpeg": FileTypeImage, "png": FileTypeImage, "gif": FileTypeImage,
	"bmp": FileTypeImage, "webp": FileTypeImage, "tiff": FileTypeImage,

	"srt": FileTypeSubtitle, "ass": FileTypeSubtitle, "ssa": FileTypeSubtitle, "vtt": FileTypeSubtitle, "sub": FileTypeSubtitle,

	"zip": FileTypeArchive, "rar": FileTypeArchive, "7z": FileTypeArchive, "tar": FileTypeArchive, "gz": FileTypeArchive,
}

// DetectFileTypeFromText classifies raw catalog text by the extension
// trailing its last dot, returning FileTypeOther when nothing matches.
func DetectFileTypeFromText(text string) FileType {
	idx := strings.LastIndex(text, ".")
	if idx == -1 || idx == len(text)-1 {
		return FileTypeOther
	}
	ext := strings.ToLower(strings.TrimSpace(text[idx+1:]))
	// an extension is a short trailing token; a dot deep inside a long
	// title ("Mr. Robot") should not be mistaken for one.
	if len(ext) > 5 {
		return FileTypeOther
	}
	if ft, ok := extensionFileType[ext]; ok {
		return ft
	}
	return FileTypeOther
}

// fileTypePhrases mirrors the reference query-filter extractor's Chinese
// phrase-to-file-type map, used only by query rewriting (not catalog rows,
// which already carry a real filename extension).
var fileTypePhrases = []struct {
	phrase string
	ft     FileType
}{
	{"视频文件", FileTypeVideo},
	{"音频文件", FileTypeAudio},
	{"字幕文件", FileTypeSubtitle},
	{"图片类文件", FileTypeImage},
	{"图片文件", FileTypeImage},
	{"压缩文件", FileTypeArchive},
	{"压缩包", FileTypeArchive},
}

// ExtractFileTypePhrase does a longest-match scan for a file-type phrase in
// q, returning the detected type, the phrase removed from q, and whether a
// match was found. Matches the reference extractor's "first hit wins, then
// strip the phrase" behavior, scanning longer phrases first so "图片类文件"
// is preferred over the shorter "图片文件" when both would match.
func ExtractFileTypePhrase(q string) (ft FileType, remainder string, matched bool) {
	remainder = q
	for _, entry := range fileTypePhrases {
		if strings.Contains(remainder, entry.phrase) {
			return entry.ft, strings.Replace(remainder, entry.phrase, "", 1), true
		}
	}
	return "", q, false
}
