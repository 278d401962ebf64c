// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textproc

import "strings"

// langDictionary maps an ISO-639-1-ish code to the multilingual keyword
// set that signals it, grounded directly on the reference query-language
// detector's lang_map.
var langDictionary = map[string][]string{
	"zh": {"中文", "国语", "简体", "繁体", "chinese", "chs", "cht", "chi", "mandarin"},
	"en": {"英文", "英语", "english", "eng"},
	"jp": {"日语", "日文", "japanese", "jpn"},
	"kr": {"韩语", "韩文", "korean", "kor"},
	"fr": {"法语", "french", "fre"},
	"de": {"德语", "german", "ger"},
	"es": {"西语", "西班牙", "spanish", "spa"},
	"ru": {"俄语", "russian", "rus"},
}

// subtitleMarkers is the fixed set of tokens that, when present, mean every
// detected language belongs to subtitle_langs instead of audio_langs.
var subtitleMarkers = []string{"字幕", "中字", "双语", "sub", "subs", "subtitle"}

// orderedLangCodes fixes dictionary iteration order so DetectLanguages is
// deterministic regardless of Go's randomized map iteration.
var orderedLangCodes = []string{"zh", "en", "jp", "kr", "fr", "de", "es", "ru"}

// DetectLanguages scans text against the multilingual keyword dictionary,
// classifying every hit by whether a subtitle marker token is also
// present: with a marker, hits go into subtitle_langs only; without one,
// each hit is added to both audio_langs and subtitle_langs.
func DetectLanguages(text string) (audioLangs, subtitleLangs []string) {
	if text == "" {
		return nil, nil
	}
	folded := normalizeForMatch(text)

	isSubtitle := false
	for _, marker := range subtitleMarkers {
		if strings.Contains(folded, normalizeForMatch(marker)) {
			isSubtitle = true
			break
		}
	}

	for _, code := range orderedLangCodes {
		for _, kw := range langDictionary[code] {
			if strings.Contains(folded, normalizeForMatch(kw)) {
				if isSubtitle {
					subtitleLangs = appendUnique(subtitleLangs, code)
				} else {
					audioLangs = appendUnique(audioLangs, code)
					subtitleLangs = appendUnique(subtitleLangs, code)
				}
				break
			}
		}
	}
	return audioLangs, subtitleLangs
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
