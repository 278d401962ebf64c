// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguagesAudioOnly(t *testing.T) {
	audio, subtitle := DetectLanguages("Movie English Eng Dub")
	assert.Contains(t, audio, "en")
	assert.Contains(t, subtitle, "en")
}

func TestDetectLanguagesSubtitleMarkerRestrictsToSubtitle(t *testing.T) {
	audio, subtitle := DetectLanguages("电影 中字 english")
	assert.NotContains(t, audio, "en")
	assert.Contains(t, subtitle, "en")
}

func TestDetectLanguagesNoHit(t *testing.T) {
	audio, subtitle := DetectLanguages("random text with no language markers")
	assert.Empty(t, audio)
	assert.Empty(t, subtitle)
}
