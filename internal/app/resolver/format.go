package resolver

import "sort"

// Format is one candidate stream format from an extraction.
type Format struct {
	URL    string  // Stream URL of the candidate
	Ext    string  // Container extension (m4a, webm, ...)
	ABR    float64 // Audio bitrate in kbps (0 if unknown)
	ACodec string  // Audio codec, "none" or empty when absent
	VCodec string  // Video codec, "none" or empty when absent
}

// SelectAudioFormat picks the best audio-only candidate: the preferred
// container wins first, then higher bitrate. Candidates without an
// audio stream, with a video stream, or without a URL are excluded.
func SelectAudioFormat(formats []Format, preferredExt string) (Format, bool) {
	candidates := make([]Format, 0, len(formats))
	for _, f := range formats {
		if f.URL == "" || !isAudioOnly(f) {
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return Format{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		pi := candidates[i].Ext == preferredExt
		pj := candidates[j].Ext == preferredExt
		if pi != pj {
			return pi
		}
		return candidates[i].ABR > candidates[j].ABR
	})
	return candidates[0], true
}

func isAudioOnly(f Format) bool {
	return hasCodec(f.ACodec) && !hasCodec(f.VCodec)
}

func hasCodec(codec string) bool {
	return codec != "" && codec != "none"
}
