package youtube

const minDurationSeconds = 60

// Eligible reports whether a video should enter the pipeline. Live streams,
// scheduled premieres and anything that ever had live streaming details are
// out, as are clips shorter than a minute.
func Eligible(d Details) bool {
	if d.HasLiveDetails {
		return false
	}
	if d.BroadcastState == "live" || d.BroadcastState == "upcoming" {
		return false
	}
	if d.DurationSeconds < minDurationSeconds {
		return false
	}

	return true
}
