package timeline

// ValidateTrim reports whether a trim window fits inside the source media.
// sourceDuration <= 0 means the asset's length is unknown (still probing, or
// an image with no intrinsic duration); in that case only the local bounds
// are checked.
func ValidateTrim(trimStart, duration, sourceDuration int64) bool {
	if trimStart < 0 || duration < MinClipDuration {
		return false
	}
	if sourceDuration <= 0 {
		return true
	}
	return trimStart+duration <= sourceDuration
}

// ClampTrim snaps a proposed trim window to the nearest legal one: offset
// floored at zero, duration floored at MinClipDuration and, when the source
// length is known, the window pulled back so it ends inside the media. Used
// by drag handles so the preview never shows an invalid window.
func ClampTrim(trimStart, duration, sourceDuration int64) (int64, int64) {
	if trimStart < 0 {
		trimStart = 0
	}
	if duration < MinClipDuration {
		duration = MinClipDuration
	}
	if sourceDuration > 0 {
		if trimStart > sourceDuration-MinClipDuration {
			trimStart = sourceDuration - MinClipDuration
			if trimStart < 0 {
				trimStart = 0
			}
		}
		if trimStart+duration > sourceDuration {
			duration = sourceDuration - trimStart
			if duration < MinClipDuration {
				duration = MinClipDuration
			}
		}
	}
	return trimStart, duration
}
