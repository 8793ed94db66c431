package model

// JobStatus represents the status of a single link-download job
type JobStatus string

const (
	// JobStatusReceived means the inbound link was accepted but not yet gated
	JobStatusReceived JobStatus = "Received"

	// JobStatusGated means the access gate and domain check passed
	JobStatusGated JobStatus = "Gated"

	// JobStatusVideoExtracting means the video stream is being extracted
	JobStatusVideoExtracting JobStatus = "VideoExtracting"

	// JobStatusVideoDelivering means video delivery units are being sent
	JobStatusVideoDelivering JobStatus = "VideoDelivering"

	// JobStatusAudioExtracting means the audio stream is being extracted
	JobStatusAudioExtracting JobStatus = "AudioExtracting"

	// JobStatusAudioDelivering means audio delivery units are being sent
	JobStatusAudioDelivering JobStatus = "AudioDelivering"

	// JobStatusRecorded means both passes were delivered and recorded
	JobStatusRecorded JobStatus = "Recorded"

	// JobStatusDone means the job finished successfully
	JobStatusDone JobStatus = "Done"

	// JobStatusFailed means the job failed in some phase
	JobStatusFailed JobStatus = "Failed"
)

// String returns the string representation of JobStatus
func (js JobStatus) String() string {
	return string(js)
}

// IsActive returns true if the job is in a non-terminal state
func (js JobStatus) IsActive() bool {
	return !js.IsTerminal()
}

// IsTerminal returns true if the job reached a final state
func (js JobStatus) IsTerminal() bool {
	return js == JobStatusDone || js == JobStatusFailed
}
