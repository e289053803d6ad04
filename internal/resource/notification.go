package resource

// Notifications emitted by the Manager on the update goroutine and
// delivered to the Client on the event goroutine.

type loadingNotice struct{ ID ID }

type loadingSucceededNotice struct {
	ID ID
	// Attributes is set for bitmaps: the size actually loaded.
	Attributes *ImageAttributes
	// Bitmap is the CPU-side copy, when the platform produced one.
	Bitmap *Bitmap
}

type loadingFailedNotice struct {
	ID      ID
	Failure Failure
}

type uploadedNotice struct{ ID ID }

type savingSucceededNotice struct{ ID ID }

type savingFailedNotice struct {
	ID      ID
	Failure Failure
}
