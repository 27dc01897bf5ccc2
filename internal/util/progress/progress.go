package progress

import (
	"log"

	"github.com/schollz/progressbar/v3"
)

// Spinner returns an indeterminate spinner for waits with no known
// total, like receipt polling.
func Spinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

// Add increments the progress bar while safely handling errors.
func Add(bar *progressbar.ProgressBar, n int) {
	if bar == nil || n == 0 {
		return
	}

	if err := bar.Add(n); err != nil {
		log.Printf("failed to update progress bar: %v", err)
	}
}

// Finish completes the bar, clearing spinner output.
func Finish(bar *progressbar.ProgressBar) {
	if bar == nil {
		return
	}

	if err := bar.Finish(); err != nil {
		log.Printf("failed to finish progress bar: %v", err)
	}
}
