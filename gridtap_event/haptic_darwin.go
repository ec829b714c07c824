//go:build darwin && cgo

package gridtap_event

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit
#import <AppKit/AppKit.h>

static void performAlignmentFeedback(void) {
    [[NSHapticFeedbackManager defaultPerformer]
        performFeedbackPattern:NSHapticFeedbackPatternAlignment
               performanceTime:NSHapticFeedbackPerformanceTimeDefault];
}
*/
import "C"

import "io"

// HapticPerformer plays the trackpad's alignment pattern. Only Force Touch
// trackpads produce anything.
type HapticPerformer struct{}

func newHapticPerformer(io.Writer) Performer {
	return &HapticPerformer{}
}

func (p *HapticPerformer) Perform() error {
	C.performAlignmentFeedback()
	return nil
}
