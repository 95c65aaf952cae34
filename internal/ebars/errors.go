package ebars

import "errors"

var (
	// ErrInvalidFeedbackCategory is returned by Handler.ProcessFeedback for
	// a category outside the four known values. This is the only validation
	// error the package surfaces; everything else degrades to logged
	// fallbacks.
	ErrInvalidFeedbackCategory = errors.New("invalid feedback category")

	// ErrUnknownLevel indicates a difficulty level outside the five bands.
	ErrUnknownLevel = errors.New("unknown difficulty level")
)
