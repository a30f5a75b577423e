package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// failure classes, matched with errors.Is
var (
	ErrInput  = errors.New("input error")
	ErrConfig = errors.New("configuration error")
	ErrStage  = errors.New("stage failure")
	ErrIO     = errors.New("output error")
)

// wrap tags err with marker and prefixes the stage and message.
func wrap(marker error, stage Stage, message string, err error) error {
	detail := strings.TrimSpace(message)
	if stage != "" {
		if detail == "" {
			detail = string(stage)
		} else {
			detail = string(stage) + ": " + detail
		}
	}
	if detail == "" {
		detail = "pipeline failure"
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}
