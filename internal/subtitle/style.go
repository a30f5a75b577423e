package subtitle

import (
	"fmt"
	"strings"
)

// ASS style line parameters
type ASSStyle struct {
	Name          string
	FontName      string
	FontSize      int
	PrimaryColour string // &HAABBGGRR
	Outline       int
	Shadow        int
	Alignment     int // numpad layout, 1-9
}

func DefaultASSStyle() ASSStyle {
	return ASSStyle{
		Name:          "Default",
		FontName:      "Arial",
		FontSize:      36,
		PrimaryColour: "&H00FFFFFF",
		Outline:       2,
		Shadow:        0,
		Alignment:     2,
	}
}

func (s ASSStyle) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("ass style name must be set")
	}
	if strings.ContainsAny(s.Name, ",\n") || strings.ContainsAny(s.FontName, ",\n") {
		return fmt.Errorf("ass style and font names must not contain commas or newlines")
	}
	if s.FontSize <= 0 {
		return fmt.Errorf("ass font size must be positive, got %d", s.FontSize)
	}
	if s.Outline < 0 || s.Shadow < 0 {
		return fmt.Errorf("ass outline and shadow must not be negative")
	}
	if s.Alignment < 1 || s.Alignment > 9 {
		return fmt.Errorf("ass alignment must be between 1 and 9, got %d", s.Alignment)
	}
	if !strings.HasPrefix(strings.ToUpper(s.PrimaryColour), "&H") {
		return fmt.Errorf("ass primary colour %q must use &HAABBGGRR form", s.PrimaryColour)
	}
	return nil
}

// zero fields take the default value
func (s ASSStyle) withDefaults() ASSStyle {
	def := DefaultASSStyle()
	if s.Name == "" {
		s.Name = def.Name
	}
	if s.FontName == "" {
		s.FontName = def.FontName
	}
	if s.FontSize == 0 {
		s.FontSize = def.FontSize
	}
	if s.PrimaryColour == "" {
		s.PrimaryColour = def.PrimaryColour
	}
	if s.Alignment == 0 {
		s.Alignment = def.Alignment
	}
	return s
}

func (s ASSStyle) line() string {
	return fmt.Sprintf(
		"Style: %s,%s,%d,%s,&H000000FF,&H00000000,&H3F000000,0,0,0,0,100,100,0,0,1,%d,%d,%d,10,10,10,1\n",
		s.Name,
		s.FontName,
		s.FontSize,
		s.PrimaryColour,
		s.Outline,
		s.Shadow,
		s.Alignment,
	)
}
