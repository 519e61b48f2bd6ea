// Package ui prints user-facing progress for the command line.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	blue   = color.New(color.FgBlue)
	red    = color.New(color.FgRed)
)

// Header prints a formatted header
func Header(text string) {
	line := strings.Repeat("=", 60)
	green.Printf("\n%s\n", line)
	green.Printf("%-60s\n", center(text, 60))
	green.Printf("%s\n\n", line)
}

// Step prints a step indicator
func Step(stepNum, totalSteps int, format string, args ...any) {
	yellow.Printf("[%d/%d] %s\n", stepNum, totalSteps, fmt.Sprintf(format, args...))
}

// Success prints a success message
func Success(format string, args ...any) {
	green.Printf("  → %s\n", fmt.Sprintf(format, args...))
}

// Info prints an info message
func Info(format string, args ...any) {
	fmt.Printf("  → %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message
func Warning(format string, args ...any) {
	yellow.Printf("  ⚠ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error message
func Error(format string, args ...any) {
	red.Printf("Error: %s\n", fmt.Sprintf(format, args...))
}

// Item prints a numbered list entry for interactive selection.
func Item(n int, text string) {
	blue.Printf("  [%d] %s\n", n, text)
}

// BlueText prints blue text
func BlueText(text string) {
	blue.Println(text)
}

// YellowText prints yellow text
func YellowText(text string) {
	yellow.Println(text)
}

// center centers text within a given width
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
