// Package color holds the terminal styles used by the console reporter.
//
// Styles are built with lipgloss, which downgrades them to whatever the
// terminal supports and drops them entirely when NO_COLOR is set or output is
// not a TTY.
//
// # Usage Example
//
//	color.Initialize(lipgloss.HasDarkBackground())
//	fmt.Println(color.PassedStyle.Render("✅ Health check"))
//	fmt.Println(color.FailedStyle.Render("❌ Delete a booking"))
//
// Colors are adaptive: each has a light and a dark variant and lipgloss
// picks one based on the background set by Initialize.
package color
