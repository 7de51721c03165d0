// Package ui provides styled console output for the chat gateway.
// It colorizes request lines, provider events and lifecycle messages so an
// operator can follow a deployment from a terminal.
package ui

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

var (
	// Badge colors
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)
	debugBadge   = color.New(color.FgMagenta)

	// Text colors
	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	infoText    = color.New(color.FgCyan)
	mutedText   = color.New(color.FgHiBlack)
	accentText  = color.New(color.FgMagenta, color.Bold)

	// Method colors
	methodPOST = color.New(color.BgHiMagenta, color.FgBlack, color.Bold)
	methodGET  = color.New(color.BgHiCyan, color.FgBlack, color.Bold)
)

// PrintRequest logs a request with styled output.
// Color-codes status, method, and latency for quick visual parsing.
func PrintRequest(method, path string, status int, latency time.Duration, session string) {
	mutedText.Printf("%s ", time.Now().Format("15:04:05"))

	printMethodBadge(method)
	fmt.Print(" ")

	fmt.Printf("%-24s ", truncatePath(path, 24))

	printStatusBadge(status)
	fmt.Print(" ")

	printLatency(latency)
	fmt.Print(" ")

	if session != "" {
		mutedText.Printf("session:%s", session)
	}

	fmt.Println()
}

// PrintFallback logs a degraded reply: the provider failed and the sentinel
// text was substituted.
func PrintFallback(provider, reason string) {
	fmt.Print("⚠️  ")
	warningBadge.Print("[FALLBACK]")
	fmt.Print(" ")
	accentText.Print(provider)
	mutedText.Printf(" degraded to sentinel (%s)\n", reason)
}

// PrintReset logs a conversation reset.
func PrintReset(session string) {
	infoBadge.Print("[RESET]")
	fmt.Print(" ")
	mutedText.Printf("session %s cleared\n", session)
}

// printMethodBadge prints the HTTP method with appropriate color.
func printMethodBadge(method string) {
	switch method {
	case "POST":
		methodPOST.Printf(" %s ", method)
	case "GET":
		methodGET.Printf(" %s ", method)
	default:
		debugBadge.Printf(" %s ", method)
	}
}

// printStatusBadge prints the status code with appropriate color.
func printStatusBadge(status int) {
	switch {
	case status >= 200 && status < 300:
		successBadge.Printf(" %d ", status)
	case status >= 300 && status < 400:
		infoBadge.Printf(" %d ", status)
	case status >= 400 && status < 500:
		warningBadge.Printf(" %d ", status)
	default:
		errorBadge.Printf(" %d ", status)
	}
}

// printLatency prints latency with color gradient.
// Green: < 100ms, Yellow: < 2s, Red: >= 2s (the answer phase blocks on the provider).
func printLatency(latency time.Duration) {
	ms := latency.Milliseconds()
	latencyStr := fmt.Sprintf("%5dms", ms)

	switch {
	case ms < 100:
		successText.Print(latencyStr)
	case ms < 2000:
		warningText.Print(latencyStr)
	default:
		errorText.Print(latencyStr)
	}
}

// truncatePath truncates a path to maxLen characters.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return path[:maxLen-3] + "..."
}

// PrintStartupInfo prints styled server startup information.
func PrintStartupInfo(host string, port int, provider string) {
	fmt.Println()
	infoBadge.Print("[CHAT]")
	fmt.Print(" Server starting on ")
	infoText.Printf("http://%s:%d\n", host, port)

	infoBadge.Print("[CHAT]")
	fmt.Print(" Provider: ")
	accentText.Println(provider)

	fmt.Println()
	printEndpoints()
}

// printEndpoints prints the available routes.
func printEndpoints() {
	mutedText.Println("  ┌──────────────────────────────────────────────────────┐")
	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Print(" /                  ")
	mutedText.Print("  Chat interface             ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodPOST.Print(" POST ")
	fmt.Print(" /message?phase=... ")
	mutedText.Print("  Submit / resolve a turn    ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Print(" /reset             ")
	mutedText.Print("  Clear the conversation     ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Print(" /health            ")
	mutedText.Print("  Health check               ")
	mutedText.Println(" │")

	mutedText.Println("  └──────────────────────────────────────────────────────┘")
	fmt.Println()
}

// PrintShutdown prints a styled shutdown message.
func PrintShutdown() {
	fmt.Println()
	warningBadge.Print("[SHUTDOWN]")
	warningText.Println(" Graceful shutdown initiated...")
}

// PrintGoodbye prints a styled goodbye message.
func PrintGoodbye() {
	successBadge.Print(" OK ")
	fmt.Print(" ")
	successText.Println("Server stopped. Goodbye! 👋")
}
