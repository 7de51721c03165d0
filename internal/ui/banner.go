package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// PrintBanner displays the ASCII art startup banner.
func PrintBanner() {
	fmt.Println()

	cyan := color.New(color.FgCyan, color.Bold)
	magenta := color.New(color.FgMagenta, color.Bold)
	hiCyan := color.New(color.FgHiCyan)
	yellow := color.New(color.FgYellow, color.Bold)
	white := color.New(color.FgWhite)
	dim := color.New(color.FgHiBlack)

	cyan.Println("╔══════════════════════════════════════════════════════════╗")

	cyan.Print("║  ")
	hiCyan.Print("██████╗ ██╗   ██╗██████╗ ██████╗ ██╗  ██╗ █████╗ ██╗")
	cyan.Println("    ║")

	cyan.Print("║  ")
	hiCyan.Print("██╔══██╗██║   ██║██╔══██╗██╔══██╗██║  ██║██╔══██╗██║")
	cyan.Println("    ║")

	cyan.Print("║  ")
	hiCyan.Print("██████╔╝██║   ██║██║  ██║██║  ██║███████║███████║██║")
	cyan.Println("    ║")

	cyan.Print("║  ")
	hiCyan.Print("██╔══██╗██║   ██║██║  ██║██║  ██║██╔══██║██╔══██║██║")
	cyan.Println("    ║")

	cyan.Print("║  ")
	hiCyan.Print("██████╔╝╚██████╔╝██████╔╝██████╔╝██║  ██║██║  ██║██║")
	cyan.Println("    ║")

	cyan.Print("║  ")
	hiCyan.Print("╚═════╝  ╚═════╝ ╚═════╝ ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝")
	cyan.Println("    ║")

	cyan.Println("╠══════════════════════════════════════════════════════════╣")

	cyan.Print("║  ")
	yellow.Print("🪷 CHAT GATEWAY")
	dim.Print("  │  ")
	magenta.Print("현대불교신문 AI")
	dim.Print("  │  ")
	white.Print("v1.0.0")
	dim.Print("               ")
	cyan.Println("║")

	cyan.Println("╚══════════════════════════════════════════════════════════╝")

	fmt.Println()
}

// PrintMiniBanner displays a smaller, simpler banner for constrained terminals.
func PrintMiniBanner() {
	cyan := color.New(color.FgCyan, color.Bold)
	magenta := color.New(color.FgMagenta, color.Bold)
	yellow := color.New(color.FgYellow)

	fmt.Println()
	cyan.Print("╔══════════════════════════════════╗")
	fmt.Println()
	cyan.Print("║  ")
	magenta.Print("BUDDHAI")
	yellow.Print(" 🪷 ")
	cyan.Print("CHAT GATEWAY      ")
	cyan.Print("║")
	fmt.Println()
	cyan.Print("╚══════════════════════════════════╝")
	fmt.Println()
	fmt.Println()
}
