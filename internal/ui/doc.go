// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing and discussing videos:
//  1. [LoginView] : Log in or register when no session token is stored
//  2. [DashboardView] : Browse videos, cycle the category filter, refresh
//  3. [DetailView] : Read metadata, transcription and discussion in a scrollable viewport
//  4. [ComposeView] : Write a message or a reply and send it
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving results via the Msg union type.
// Every network call runs as a [tea.Cmd]; failures render as a single error line and never exit the program.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
