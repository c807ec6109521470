// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the rigrun-slots TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Purple - Selected slot marker and detail headings
  - Cyan - Brand color, cursor and key hints
  - Emerald - Success states
  - Amber - Pending states (loading, checking)
  - Rose - Errors

# Theme (theme.go)

Theme bundles the Lip Gloss styles used by the pages. It is built once per
program with NewTheme, which detects the terminal profile with termenv.

	theme := styles.NewTheme()
	fmt.Println(theme.Title.Render("Slots"))

DisableColor switches Lip Gloss to the ASCII profile, for --no-color and
NO_COLOR.

# Accessibility

Status helpers always pair color with an ASCII indicator ([OK], [X], [!])
so states stay distinguishable without color.
*/
package styles
