// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderStatusIncludesIndicators(t *testing.T) {
	assert.Contains(t, RenderSuccess("saved"), StatusIndicators.Success)
	assert.Contains(t, RenderError("failed"), StatusIndicators.Error)
	assert.Contains(t, RenderWarning("careful"), StatusIndicators.Warning)
	assert.Contains(t, RenderError("failed"), "failed")
}

func TestTheme_ContentWidth(t *testing.T) {
	theme := NewTheme()

	theme.SetSize(100, 40)
	assert.Equal(t, 96, theme.ContentWidth())

	theme.SetSize(10, 40)
	assert.Equal(t, 20, theme.ContentWidth())
}

func TestTheme_RenderHelp(t *testing.T) {
	theme := NewTheme()
	help := theme.RenderHelp([2]string{"a", "add"}, [2]string{"q", "quick chat"})

	assert.Contains(t, help, "add")
	assert.Contains(t, help, "quick chat")
	assert.Less(t, strings.Index(help, "add"), strings.Index(help, "quick chat"))
}
