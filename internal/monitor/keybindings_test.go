package monitor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestSortOrder_StringAndNext(t *testing.T) {
	tests := []struct {
		order SortOrder
		name  string
		next  SortOrder
	}{
		{SortByDefault, "default", SortByName},
		{SortByName, "name", SortByCPU},
		{SortByCPU, "cpu", SortByMem},
		{SortByMem, "mem", SortByExpiry},
		{SortByExpiry, "expiry", SortByDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.order.String())
			assert.Equal(t, tt.next, tt.order.Next())
			assert.Equal(t, tt.order, ParseSortOrder(tt.name))
		})
	}
	assert.Equal(t, SortByDefault, ParseSortOrder("bogus"))
}

func threeServerModel() Model {
	m := testModel(map[string]nezha.Frame{
		"main": {Now: testNow, Servers: []nezha.ServerSnapshot{
			onlineSnap(1, "alpha", 10),
			onlineSnap(2, "bravo", 20),
			onlineSnap(3, "charlie", 30),
		}},
	}, Options{})
	return refreshed(m)
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var handled bool
		handled, cmd = m.HandleKeyMsg(keyMsg(k))
		if !handled {
			return m, nil
		}
	}
	return m, cmd
}

func TestHandleKeyMsg_Navigation(t *testing.T) {
	m := threeServerModel()
	require.Len(t, m.servers, 3)
	assert.Equal(t, 0, m.selected)

	m, _ = press(m, "down", "j")
	assert.Equal(t, 2, m.selected)

	m, _ = press(m, "down")
	assert.Equal(t, 2, m.selected, "stops at the last server")

	m, _ = press(m, "k", "up", "up")
	assert.Equal(t, 0, m.selected, "stops at the first server")

	m, _ = press(m, "end")
	assert.Equal(t, 2, m.selected)
	m, _ = press(m, "home")
	assert.Equal(t, 0, m.selected)
}

func TestHandleKeyMsg_Toggles(t *testing.T) {
	m := threeServerModel()

	m, _ = press(m, "s")
	assert.Equal(t, SortByName, m.opts.Sort)

	m, _ = press(m, "l")
	assert.Equal(t, LayoutInline, m.opts.Layout)
	m, _ = press(m, "l")
	assert.Equal(t, LayoutCard, m.opts.Layout)

	m, _ = press(m, "t")
	assert.True(t, m.opts.ShowNetTransfer)

	m, _ = press(m, "?")
	assert.True(t, m.showHelp)
	m, _ = press(m, "esc")
	assert.False(t, m.showHelp)
}

func TestHandleKeyMsg_DetailView(t *testing.T) {
	m := threeServerModel()

	m, _ = press(m, "enter")
	assert.Equal(t, ViewDetail, m.viewMode)

	m, _ = press(m, "down")
	assert.Equal(t, 0, m.selected, "arrows scroll the detail view instead of moving selection")

	m, _ = press(m, "esc")
	assert.Equal(t, ViewList, m.viewMode)
}

func TestHandleKeyMsg_EnterWithoutServers(t *testing.T) {
	m := testModel(nil, Options{})
	m, _ = press(m, "enter")
	assert.Equal(t, ViewList, m.viewMode)
}

func TestHandleKeyMsg_QuitAndRefresh(t *testing.T) {
	m := threeServerModel()

	_, cmd := press(m, "r")
	require.NotNil(t, cmd)
	_, ok := cmd().(refreshMsg)
	assert.True(t, ok)

	m, cmd = press(m, "q")
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())

	handled, _ := m.HandleKeyMsg(keyMsg("x"))
	assert.False(t, handled)
}
