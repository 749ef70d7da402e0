package monitor

import tea "github.com/charmbracelet/bubbletea"

// SortOrder defines how servers are ordered on the dashboard.
type SortOrder int

const (
	// SortByDefault puts live servers first, then higher display index.
	SortByDefault SortOrder = iota
	SortByName
	SortByCPU
	SortByMem
	// SortByExpiry puts the soonest billing end date first.
	SortByExpiry
	sortOrderCount
)

// String returns the config name of the sort order.
func (s SortOrder) String() string {
	switch s {
	case SortByName:
		return "name"
	case SortByCPU:
		return "cpu"
	case SortByMem:
		return "mem"
	case SortByExpiry:
		return "expiry"
	default:
		return "default"
	}
}

// Next cycles to the next sort order.
func (s SortOrder) Next() SortOrder {
	return (s + 1) % sortOrderCount
}

// ParseSortOrder maps a config value to a SortOrder, falling back to default.
func ParseSortOrder(s string) SortOrder {
	for o := SortByDefault; o < sortOrderCount; o++ {
		if o.String() == s {
			return o
		}
	}
	return SortByDefault
}

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
)

const (
	KeyQuit           = "q"
	KeyQuitAlt        = "ctrl+c"
	KeyRefresh        = "r"
	KeyCycleSort      = "s"
	KeyToggleLayout   = "l"
	KeyToggleTransfer = "t"
	KeySelectPrev     = "up"
	KeySelectPrevK    = "k"
	KeySelectNext     = "down"
	KeySelectNextJ    = "j"
	KeySelectFirst    = "home"
	KeySelectLast     = "end"
	KeyExpand         = "enter"
	KeyCollapse       = "esc"
	KeyToggleHelp     = "?"
)

// HandleKeyMsg applies a key press. It reports whether the key was used.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}
	if m.viewMode == ViewDetail && key == KeyCollapse {
		m.viewMode = ViewList
		return true, nil
	}

	// The detail viewport scrolls with the arrow keys.
	if m.viewMode == ViewDetail {
		switch key {
		case KeySelectPrev, KeySelectPrevK:
			m.detailViewport.LineUp(1)
			return true, nil
		case KeySelectNext, KeySelectNextJ:
			m.detailViewport.LineDown(1)
			return true, nil
		}
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyRefresh:
		return true, m.collectCmd()

	case KeyCycleSort:
		m.opts.Sort = m.opts.Sort.Next()
		m.sortServers()
		return true, nil

	case KeyToggleLayout:
		if m.opts.Layout == LayoutCard {
			m.opts.Layout = LayoutInline
		} else {
			m.opts.Layout = LayoutCard
		}
		return true, nil

	case KeyToggleTransfer:
		m.opts.ShowNetTransfer = !m.opts.ShowNetTransfer
		return true, nil

	case KeySelectPrev, KeySelectPrevK:
		if m.selected > 0 {
			m.selected--
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.selected < len(m.servers)-1 {
			m.selected++
		}
		return true, nil

	case KeySelectFirst:
		m.selected = 0
		return true, nil

	case KeySelectLast:
		if len(m.servers) > 0 {
			m.selected = len(m.servers) - 1
		}
		return true, nil

	case KeyExpand:
		if m.viewMode == ViewList && len(m.servers) > 0 {
			m.viewMode = ViewDetail
			m.updateDetailViewportContent()
			m.detailViewport.GotoTop()
		}
		return true, nil

	case KeyCollapse:
		m.viewMode = ViewList
		return true, nil
	}

	return false, nil
}
