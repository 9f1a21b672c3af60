package spreadsheet

// Sheet is one worksheet of a Memory workbook
type Sheet struct {
	Title string
	Rows  [][]string
}

// Memory is a Workbook held entirely in memory
type Memory struct {
	Sheets []Sheet
}

// NewMemory creates an in-memory workbook from the given sheets
func NewMemory(sheets ...Sheet) *Memory {
	return &Memory{Sheets: sheets}
}

func (m *Memory) SheetCount() int { return len(m.Sheets) }

func (m *Memory) SheetTitle(sheet int) string {
	if s := m.sheet(sheet); s != nil {
		return s.Title
	}
	return ""
}

func (m *Memory) HighestRow(sheet int) int {
	s := m.sheet(sheet)
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

func (m *Memory) Cell(sheet, col, row int) string {
	s := m.sheet(sheet)
	if s == nil || row < 1 || row > len(s.Rows) {
		return ""
	}
	cells := s.Rows[row-1]
	if col < 1 || col > len(cells) {
		return ""
	}
	return cells[col-1]
}

func (m *Memory) Close() error { return nil }

func (m *Memory) sheet(i int) *Sheet {
	if i < 1 || i > len(m.Sheets) {
		return nil
	}
	return &m.Sheets[i-1]
}
