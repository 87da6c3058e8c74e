package editor

import (
	"errors"
	"fmt"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
)

// FormatCommand — команда оформления ячейки.
type FormatCommand string

const (
	CmdBold          FormatCommand = "bold"
	CmdItalic        FormatCommand = "italic"
	CmdUnderline     FormatCommand = "underline"
	CmdJustifyLeft   FormatCommand = "justifyLeft"
	CmdJustifyCenter FormatCommand = "justifyCenter"
	CmdJustifyRight  FormatCommand = "justifyRight"
	CmdFontFamily    FormatCommand = "fontFamily"
	CmdColor         FormatCommand = "color"
)

var (
	// ErrNoSelection — команда оформления без выбранной ячейки.
	ErrNoSelection = errors.New("ячейка не выбрана")
	// ErrOutOfRange — координата за пределами сетки.
	ErrOutOfRange = errors.New("координата вне сетки")
	// ErrUnknownCommand — неизвестная команда оформления.
	ErrUnknownCommand = errors.New("неизвестная команда оформления")
)

// Cell — координата ячейки.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Sheet — рабочая копия таблицы с одной выбранной ячейкой.
// Размер сетки не меняется в течение сессии.
type Sheet struct {
	grid     model.Grid
	selected *Cell
}

// NewSheet создаёт рабочую копию таблицы из сетки.
func NewSheet(grid model.Grid) *Sheet {
	return &Sheet{grid: grid.Clone()}
}

// Grid возвращает копию сетки.
func (s *Sheet) Grid() model.Grid {
	return s.grid.Clone()
}

// Selected возвращает выбранную ячейку или nil.
func (s *Sheet) Selected() *Cell {
	if s.selected == nil {
		return nil
	}
	c := *s.selected
	return &c
}

// Select выбирает ячейку. Предыдущий выбор снимается.
func (s *Sheet) Select(row, col int) error {
	if !s.grid.InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	s.selected = &Cell{Row: row, Col: col}
	return nil
}

// SetValue записывает значение ячейки.
func (s *Sheet) SetValue(row, col int, value string) error {
	if !s.grid.InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	s.grid[row][col].Value = value
	return nil
}

// Format применяет команду оформления к выбранной ячейке.
// bold, italic и underline переключаются; выравнивание, шрифт и цвет
// устанавливаются значением arg.
func (s *Sheet) Format(cmd FormatCommand, arg string) error {
	if s.selected == nil {
		return ErrNoSelection
	}
	style := &s.grid[s.selected.Row][s.selected.Col].Style

	switch cmd {
	case CmdBold:
		style.Bold = !style.Bold
	case CmdItalic:
		style.Italic = !style.Italic
	case CmdUnderline:
		style.Underline = !style.Underline
	case CmdJustifyLeft:
		style.Align = model.AlignLeft
	case CmdJustifyCenter:
		style.Align = model.AlignCenter
	case CmdJustifyRight:
		style.Align = model.AlignRight
	case CmdFontFamily:
		style.FontFamily = arg
	case CmdColor:
		style.Color = arg
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	return nil
}

// SetBackgroundImage задаёт фоновое изображение выбранной ячейки.
func (s *Sheet) SetBackgroundImage(dataURL string) error {
	if s.selected == nil {
		return ErrNoSelection
	}
	s.grid[s.selected.Row][s.selected.Col].Style.BackgroundImage = dataURL
	return nil
}

// Fill записывает пары подпись/значение в столбцы A и B начиная с первой
// строки. Пары, не помещающиеся в сетку, отбрасываются.
// Возвращает количество записанных строк.
func (s *Sheet) Fill(labels, values []string) int {
	if s.grid.Cols() < 2 {
		return 0
	}
	n := 0
	for i := 0; i < len(labels) && i < len(values) && i < s.grid.Rows(); i++ {
		s.grid[i][0].Value = labels[i]
		s.grid[i][1].Value = values[i]
		n++
	}
	return n
}

// Serialize кодирует таблицу в формат хранения.
func (s *Sheet) Serialize() (string, error) {
	return s.grid.Serialize()
}
