package model

import (
	"encoding/json"
	"fmt"
)

// Размеры таблицы по умолчанию.
const (
	DefaultRows = 30
	DefaultCols = 10
)

// Alignment — горизонтальное выравнивание текста в ячейке.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// CellStyle — оформление ячейки. Пустое поле означает значение по умолчанию.
type CellStyle struct {
	Bold            bool      `json:"bold,omitempty"`
	Italic          bool      `json:"italic,omitempty"`
	Underline       bool      `json:"underline,omitempty"`
	Align           Alignment `json:"align,omitempty"`
	FontFamily      string    `json:"fontFamily,omitempty"`
	Color           string    `json:"color,omitempty"`
	BackgroundImage string    `json:"backgroundImage,omitempty"`
}

// IsZero возвращает true, если ни одно свойство стиля не задано.
func (s CellStyle) IsZero() bool {
	return s == CellStyle{}
}

// Cell — ячейка таблицы.
type Cell struct {
	Value string    `json:"value"`
	Style CellStyle `json:"style"`
}

// Grid — прямоугольная сетка ячеек [строка][столбец].
type Grid [][]Cell

// NewGrid создаёт пустую сетку rows × cols.
func NewGrid(rows, cols int) Grid {
	g := make(Grid, rows)
	for r := range g {
		g[r] = make([]Cell, cols)
	}
	return g
}

// Rows возвращает количество строк.
func (g Grid) Rows() int {
	return len(g)
}

// Cols возвращает количество столбцов (по первой строке).
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// InBounds проверяет, что координата лежит внутри сетки.
func (g Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.Rows() && col >= 0 && col < g.Cols()
}

// Clone возвращает глубокую копию сетки.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for r := range g {
		out[r] = make([]Cell, len(g[r]))
		copy(out[r], g[r])
	}
	return out
}

// Serialize кодирует сетку в формат хранения (JSON 2-D массив).
func (g Grid) Serialize() (string, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("сериализация таблицы: %w", err)
	}
	return string(data), nil
}

// ParseGrid декодирует сетку из формата хранения и приводит её к размеру
// rows × cols: лишние строки и столбцы отбрасываются, недостающие
// дополняются пустыми ячейками.
func ParseGrid(content string, rows, cols int) (Grid, error) {
	var raw [][]Cell
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("разбор таблицы: %w", err)
	}

	g := NewGrid(rows, cols)
	for r := 0; r < rows && r < len(raw); r++ {
		copy(g[r], raw[r])
	}
	return g, nil
}

// ColumnLabel возвращает буквенное имя столбца по индексу с нуля:
// 0 → A, 25 → Z, 26 → AA.
func ColumnLabel(index int) string {
	if index < 0 {
		return ""
	}
	var buf []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		buf = append([]byte{byte('A' + (n-1)%26)}, buf...)
	}
	return string(buf)
}

// ColumnLabels возвращает имена первых n столбцов.
func ColumnLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = ColumnLabel(i)
	}
	return labels
}
