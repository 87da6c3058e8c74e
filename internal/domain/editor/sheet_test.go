package editor

import (
	"errors"
	"testing"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
)

// TestSheet_FormatRequiresSelection проверяет, что без выбора оформление не применяется.
func TestSheet_FormatRequiresSelection(t *testing.T) {
	s := NewSheet(model.NewGrid(3, 3))

	if err := s.Format(CmdBold, ""); !errors.Is(err, ErrNoSelection) {
		t.Errorf("ожидалась ErrNoSelection, получено %v", err)
	}
	if err := s.SetBackgroundImage("data:x"); !errors.Is(err, ErrNoSelection) {
		t.Errorf("ожидалась ErrNoSelection, получено %v", err)
	}
}

// TestSheet_FormatSelectedOnly проверяет, что команда затрагивает только выбранную ячейку.
func TestSheet_FormatSelectedOnly(t *testing.T) {
	s := NewSheet(model.NewGrid(3, 3))
	if err := s.Select(1, 2); err != nil {
		t.Fatalf("Select: %v", err)
	}

	cmds := []struct {
		cmd FormatCommand
		arg string
	}{
		{CmdBold, ""},
		{CmdItalic, ""},
		{CmdUnderline, ""},
		{CmdJustifyCenter, ""},
		{CmdFontFamily, "Georgia"},
		{CmdColor, "#ff0000"},
	}
	for _, c := range cmds {
		if err := s.Format(c.cmd, c.arg); err != nil {
			t.Fatalf("Format(%s): %v", c.cmd, err)
		}
	}

	g := s.Grid()
	want := model.CellStyle{
		Bold: true, Italic: true, Underline: true,
		Align: model.AlignCenter, FontFamily: "Georgia", Color: "#ff0000",
	}
	if g[1][2].Style != want {
		t.Errorf("стиль = %+v, ожидался %+v", g[1][2].Style, want)
	}

	for r := range g {
		for c := range g[r] {
			if (r != 1 || c != 2) && !g[r][c].Style.IsZero() {
				t.Errorf("ячейка (%d, %d) изменена: %+v", r, c, g[r][c].Style)
			}
		}
	}
}

// TestSheet_ToggleTwice проверяет, что повторная команда снимает начертание.
func TestSheet_ToggleTwice(t *testing.T) {
	s := NewSheet(model.NewGrid(1, 1))
	_ = s.Select(0, 0)
	_ = s.Format(CmdBold, "")
	_ = s.Format(CmdBold, "")

	if s.Grid()[0][0].Style.Bold {
		t.Error("Bold должен быть снят после второго переключения")
	}
}

func TestSheet_Errors(t *testing.T) {
	s := NewSheet(model.NewGrid(2, 2))

	if err := s.Select(2, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Select(2, 0): ожидалась ErrOutOfRange, получено %v", err)
	}
	if err := s.SetValue(0, -1, "x"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SetValue(0, -1): ожидалась ErrOutOfRange, получено %v", err)
	}
	_ = s.Select(0, 0)
	if err := s.Format("strike", ""); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Format(strike): ожидалась ErrUnknownCommand, получено %v", err)
	}
}

// TestSheet_WorkingCopy проверяет, что рабочая копия не разделяет память с исходной сеткой.
func TestSheet_WorkingCopy(t *testing.T) {
	src := model.NewGrid(1, 1)
	s := NewSheet(src)
	_ = s.SetValue(0, 0, "new")

	if src[0][0].Value != "" {
		t.Error("исходная сетка изменена")
	}
}

func TestSheet_Fill(t *testing.T) {
	s := NewSheet(model.NewGrid(2, 3))

	n := s.Fill([]string{"Q1", "Q2", "Q3"}, []string{"1", "2", "3"})
	if n != 2 {
		t.Errorf("Fill = %d, ожидалось 2", n)
	}
	g := s.Grid()
	if g[1][0].Value != "Q2" || g[1][1].Value != "2" {
		t.Errorf("строка 1 = %+v", g[1])
	}
}
