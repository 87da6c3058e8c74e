package export

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
)

const workbookSheet = "Sheet1"

var hexColor = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)

// Workbook строит .xlsx из сетки, сохраняя оформление ячеек:
// начертание, выравнивание, шрифт, цвет текста и фоновые изображения.
// Номера строк и буквы столбцов не добавляются, их даёт сам Excel.
// Изображение, которое excelize не смог разобрать, пропускается с предупреждением
// в лог, остальное содержимое ячейки экспортируется.
func Workbook(name string, grid model.Grid, logger *slog.Logger) (*Artifact, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	styles := make(map[model.CellStyle]int)

	for r, row := range grid {
		for c, cell := range row {
			if cell.Value == "" && cell.Style.IsZero() {
				continue
			}

			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, fmt.Errorf("адрес ячейки (%d, %d): %w", r, c, err)
			}

			if cell.Value != "" {
				if err := f.SetCellValue(workbookSheet, ref, cell.Value); err != nil {
					return nil, fmt.Errorf("значение ячейки %s: %w", ref, err)
				}
			}

			if cell.Style.BackgroundImage != "" {
				if err := addPicture(f, ref, cell.Style.BackgroundImage); err != nil {
					logger.Warn("Изображение ячейки пропущено",
						slog.String("name", name),
						slog.String("cell", ref),
						slog.String("error", err.Error()),
					)
				}
			}

			key := cell.Style
			key.BackgroundImage = ""
			if key.IsZero() {
				continue
			}

			id, ok := styles[key]
			if !ok {
				id, err = f.NewStyle(toExcelStyle(key))
				if err != nil {
					return nil, fmt.Errorf("стиль ячейки %s: %w", ref, err)
				}
				styles[key] = id
			}
			if err := f.SetCellStyle(workbookSheet, ref, ref, id); err != nil {
				return nil, fmt.Errorf("применение стиля %s: %w", ref, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("запись xlsx: %w", err)
	}

	return &Artifact{
		Filename:    filename(name, FormatXLSX),
		ContentType: ContentTypeXLSX,
		Data:        buf.Bytes(),
	}, nil
}

// toExcelStyle переводит стиль ячейки в стиль excelize.
func toExcelStyle(s model.CellStyle) *excelize.Style {
	font := &excelize.Font{
		Bold:   s.Bold,
		Italic: s.Italic,
		Family: s.FontFamily,
	}
	if s.Underline {
		font.Underline = "single"
	}
	if hexColor.MatchString(s.Color) {
		font.Color = strings.TrimPrefix(s.Color, "#")
	}

	style := &excelize.Style{Font: font}
	if s.Align != "" {
		style.Alignment = &excelize.Alignment{Horizontal: string(s.Align)}
	}
	return style
}

// addPicture встраивает изображение из data URL в ячейку.
// Data URL без base64 или с неизвестным типом изображения пропускается молча,
// ошибка возвращается только для данных, которые не удалось встроить.
func addPicture(f *excelize.File, ref, dataURL string) error {
	ext, data, ok := decodeImageDataURL(dataURL)
	if !ok {
		return nil
	}
	err := f.AddPictureFromBytes(workbookSheet, ref, &excelize.Picture{
		Extension: ext,
		File:      data,
		Format:    &excelize.GraphicOptions{AutoFit: true},
	})
	if err != nil {
		return fmt.Errorf("изображение в ячейке %s: %w", ref, err)
	}
	return nil
}

// decodeImageDataURL разбирает data:image/<type>;base64,<payload>.
func decodeImageDataURL(dataURL string) (ext string, data []byte, ok bool) {
	meta, payload, found := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return "", nil, false
	}

	switch strings.TrimSuffix(meta, ";base64") {
	case "image/png":
		ext = ".png"
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	case "image/gif":
		ext = ".gif"
	default:
		return "", nil, false
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return ext, data, true
}
