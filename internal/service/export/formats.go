package export

import (
	"strconv"
	"strings"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
)

const (
	wordHeader = "<html xmlns:o='urn:schemas-microsoft-com:office:office' " +
		"xmlns:w='urn:schemas-microsoft-com:office:word' " +
		"xmlns='http://www.w3.org/TR/REC-html40'>" +
		"<head><meta charset='utf-8'><title>"
	wordBody   = "</title></head><body>"
	htmlFooter = "</body></html>"

	slideHeader = "<html><head><title>"
	slideBody   = "</title><style>body{margin:0; font-family: sans-serif;}</style></head><body>"
	slideOpen   = `<div class="slide" style="page-break-after: always; height: 100vh; display: flex; ` +
		`flex-direction: column; justify-content: center; padding: 2rem;">`
	slideClose = "</div>"
)

// Document оборачивает разметку документа в оболочку, которую Word открывает
// как .doc. Содержимое вставляется как есть.
func Document(name, content string) *Artifact {
	var b strings.Builder
	b.Grow(len(wordHeader) + len(name) + len(wordBody) + len(content) + len(htmlFooter))
	b.WriteString(wordHeader)
	b.WriteString(name)
	b.WriteString(wordBody)
	b.WriteString(content)
	b.WriteString(htmlFooter)

	return &Artifact{
		Filename:    filename(name, FormatDoc),
		ContentType: ContentTypeDoc,
		Data:        []byte(b.String()),
	}
}

// Spreadsheet сериализует значения ячеек в CSV. Первая строка — буквы
// столбцов, первая колонка — номер строки с единицы. Каждое значение
// в кавычках, внутренние кавычки удваиваются. Стили не экспортируются.
func Spreadsheet(name string, grid model.Grid) *Artifact {
	var b strings.Builder

	b.WriteByte(',')
	b.WriteString(strings.Join(model.ColumnLabels(grid.Cols()), ","))

	for r, row := range grid {
		b.WriteByte('\n')
		b.WriteString(strconv.Itoa(r + 1))
		for _, cell := range row {
			b.WriteByte(',')
			b.WriteString(quoteField(cell.Value))
		}
	}

	return &Artifact{
		Filename:    filename(name, FormatCSV),
		ContentType: ContentTypeCSV,
		Data:        []byte(b.String()),
	}
}

// quoteField заключает значение в кавычки, удваивая внутренние.
func quoteField(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// SlideDeck собирает слайды в самостоятельный HTML-документ,
// по одному слайду на печатную страницу.
func SlideDeck(name string, slides []string) *Artifact {
	var b strings.Builder
	b.WriteString(slideHeader)
	b.WriteString(name)
	b.WriteString(slideBody)
	for _, s := range slides {
		b.WriteString(slideOpen)
		b.WriteString(s)
		b.WriteString(slideClose)
	}
	b.WriteString(htmlFooter)

	return &Artifact{
		Filename:    filename(name, FormatHTML),
		ContentType: ContentTypeHTML,
		Data:        []byte(b.String()),
	}
}
