package model

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"
)

// TextBuffer — непрозрачный буфер rich-text разметки.
// Редактирование выполняет клиент; сервер только читает снимок и заменяет его.
type TextBuffer interface {
	Snapshot() string
	Replace(markup string)
}

// Document — буфер разметки текстового документа.
type Document struct {
	markup string
}

// NewDocument создаёт документ с начальной разметкой.
func NewDocument(markup string) *Document {
	return &Document{markup: markup}
}

// Snapshot возвращает текущую разметку.
func (d *Document) Snapshot() string {
	return d.markup
}

// Replace заменяет разметку целиком (снимок при потере фокуса).
func (d *Document) Replace(markup string) {
	d.markup = markup
}

// IsBlank возвращает true для пустого документа и пустой строки редактора.
func (d *Document) IsBlank() bool {
	m := strings.TrimSpace(d.markup)
	return m == "" || m == "<br>"
}

// AppendImage добавляет изображение по data URL в конец документа.
func (d *Document) AppendImage(dataURL string) {
	d.markup += ImageTag(dataURL)
}

// ImageTag возвращает тег <img> для встраивания data URL.
func ImageTag(dataURL string) string {
	return fmt.Sprintf(`<img src="%s" style="max-width: 100%%;">`, html.EscapeString(dataURL))
}

// DataURL кодирует двоичные данные в data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
