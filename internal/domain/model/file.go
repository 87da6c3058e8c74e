// Пакет model — доменные модели Compose Suite.
// FileRecord — запись файлового реестра; Grid и Deck — рабочие модели
// редакторов таблиц и презентаций; Document — буфер rich-text разметки.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind — тип файла. Фиксируется при создании записи.
type Kind string

const (
	// KindDocument — текстовый документ (rich-text разметка)
	KindDocument Kind = "document"
	// KindSpreadsheet — таблица (JSON 2-D массив ячеек)
	KindSpreadsheet Kind = "spreadsheet"
	// KindSlideDeck — презентация (JSON массив разметки слайдов)
	KindSlideDeck Kind = "slide_deck"
	// KindFolder — папка, редактором не открывается
	KindFolder Kind = "folder"
)

// Kinds — все известные типы в порядке отображения.
var Kinds = []Kind{KindDocument, KindSpreadsheet, KindSlideDeck, KindFolder}

// ParseKind преобразует строку в Kind.
// Помимо канонических значений принимает короткие алиасы doc, sheet, slide.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "document", "doc":
		return KindDocument, nil
	case "spreadsheet", "sheet":
		return KindSpreadsheet, nil
	case "slide_deck", "slidedeck", "slide", "slides":
		return KindSlideDeck, nil
	case "folder":
		return KindFolder, nil
	default:
		return "", fmt.Errorf("недопустимый тип файла: %q, допустимые: document, spreadsheet, slide_deck, folder", s)
	}
}

// Editable возвращает true для типов, у которых есть редактор.
func (k Kind) Editable() bool {
	switch k {
	case KindDocument, KindSpreadsheet, KindSlideDeck:
		return true
	default:
		return false
	}
}

// ColorTag — подсказка для UI, соответствует типу 1:1.
func (k Kind) ColorTag() string {
	switch k {
	case KindDocument:
		return "bg-blue-500"
	case KindSpreadsheet:
		return "bg-ios-green"
	case KindSlideDeck:
		return "bg-ios-orange"
	case KindFolder:
		return "bg-gray-400"
	default:
		return ""
	}
}

// DefaultName — имя-заглушка для новой сессии редактора.
func (k Kind) DefaultName() string {
	switch k {
	case KindDocument:
		return "Untitled Document"
	case KindSpreadsheet:
		return "Untitled Spreadsheet"
	case KindSlideDeck:
		return "Untitled Presentation"
	case KindFolder:
		return "New Folder"
	default:
		return ""
	}
}

// FileRecord — запись реестра файлов.
// Content хранится в сериализованном виде; его структура определяется Kind,
// но реестр её не проверяет.
type FileRecord struct {
	// ID — уникальный идентификатор (UUID v4), не меняется
	ID string `json:"id"`

	// Name — отображаемое имя
	Name string `json:"name"`

	// Kind — тип файла
	Kind Kind `json:"kind"`

	// ModifiedAt — время последнего сохранения (UTC)
	ModifiedAt time.Time `json:"modified_at"`

	// Shared — зарезервировано, всегда false
	Shared bool `json:"shared"`

	// ColorTag — подсказка для отображения
	ColorTag string `json:"color_tag"`

	// Content — сериализованное содержимое
	Content string `json:"content,omitempty"`
}
