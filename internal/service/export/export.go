// Пакет export — конвейер экспорта файлов Compose Suite в скачиваемые артефакты.
//
// Для каждого типа файла есть чистая функция (имя, содержимое) → Artifact:
//   - document → .doc (HTML в оболочке MS Word)
//   - spreadsheet → .csv (все значения в кавычках) или .xlsx (со стилями)
//   - slide_deck → .html (один div на слайд, разрыв страницы после каждого)
//
// Экспорт никогда не изменяет реестр файлов.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
)

// Format — формат артефакта экспорта.
type Format string

const (
	FormatDoc  Format = "doc"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

// MIME-типы артефактов.
const (
	ContentTypeDoc  = "application/msword"
	ContentTypeCSV  = "text/csv"
	ContentTypeHTML = "text/html"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrUnsupportedFormat — формат недоступен для данного типа файла.
var ErrUnsupportedFormat = errors.New("формат экспорта не поддерживается")

var exportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cs_exports_total",
		Help: "Количество экспортов по типу файла и формату",
	},
	[]string{"kind", "format"},
)

// Artifact — результат экспорта, готовый к сохранению как файл.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Sink — получатель артефакта ("сохранить как" на стороне клиента).
type Sink interface {
	Save(ctx context.Context, artifact *Artifact) error
}

// SinkFunc — адаптер функции к Sink.
type SinkFunc func(ctx context.Context, artifact *Artifact) error

// Save вызывает f.
func (f SinkFunc) Save(ctx context.Context, artifact *Artifact) error {
	return f(ctx, artifact)
}

// ParseFormat преобразует строку в Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatDoc, FormatCSV, FormatHTML, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// DefaultFormat — основной формат экспорта для типа файла.
func DefaultFormat(kind model.Kind) (Format, error) {
	switch kind {
	case model.KindDocument:
		return FormatDoc, nil
	case model.KindSpreadsheet:
		return FormatCSV, nil
	case model.KindSlideDeck:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: тип %q", ErrUnsupportedFormat, kind)
	}
}

// Pipeline — конвейер экспорта. Размеры сетки нужны для разбора
// сохранённого содержимого таблиц.
type Pipeline struct {
	rows   int
	cols   int
	logger *slog.Logger
}

// NewPipeline создаёт конвейер экспорта.
func NewPipeline(rows, cols int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		rows:   rows,
		cols:   cols,
		logger: logger.With(slog.String("component", "export")),
	}
}

// Render строит артефакт из сериализованного содержимого файла.
// format == "" означает формат по умолчанию для kind.
// Некорректное содержимое таблицы или презентации заменяется пустым
// документом нужной формы.
func (p *Pipeline) Render(name string, kind model.Kind, content string, format Format) (*Artifact, error) {
	if format == "" {
		f, err := DefaultFormat(kind)
		if err != nil {
			return nil, err
		}
		format = f
	}

	var (
		artifact *Artifact
		err      error
	)

	switch kind {
	case model.KindDocument:
		if format != FormatDoc {
			return nil, fmt.Errorf("%w: %s для %s", ErrUnsupportedFormat, format, kind)
		}
		artifact = Document(name, content)

	case model.KindSpreadsheet:
		grid, perr := model.ParseGrid(content, p.rows, p.cols)
		if perr != nil {
			p.logger.Warn("Некорректное содержимое таблицы, экспортируется пустая сетка",
				slog.String("name", name),
				slog.String("error", perr.Error()),
			)
			grid = model.NewGrid(p.rows, p.cols)
		}
		switch format {
		case FormatCSV:
			artifact = Spreadsheet(name, grid)
		case FormatXLSX:
			artifact, err = Workbook(name, grid, p.logger)
		default:
			return nil, fmt.Errorf("%w: %s для %s", ErrUnsupportedFormat, format, kind)
		}

	case model.KindSlideDeck:
		if format != FormatHTML {
			return nil, fmt.Errorf("%w: %s для %s", ErrUnsupportedFormat, format, kind)
		}
		deck, perr := model.ParseDeck(content)
		if perr != nil {
			p.logger.Warn("Некорректное содержимое презентации, экспортируется пустой слайд",
				slog.String("name", name),
				slog.String("error", perr.Error()),
			)
			deck = model.NewDeck()
		}
		artifact = SlideDeck(name, deck.Slides())

	default:
		return nil, fmt.Errorf("%w: тип %q", ErrUnsupportedFormat, kind)
	}

	if err != nil {
		return nil, err
	}

	exportsTotal.WithLabelValues(string(kind), string(format)).Inc()
	return artifact, nil
}

// Deliver строит артефакт и передаёт его в sink ровно один раз.
func (p *Pipeline) Deliver(ctx context.Context, sink Sink, name string, kind model.Kind, content string, format Format) (*Artifact, error) {
	artifact, err := p.Render(name, kind, content, format)
	if err != nil {
		return nil, err
	}
	if err := sink.Save(ctx, artifact); err != nil {
		return nil, fmt.Errorf("сохранение артефакта %s: %w", artifact.Filename, err)
	}
	return artifact, nil
}

// filename формирует имя файла артефакта.
func filename(name string, format Format) string {
	return name + "." + string(format)
}
