package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/config"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/export"
)

type exportOptions struct {
	kind   string
	name   string
	format string
	in     string
	out    string
}

func newExportCommand() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Выгрузить сохранённое содержимое в файл",
		Long: `Читает сериализованное содержимое файла (разметку документа, JSON сетки
таблицы или JSON массива слайдов) и записывает артефакт экспорта на диск.`,
		Example: `  compose-suite export --kind sheet --name Budget --in budget.json --out .
  compose-suite export --kind document --format doc --in - --out letter.doc < letter.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.kind, "kind", "", "Тип файла: document, spreadsheet, slide_deck")
	cmd.Flags().StringVar(&opts.name, "name", "", "Имя файла (по умолчанию имя для типа)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Формат: doc, csv, xlsx, html (по умолчанию для типа)")
	cmd.Flags().StringVar(&opts.in, "in", "-", "Файл с содержимым, '-' — stdin")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "Каталог или путь к файлу результата")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func runExport(cmd *cobra.Command, opts *exportOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("загрузка конфигурации: %w", err)
	}
	logger := config.SetupLogger(cfg)

	kind, err := model.ParseKind(opts.kind)
	if err != nil {
		return err
	}

	var format export.Format
	if opts.format != "" {
		if format, err = export.ParseFormat(opts.format); err != nil {
			return err
		}
	}

	content, err := readInput(cmd.InOrStdin(), opts.in)
	if err != nil {
		return err
	}

	name := opts.name
	if name == "" {
		name = kind.DefaultName()
	}

	pipeline := export.NewPipeline(cfg.GridRows, cfg.GridCols, logger)
	sink := &export.FileSink{Path: opts.out}
	artifact, err := pipeline.Deliver(cmd.Context(), sink, name, kind, content, format)
	if err != nil {
		return err
	}

	logger.Debug("Артефакт записан",
		slog.String("path", sink.Written()),
		slog.Int("bytes", len(artifact.Data)),
	)
	fmt.Fprintln(cmd.OutOrStdout(), sink.Written())
	return nil
}

// readInput читает содержимое из файла или stdin ("-").
func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("чтение содержимого: %w", err)
	}
	return string(data), nil
}
