// main.go — точка входа Compose Suite.
// Без подкоманды запускается HTTP-сервис (serve); export выгружает
// сохранённое содержимое в файл через тот же конвейер экспорта.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/config"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "compose-suite",
		Short:   "Compose Suite: документы, таблицы и презентации",
		Version: config.Version,
		Long: `Compose Suite хранит документы, таблицы и презентации в реестре файлов,
открывает их в сессиях редакторов и выгружает в doc, csv, xlsx и html.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newExportCommand())

	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}
