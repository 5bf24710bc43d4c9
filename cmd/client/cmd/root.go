package cmd

import (
	"fmt"
	"os"

	"fieldsync/cmd/client/cmd/inspection"
	"fieldsync/cmd/client/cmd/output"
	"fieldsync/cmd/client/cmd/reference"
	"fieldsync/cmd/client/cmd/sync"
	"fieldsync/internal/app/client"
	"fieldsync/internal/app/client/config"
	"fieldsync/internal/utils/logger"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

var (
	debug     bool
	noColor   bool
	remoteURL string
	dataPath  string
)

var rootCmd = &cobra.Command{
	Use:   "fieldsync",
	Short: "FieldSync - агент сбора и синхронизации осмотров",
	Long: `FieldSync: агент для проведения осмотров объектов без сети.

Осмотры (чек-листы, показания счетчиков, фото) сохраняются на устройстве
и синхронизируются с системой учета ровно один раз, переживая
перезапуски, повторы и дубликаты.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.Error("Ошибка: %v", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	output.Setup(noColor)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Флаги командной строки важнее окружения
	if remoteURL != "" {
		cfg.RemoteURL = remoteURL
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	log := logger.NewWithFile(cfg.Env, level, cfg.LogFile)

	app, err := client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации агента: %w", err)
	}

	log.Debug("agent initialized", slog.String("data_path", cfg.DataPath))
	cmd.SetContext(client.WithApp(cmd.Context(), app))
	return nil
}

func closeApp(cmd *cobra.Command, _ []string) error {
	if app, ok := client.FromContext(cmd.Context()); ok {
		return app.Close()
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "отключить цветной вывод")
	rootCmd.PersistentFlags().StringVar(&remoteURL, "remote", "", "URL системы учета осмотров")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "путь к локальной базе")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sync.SyncCmd)
	rootCmd.AddCommand(inspection.InspectionCmd)
	rootCmd.AddCommand(reference.ReferenceCmd)
}
