package cmd

import (
	"fmt"

	"fieldsync/internal/app/client"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Запустить агента",
	Long: `Запускает агента в фоне: мониторинг сети, автоматическую синхронизацию
по таймеру и при восстановлении связи, обновление справочников и локальный
API статуса.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("агент не инициализирован")
		}
		return app.Run()
	},
}
