package sync

import (
	"fmt"
	"os"
	"time"

	"fieldsync/cmd/client/cmd/output"
	"fieldsync/internal/app/client"
	"fieldsync/internal/app/client/syncengine"

	"github.com/spf13/cobra"
)

var jsonOutput bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизировать ожидающие осмотры",
	Long: `Отправляет все отправленные пользователем, но еще не синхронизированные
осмотры. Записи с ошибкой не повторяются автоматически: используйте
"fieldsync sync retry".`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("агент не инициализирован")
		}

		if !app.CheckConnection(cmd.Context()) {
			output.Warn("Сервер недоступен, записи остаются в очереди")
			return nil
		}

		return printResult(app.SyncNow(cmd.Context()))
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Повторить синхронизацию записей с ошибкой",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("агент не инициализирован")
		}

		result, err := app.RetryFailed(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка повтора: %w", err)
		}
		if !app.Online() {
			output.Warn("Сервер недоступен, записи возвращены в очередь")
			return nil
		}
		return printResult(result)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Статус синхронизации",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("агент не инициализирован")
		}

		counts, err := app.Counts(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка чтения хранилища: %w", err)
		}
		online := app.CheckConnection(cmd.Context())

		if jsonOutput {
			return output.JSON(os.Stdout, map[string]any{
				"counts": counts,
				"online": online,
			})
		}

		fmt.Println("=== Статус синхронизации ===")
		if online {
			output.Success("Сервер доступен")
		} else {
			output.Warn("Нет связи с сервером")
		}
		fmt.Printf("Черновики:          %d\n", counts.Drafts)
		fmt.Printf("Ожидают отправки:   %s\n", output.SyncState("pending", fmt.Sprint(counts.Pending)))
		fmt.Printf("Синхронизированы:   %s\n", output.SyncState("synced", fmt.Sprint(counts.Synced)))
		fmt.Printf("С ошибкой:          %s\n", output.SyncState("failed", fmt.Sprint(counts.Failed)))
		if counts.Failed > 0 {
			fmt.Println(output.Muted("Повторить: fieldsync sync retry"))
		}
		return nil
	},
}

func printResult(result *syncengine.BatchResult) error {
	if jsonOutput {
		return output.JSON(os.Stdout, result)
	}

	if result.Skipped {
		output.Warn("Синхронизация уже выполняется")
		return nil
	}
	if result.Attempted == 0 {
		output.Success("Нет записей для отправки")
		return nil
	}

	fmt.Printf("Отправлено: %d, успешно: %d, с ошибкой: %d (%v)\n",
		result.Attempted, result.Succeeded, result.Failed, result.Duration.Round(time.Millisecond))

	for _, e := range result.Errors {
		output.Error("%s [%s]: %s", e.ClientID, e.Operation, e.Error)
	}
	if result.Failed == 0 {
		output.Success("Синхронизация завершена")
	}
	return nil
}

func init() {
	SyncCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "вывод в формате JSON")
	SyncCmd.AddCommand(retryCmd)
	SyncCmd.AddCommand(statusCmd)
}
