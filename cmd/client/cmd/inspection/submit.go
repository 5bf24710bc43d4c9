package inspection

import (
	"fmt"

	"fieldsync/cmd/client/cmd/output"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <client_id>",
	Short: "Отправить черновик",
	Long: `Переводит черновик в отправленные. При наличии сети запись сразу
синхронизируется, иначе ожидает восстановления связи.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}

		// проверка сети, чтобы submit сразу отправил запись
		app.CheckConnection(cmd.Context())

		session, err := app.Drafts().Resume(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("ошибка открытия черновика: %w", err)
		}
		if err := session.Submit(cmd.Context()); err != nil {
			return fmt.Errorf("ошибка отправки: %w", err)
		}

		rec, err := app.GetRecord(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		output.Success("Осмотр %s: %s", rec.ClientID, rec.SyncState.DisplayName())
		if rec.SyncError != "" {
			output.Warn("Ошибка синхронизации: %s", rec.SyncError)
		}
		return nil
	},
}
