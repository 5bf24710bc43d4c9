package inspection

import (
	"fmt"

	"fieldsync/cmd/client/cmd/output"

	"github.com/spf13/cobra"
)

var purgeAll bool

var purgeCmd = &cobra.Command{
	Use:   "purge [client_id]",
	Short: "Удалить синхронизированные осмотры",
	Long: `Удаляет локальные копии синхронизированных осмотров.
Черновики, ожидающие и записи с ошибкой не удаляются.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}

		if purgeAll {
			n, err := app.PurgeAllSynced(cmd.Context())
			if err != nil {
				return fmt.Errorf("ошибка удаления: %w", err)
			}
			output.Success("Удалено осмотров: %d", n)
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("укажите client_id или --all")
		}
		if err := app.PurgeSynced(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("ошибка удаления: %w", err)
		}
		output.Success("Осмотр %s удален", args[0])
		return nil
	},
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeAll, "all", false, "удалить все синхронизированные")
}
