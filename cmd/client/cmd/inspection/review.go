package inspection

import (
	"fmt"

	"fieldsync/cmd/client/cmd/output"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review <client_id>",
	Short: "Отметить осмотр проверенным на сервере",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}
		if err := app.ReviewRecord(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("ошибка review: %w", err)
		}
		output.Success("Осмотр %s проверен", args[0])
		return nil
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock <client_id>",
	Short: "Заблокировать осмотр на сервере",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}
		if err := app.LockRecord(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("ошибка lock: %w", err)
		}
		output.Success("Осмотр %s заблокирован", args[0])
		return nil
	},
}
