package inspection

import (
	"fmt"

	"fieldsync/internal/app/client"

	"github.com/spf13/cobra"
)

// InspectionCmd - родительская команда для операций с осмотрами
var InspectionCmd = &cobra.Command{
	Use:     "inspection",
	Aliases: []string{"insp"},
	Short:   "Управление осмотрами",
	Long:    `Создание, отправка, просмотр и удаление осмотров в локальном хранилище.`,
}

func appFrom(cmd *cobra.Command) (*client.App, error) {
	app, ok := client.FromContext(cmd.Context())
	if !ok {
		return nil, fmt.Errorf("агент не инициализирован")
	}
	return app, nil
}

func init() {
	InspectionCmd.AddCommand(newCmd)
	InspectionCmd.AddCommand(submitCmd)
	InspectionCmd.AddCommand(listCmd)
	InspectionCmd.AddCommand(purgeCmd)
	InspectionCmd.AddCommand(reviewCmd)
	InspectionCmd.AddCommand(lockCmd)
}
