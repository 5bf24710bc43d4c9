package reference

import (
	"fmt"
	"os"
	"text/tabwriter"

	"fieldsync/cmd/client/cmd/output"
	"fieldsync/internal/app/client"
	domain "fieldsync/internal/domain/reference"

	"github.com/spf13/cobra"
)

var (
	query      string
	locationID string
)

// ReferenceCmd справочники объектов и помещений
var ReferenceCmd = &cobra.Command{
	Use:     "reference",
	Aliases: []string{"ref"},
	Short:   "Справочники объектов и помещений",
	Long:    `Просмотр и обновление локального кэша справочников, доступного без сети.`,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Обновить кэш справочников с сервера",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("агент не инициализирован")
		}

		if !app.CheckConnection(cmd.Context()) {
			output.Warn("Сервер недоступен, используется сохраненный кэш")
			return nil
		}
		if !app.References().Refresh(cmd.Context()) {
			output.Warn("Не удалось обновить справочники, подробности в журнале")
			return nil
		}
		output.Success("Справочники обновлены")
		return nil
	},
}

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Список объектов",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("агент не инициализирован")
		}
		app.CheckConnection(cmd.Context())

		locations, err := app.References().Locations(cmd.Context(), domain.LocationFilter{Query: query})
		if err != nil {
			return fmt.Errorf("ошибка чтения справочника: %w", err)
		}
		if len(locations) == 0 {
			fmt.Println("Объекты не найдены")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tАДРЕС")
		for _, l := range locations {
			fmt.Fprintf(w, "%s\t%s\t%s\n", l.ID, l.Name, l.Address)
		}
		return w.Flush()
	},
}

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Список помещений",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := client.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("агент не инициализирован")
		}
		app.CheckConnection(cmd.Context())

		units, err := app.References().Units(cmd.Context(), domain.UnitFilter{LocationID: locationID})
		if err != nil {
			return fmt.Errorf("ошибка чтения справочника: %w", err)
		}
		if len(units) == 0 {
			fmt.Println("Помещения не найдены")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tОБЪЕКТ\tНАЗВАНИЕ")
		for _, u := range units {
			fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.LocationID, u.Name)
		}
		return w.Flush()
	},
}

func init() {
	locationsCmd.Flags().StringVar(&query, "query", "", "поиск по названию или адресу")
	unitsCmd.Flags().StringVar(&locationID, "location", "", "фильтр по объекту")

	ReferenceCmd.AddCommand(refreshCmd)
	ReferenceCmd.AddCommand(locationsCmd)
	ReferenceCmd.AddCommand(unitsCmd)
}
