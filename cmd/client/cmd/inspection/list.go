package inspection

import (
	"fmt"
	"os"
	"text/tabwriter"

	"fieldsync/cmd/client/cmd/output"
	domain "fieldsync/internal/domain/inspection"

	"github.com/spf13/cobra"
)

var (
	listState    string
	listLocation string
	listLimit    int
	listJSON     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Список осмотров",
	Long: `Просмотр осмотров в локальном хранилище.

Фильтр --state: draft, pending, synced, failed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}

		filter, err := buildFilter()
		if err != nil {
			return err
		}

		records, err := app.ListRecords(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("ошибка получения списка осмотров: %w", err)
		}

		if listJSON {
			for _, rec := range records {
				for i := range rec.MediaItems {
					rec.MediaItems[i].Raw = nil
				}
			}
			return output.JSON(os.Stdout, records)
		}

		if len(records) == 0 {
			fmt.Println("Осмотры не найдены")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CLIENT ID\tОБЪЕКТ\tТИП\tСОСТОЯНИЕ\tSERVER ID\tИЗМЕНЕН")
		for _, rec := range records {
			serverID := "-"
			if rec.ServerID != 0 {
				serverID = fmt.Sprint(rec.ServerID)
			}
			state := string(rec.SyncState)
			if rec.IsDraft() {
				state = "draft"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				rec.ClientID,
				rec.Payload.LocationID,
				rec.Payload.Type,
				output.SyncState(state, rec.SyncState.DisplayName()),
				serverID,
				rec.LastModified.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	},
}

func buildFilter() (domain.Filter, error) {
	filter := domain.Filter{
		LocationID: listLocation,
		Limit:      listLimit,
	}

	switch listState {
	case "":
	case "draft":
		filter.RecordState = domain.StateDraft
	default:
		state := domain.SyncState(listState)
		if err := state.Validate(); err != nil {
			return filter, err
		}
		filter.RecordState = domain.StateSubmitted
		filter.SyncStates = []domain.SyncState{state}
	}
	return filter, nil
}

func init() {
	listCmd.Flags().StringVar(&listState, "state", "", "фильтр по состоянию")
	listCmd.Flags().StringVar(&listLocation, "location", "", "фильтр по объекту")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "максимальное количество")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "вывод в формате JSON")
}
