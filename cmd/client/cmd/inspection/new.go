package inspection

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fieldsync/cmd/client/cmd/output"
	"fieldsync/internal/app/client/draft"
	domain "fieldsync/internal/domain/inspection"

	"github.com/spf13/cobra"
)

var (
	newLocation string
	newUnit     string
	newType     string
	newNotes    string
	newItems    []string
	newReadings []string
	newPhotos   []string
	newSubmit   bool
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Новый осмотр",
	Long: `Создает черновик осмотра. Пункты чек-листа задаются как "название:состояние",
показания счетчиков как "тип:предыдущее:текущее".

Пример:
  fieldsync inspection new --location loc-1 --type move_out \
    --item "Стены:good" --item "Окна:damaged" \
    --reading "water:120.5:131" --photo ./window.jpg --submit`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}
		if newLocation == "" {
			return fmt.Errorf("необходимо указать --location")
		}

		// флаги разбираются до Begin: при ошибке черновик не создается
		in, err := collectCapture(newItems, newReadings, newPhotos)
		if err != nil {
			return err
		}

		session, err := app.Drafts().Begin(cmd.Context(), domain.Payload{
			LocationID:  newLocation,
			UnitID:      newUnit,
			Type:        newType,
			InspectedAt: time.Now(),
			Notes:       newNotes,
		})
		if err != nil {
			return fmt.Errorf("ошибка создания черновика: %w", err)
		}

		if err := in.apply(session); err != nil {
			_ = session.Close(cmd.Context())
			return err
		}

		if newSubmit {
			app.CheckConnection(cmd.Context())
			if err := session.Submit(cmd.Context()); err != nil {
				_ = session.Close(cmd.Context())
				return fmt.Errorf("ошибка отправки: %w", err)
			}
			rec := session.Record()
			stored, err := app.GetRecord(cmd.Context(), rec.ClientID)
			if err == nil {
				rec = stored
			}
			output.Success("Осмотр %s отправлен: %s", rec.ClientID, rec.SyncState.DisplayName())
			return nil
		}

		if err := session.Close(cmd.Context()); err != nil {
			return fmt.Errorf("ошибка сохранения черновика: %w", err)
		}
		output.Success("Черновик сохранен: %s", session.ClientID())
		return nil
	},
}

// capture разобранные флаги осмотра
type capture struct {
	items    []domain.ChecklistItem
	readings []domain.MeterReading
	media    []domain.MediaItem
}

func collectCapture(items, readings, photos []string) (capture, error) {
	var c capture
	for _, raw := range items {
		item, err := parseItem(raw)
		if err != nil {
			return capture{}, err
		}
		c.items = append(c.items, item)
	}

	for _, raw := range readings {
		reading, err := parseReading(raw)
		if err != nil {
			return capture{}, err
		}
		c.readings = append(c.readings, reading)
	}

	for _, path := range photos {
		data, err := os.ReadFile(path)
		if err != nil {
			return capture{}, fmt.Errorf("ошибка чтения файла %s: %w", path, err)
		}
		c.media = append(c.media, domain.MediaItem{
			Raw:         data,
			Kind:        domain.MediaPhoto,
			ContentType: http.DetectContentType(data),
			FileName:    filepath.Base(path),
		})
	}
	return c, nil
}

func (c capture) apply(session *draft.Session) error {
	for _, item := range c.items {
		if err := session.AddChecklistItem(item); err != nil {
			return err
		}
	}
	for _, reading := range c.readings {
		if err := session.AddMeterReading(reading); err != nil {
			return err
		}
	}
	for _, item := range c.media {
		if err := session.AddMedia(item); err != nil {
			return err
		}
	}
	return nil
}

func parseItem(raw string) (domain.ChecklistItem, error) {
	name, condition, ok := strings.Cut(raw, ":")
	if !ok || name == "" || condition == "" {
		return domain.ChecklistItem{}, fmt.Errorf("неверный пункт чек-листа %q, ожидается название:состояние", raw)
	}
	condition = strings.TrimSpace(condition)
	return domain.ChecklistItem{
		Name:      strings.TrimSpace(name),
		Condition: condition,
		FollowUp:  condition == "damaged",
	}, nil
}

func parseReading(raw string) (domain.MeterReading, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return domain.MeterReading{}, fmt.Errorf("неверное показание %q, ожидается тип:предыдущее:текущее", raw)
	}
	prev, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return domain.MeterReading{}, fmt.Errorf("неверное предыдущее значение %q: %w", parts[1], err)
	}
	cur, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return domain.MeterReading{}, fmt.Errorf("неверное текущее значение %q: %w", parts[2], err)
	}
	return domain.MeterReading{
		MeterKind:     parts[0],
		PreviousValue: prev,
		CurrentValue:  cur,
		ReadingDate:   time.Now(),
	}, nil
}

func init() {
	newCmd.Flags().StringVar(&newLocation, "location", "", "идентификатор объекта (обязательно)")
	newCmd.Flags().StringVar(&newUnit, "unit", "", "идентификатор помещения")
	newCmd.Flags().StringVar(&newType, "type", "routine", "тип осмотра")
	newCmd.Flags().StringVar(&newNotes, "notes", "", "примечания")
	newCmd.Flags().StringArrayVar(&newItems, "item", nil, "пункт чек-листа название:состояние")
	newCmd.Flags().StringArrayVar(&newReadings, "reading", nil, "показание тип:предыдущее:текущее")
	newCmd.Flags().StringArrayVar(&newPhotos, "photo", nil, "путь к фото")
	newCmd.Flags().BoolVar(&newSubmit, "submit", false, "сразу отправить осмотр")
}
